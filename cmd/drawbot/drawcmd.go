/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mikeb26/uefa-drawbot/draw"
	"github.com/mikeb26/uefa-drawbot/session"
	"github.com/mikeb26/uefa-drawbot/uefa"
)

type DrawSubCommand string

const (
	DrawHelpCmd  DrawSubCommand = "help"
	DrawStartCmd DrawSubCommand = "start"
	DrawPickCmd  DrawSubCommand = "pick"
	DrawAutoCmd  DrawSubCommand = "auto"
	DrawFastCmd  DrawSubCommand = "fast"
	DrawShowCmd  DrawSubCommand = "show"
	DrawResetCmd DrawSubCommand = "reset"
)

const (
	defaultTournament = "el"
	defaultSeason     = 2024
)

type SeasonFetcher interface {
	FetchSeason(ctx context.Context, tournament, stage string,
		season int) (*uefa.Season, error)
}

// bot runs at most one draw per channel.
type bot struct {
	seasons  SeasonFetcher
	registry *session.Registry

	mu       sync.Mutex
	channels map[string]string // channel id -> draw id
	subCmds  map[DrawSubCommand]CmdHandler
}

func newBot(seasons SeasonFetcher, registry *session.Registry) *bot {
	b := &bot{
		seasons:  seasons,
		registry: registry,
		channels: make(map[string]string),
	}
	b.subCmds = map[DrawSubCommand]CmdHandler{
		DrawHelpCmd:  b.drawHelpCmdHandler,
		DrawStartCmd: b.drawStartCmdHandler,
		DrawPickCmd:  b.drawPickCmdHandler,
		DrawAutoCmd:  b.drawAutoCmdHandler,
		DrawFastCmd:  b.drawFastCmdHandler,
		DrawShowCmd:  b.drawShowCmdHandler,
		DrawResetCmd: b.drawResetCmdHandler,
	}
	return b
}

func (b *bot) drawCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	data := inter.ApplicationCommandData()
	name := DrawHelpCmd
	if len(data.Options) > 0 {
		if _, ok := b.subCmds[DrawSubCommand(data.Options[0].Name)]; ok {
			name = DrawSubCommand(data.Options[0].Name)
		}
	}

	start := time.Now()
	resp := b.subCmds[name](ctx, inter)
	commandDuration.WithLabelValues(string(name)).Observe(
		time.Since(start).Seconds())
	status := "ok"
	if resp.Data != nil && resp.Data.Flags&discordgo.MessageFlagsEphemeral != 0 &&
		name != DrawHelpCmd {
		status = "rejected"
	}
	commandTotal.WithLabelValues(string(name), status).Inc()

	return resp
}

//go:embed help.md
var helpText string

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: truncateContent(content),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

// broadcast shares text with the whole channel as a code block.
func broadcast(text string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: codeBlock(text),
		},
	}
}

func (b *bot) drawHelpCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	return ephemeral(helpText)
}

func subOptions(inter *discordgo.Interaction) []*discordgo.ApplicationCommandInteractionDataOption {
	data := inter.ApplicationCommandData()
	if len(data.Options) == 0 {
		return nil
	}
	return data.Options[0].Options
}

func (b *bot) drawStartCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	tournament := defaultTournament
	season := int64(defaultSeason)
	for _, opt := range subOptions(inter) {
		if opt.Name == "tournament" {
			tournament = opt.StringValue()
		} else if opt.Name == "season" {
			season = opt.IntValue()
		}
	}

	s, err := b.seasons.FetchSeason(ctx, tournament, uefa.StageKnockout,
		int(season))
	if err != nil {
		log.Printf("drawbot.start: unable to load %v %v: %v", tournament,
			season, err)
		return ephemeral(fmt.Sprintf("Unable to load the %v %v draw: %v",
			tournament, season, err))
	}
	pred, err := s.Predicate()
	if err != nil {
		return ephemeral(fmt.Sprintf("Unable to start the draw: %v", err))
	}
	sess, err := b.registry.Start(s.Pots, pred)
	if err != nil {
		log.Printf("drawbot.start: %v", err)
		return ephemeral(fmt.Sprintf("Unable to start the draw: %v", err))
	}

	b.mu.Lock()
	if old, ok := b.channels[inter.ChannelID]; ok {
		b.registry.End(old)
	} else {
		activeDraws.Inc()
	}
	b.channels[inter.ChannelID] = sess.ID()
	b.mu.Unlock()

	return broadcast(uefa.BuildPotsOutput(s) + uefa.BuildDrawOutput(sess.Snapshot()))
}

var errNoDraw = errors.New("no draw in progress in this channel; try /draw start")

func (b *bot) channelSession(channelID string) (*session.Session, error) {
	b.mu.Lock()
	id, ok := b.channels[channelID]
	b.mu.Unlock()
	if !ok {
		return nil, errNoDraw
	}

	sess, err := b.registry.Get(id)
	if err != nil {
		return nil, errNoDraw
	}
	return sess, nil
}

// drawResult renders the outcome of a pick, or explains why it was refused.
func (b *bot) drawResult(channelID string, snap draw.Snapshot,
	err error) *discordgo.InteractionResponse {

	switch {
	case err == nil:
	case draw.IsInfeasibleDraw(err):
		infeasibleDraws.Inc()
		log.Printf("drawbot.pick: channel %v: %v", channelID, err)
		b.finish(channelID)
		return broadcast(uefa.BuildDrawOutput(snap))
	case draw.IsInvalidTransition(err):
		return ephemeral(fmt.Sprintf("That ball cannot be drawn: %v", err))
	default:
		log.Printf("drawbot.pick: channel %v: %v", channelID, err)
		return ephemeral(fmt.Sprintf("Unable to draw: %v", err))
	}

	if snap.State == draw.Completed {
		b.finish(channelID)
	}
	return broadcast(uefa.BuildDrawOutput(snap))
}

// finish releases a channel once its draw is complete or dead.
func (b *bot) finish(channelID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id, ok := b.channels[channelID]; ok {
		b.registry.End(id)
		delete(b.channels, channelID)
		activeDraws.Dec()
	}
}

func (b *bot) drawPickCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	sess, err := b.channelSession(inter.ChannelID)
	if err != nil {
		return ephemeral(err.Error())
	}
	ball := int64(0)
	for _, opt := range subOptions(inter) {
		if opt.Name == "ball" {
			ball = opt.IntValue()
		}
	}
	if ball <= 0 {
		return ephemeral("Please provide a ball number.")
	}

	snap, err := sess.Pick(int(ball) - 1)
	if err == nil {
		_, snap, err = sess.AutoPick()
	}
	return b.drawResult(inter.ChannelID, snap, err)
}

func (b *bot) drawAutoCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	sess, err := b.channelSession(inter.ChannelID)
	if err != nil {
		return ephemeral(err.Error())
	}
	n, snap, err := sess.AutoPick()
	if err == nil && n == 0 {
		return ephemeral("Every ball in the bowl is still possible; use /draw pick.")
	}
	return b.drawResult(inter.ChannelID, snap, err)
}

func (b *bot) drawFastCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	sess, err := b.channelSession(inter.ChannelID)
	if err != nil {
		return ephemeral(err.Error())
	}
	snap, err := sess.FastDraw()
	return b.drawResult(inter.ChannelID, snap, err)
}

func (b *bot) drawShowCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	sess, err := b.channelSession(inter.ChannelID)
	if err != nil {
		return ephemeral(err.Error())
	}
	return broadcast(uefa.BuildDrawOutput(sess.Snapshot()))
}

func (b *bot) drawResetCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok := b.channels[inter.ChannelID]
	if !ok {
		return ephemeral(errNoDraw.Error())
	}
	sess, err := b.registry.Reset(id)
	if err != nil {
		return ephemeral(err.Error())
	}
	b.channels[inter.ChannelID] = sess.ID()

	return broadcast(uefa.BuildDrawOutput(sess.Snapshot()))
}

func codeBlock(s string) string {
	const fence = "```"
	return truncateContent(fence+"\n"+strings.TrimRight(s, "\n")) + "\n" + fence
}

func truncateContent(s string) string {
	const MsgLimit = 1988 // keep space for newlines and markdown
	runes := []rune(s)
	if len(runes) > MsgLimit {
		s = fmt.Sprintf("%v...", string(runes[:MsgLimit]))
	}
	return s
}
