/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeb26/uefa-drawbot/draw"
	"github.com/mikeb26/uefa-drawbot/session"
	"github.com/mikeb26/uefa-drawbot/uefa"
)

// fixedSeasons serves one season regardless of what is asked for.
type fixedSeasons struct {
	season *uefa.Season
	err    error
}

func (f *fixedSeasons) FetchSeason(ctx context.Context, tournament,
	stage string, season int) (*uefa.Season, error) {

	return f.season, f.err
}

func newTestBot(t *testing.T) *bot {
	t.Helper()

	s, err := uefa.LoadPotFile("../../uefa/testdata/el-2024.yaml")
	require.NoError(t, err)
	return newBot(&fixedSeasons{season: s}, session.NewRegistry())
}

func command(channel string, sub DrawSubCommand,
	opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {

	return &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: channel,
		Data: discordgo.ApplicationCommandInteractionData{
			Name: string(DrawCmd),
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{
					Name:    string(sub),
					Type:    discordgo.ApplicationCommandOptionSubCommand,
					Options: opts,
				},
			},
		},
	}
}

func ballOpt(n int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "ball",
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(n),
	}
}

func isEphemeral(resp *discordgo.InteractionResponse) bool {
	return resp.Data.Flags&discordgo.MessageFlagsEphemeral != 0
}

func TestDrawFlow(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()

	resp := b.drawCmdHandler(ctx, command("c1", DrawStartCmd))
	require.NotNil(t, resp.Data)
	assert.False(t, isEphemeral(resp))
	assert.Contains(t, resp.Data.Content, "UEFA Europa League 2024")
	assert.True(t, strings.HasPrefix(resp.Data.Content, "```\n"))
	assert.True(t, strings.HasSuffix(resp.Data.Content, "\n```"))

	resp = b.drawCmdHandler(ctx, command("c1", DrawPickCmd, ballOpt(1)))
	assert.False(t, isEphemeral(resp))
	assert.Contains(t, resp.Data.Content, "Possible opponents for tie 1")

	resp = b.drawCmdHandler(ctx, command("c1", DrawPickCmd, ballOpt(9)))
	assert.True(t, isEphemeral(resp))
	assert.Contains(t, resp.Data.Content, "cannot be drawn")

	resp = b.drawCmdHandler(ctx, command("c1", DrawShowCmd))
	assert.Contains(t, resp.Data.Content, "Possible opponents for tie 1")

	resp = b.drawCmdHandler(ctx, command("c1", DrawFastCmd))
	assert.Contains(t, resp.Data.Content, "Draw complete.")

	// the channel is free again
	resp = b.drawCmdHandler(ctx, command("c1", DrawShowCmd))
	assert.True(t, isEphemeral(resp))
	assert.Contains(t, resp.Data.Content, errNoDraw.Error())
	assert.Zero(t, b.registry.Len())
}

func TestDrawChannelsAreIndependent(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()

	b.drawCmdHandler(ctx, command("c1", DrawStartCmd))
	b.drawCmdHandler(ctx, command("c2", DrawStartCmd))
	b.drawCmdHandler(ctx, command("c1", DrawFastCmd))

	resp := b.drawCmdHandler(ctx, command("c2", DrawShowCmd))
	assert.False(t, isEphemeral(resp))
	assert.Contains(t, resp.Data.Content, "Drawing a runner-up for tie 1")

	// restarting a channel replaces its draw
	b.drawCmdHandler(ctx, command("c2", DrawStartCmd))
	assert.Equal(t, 1, b.registry.Len())
}

func TestDrawReset(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()

	resp := b.drawCmdHandler(ctx, command("c1", DrawResetCmd))
	assert.True(t, isEphemeral(resp))

	b.drawCmdHandler(ctx, command("c1", DrawStartCmd))
	b.drawCmdHandler(ctx, command("c1", DrawPickCmd, ballOpt(2)))
	before := b.channels["c1"]

	resp = b.drawCmdHandler(ctx, command("c1", DrawResetCmd))
	assert.False(t, isEphemeral(resp))
	assert.Contains(t, resp.Data.Content, "Drawing a runner-up for tie 1")
	assert.NotEqual(t, before, b.channels["c1"])
	assert.Equal(t, 1, b.registry.Len())
}

func TestDrawAuto(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()

	b.drawCmdHandler(ctx, command("c1", DrawStartCmd))
	resp := b.drawCmdHandler(ctx, command("c1", DrawAutoCmd))
	assert.True(t, isEphemeral(resp))
	assert.Contains(t, resp.Data.Content, "/draw pick")
}

func TestDrawStartFailure(t *testing.T) {
	b := newBot(&fixedSeasons{err: fmt.Errorf("upstream down")},
		session.NewRegistry())

	before := testutil.ToFloat64(commandTotal.WithLabelValues("start",
		"rejected"))
	resp := b.drawCmdHandler(context.Background(), command("c1", DrawStartCmd))
	assert.True(t, isEphemeral(resp))
	assert.Contains(t, resp.Data.Content, "upstream down")
	assert.Equal(t, before+1,
		testutil.ToFloat64(commandTotal.WithLabelValues("start", "rejected")))
}

func TestDrawInfeasible(t *testing.T) {
	same := func(id string) draw.Team {
		return draw.Team{ID: id, Name: id, Country: "ESP"}
	}
	s := &uefa.Season{
		Tournament: "el",
		Stage:      uefa.StageKnockout,
		Season:     2024,
		Pots: [2][]draw.Team{
			{same("r0"), same("r1")},
			{same("w0"), same("w1")},
		},
	}
	b := newBot(&fixedSeasons{season: s}, session.NewRegistry())
	ctx := context.Background()

	before := testutil.ToFloat64(infeasibleDraws)
	b.drawCmdHandler(ctx, command("c1", DrawStartCmd))
	active := testutil.ToFloat64(activeDraws)
	resp := b.drawCmdHandler(ctx, command("c1", DrawPickCmd, ballOpt(1)))
	assert.False(t, isEphemeral(resp))
	assert.Contains(t, resp.Data.Content, "Draw failed")
	assert.Equal(t, before+1, testutil.ToFloat64(infeasibleDraws))

	// the dead draw releases the channel
	assert.Equal(t, active-1, testutil.ToFloat64(activeDraws))
	assert.NotContains(t, b.channels, "c1")
	assert.Equal(t, 0, b.registry.Len())
	resp = b.drawCmdHandler(ctx, command("c1", DrawShowCmd))
	assert.True(t, isEphemeral(resp))
	assert.Contains(t, resp.Data.Content, "no draw in progress")
}

func TestDrawHelpIsDefault(t *testing.T) {
	b := newTestBot(t)
	inter := &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: "draw"},
	}

	resp := b.drawCmdHandler(context.Background(), inter)
	assert.True(t, isEphemeral(resp))
	assert.Equal(t, truncateContent(helpText), resp.Data.Content)
}

func TestTruncateContent(t *testing.T) {
	long := strings.Repeat("ü", 3000)
	got := truncateContent(long)
	assert.Equal(t, 1991, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))

	block := codeBlock(long)
	assert.LessOrEqual(t, len([]rune(block)), 2000)
	assert.True(t, strings.HasSuffix(block, "\n```"))
}

func signedRequest(t *testing.T, priv ed25519.PrivateKey,
	body string) *http.Request {

	t.Helper()
	const ts = "1760000000"
	sig := ed25519.Sign(priv, []byte(ts+body))
	req := httptest.NewRequest(http.MethodPost, "/DiscordBot/Interaction",
		bytes.NewReader([]byte(body)))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
	req.Header.Set("X-Signature-Timestamp", ts)
	return req
}

func TestInteractionHandler(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	srv := newServer(pub, newTestBot(t))

	tests := []struct {
		name     string
		body     string
		status   int
		respType discordgo.InteractionResponseType
		contains string
	}{
		{"ping", `{"type":1}`, http.StatusOK,
			discordgo.InteractionResponsePong, ""},
		{"help", `{"type":2,"channel_id":"c9","data":{"id":"1","name":"draw","options":[{"name":"help","type":1}]}}`,
			http.StatusOK,
			discordgo.InteractionResponseChannelMessageWithSource, "/draw start"},
		{"unknown command", `{"type":2,"data":{"id":"1","name":"td"}}`,
			http.StatusOK,
			discordgo.InteractionResponseChannelMessageWithSource,
			"unknown command 'td'"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.interactionHandler(rec, signedRequest(t, priv, tc.body))
			require.Equal(t, tc.status, rec.Code)

			var resp discordgo.InteractionResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.respType, resp.Type)
			if tc.contains != "" {
				require.NotNil(t, resp.Data)
				assert.Contains(t, resp.Data.Content, tc.contains)
			}
		})
	}
}

func TestInteractionHandlerRejectsBadSignature(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	_, other, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	srv := newServer(pub, newTestBot(t))

	rec := httptest.NewRecorder()
	srv.interactionHandler(rec, signedRequest(t, other, `{"type":1}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDrawCommandHash(t *testing.T) {
	cmd := drawCommand()
	assert.True(t, shouldUpdateCmdRegistration(cmd, ""))

	raw, err := json.Marshal(cmd)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Len(t, cmd.Options, 7)
}
