/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mikeb26/uefa-drawbot/internal"
	"github.com/mikeb26/uefa-drawbot/session"
	"github.com/mikeb26/uefa-drawbot/uefa"
)

type TopLevelCommand string

const (
	DrawCmd TopLevelCommand = "draw"
)

type CmdHandler func(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse

// config is read from the environment so that secrets never live in the
// binary.
type config struct {
	token   string
	pubKey  ed25519.PublicKey
	appID   string
	cmdID   string
	cmdHash string
	baseURL string
	addr    string
}

func loadConfig() (*config, error) {
	cfg := &config{
		token:   os.Getenv("DRAWBOT_DISCORD_TOKEN"),
		appID:   os.Getenv("DRAWBOT_DISCORD_APPID"),
		cmdID:   os.Getenv("DRAWBOT_DISCORD_CMDID"),
		cmdHash: os.Getenv("DRAWBOT_DISCORD_CMDHASH"),
		baseURL: os.Getenv("DRAWBOT_BASE_URL"),
		addr:    os.Getenv("DRAWBOT_LISTEN_ADDR"),
	}
	if cfg.token == "" || cfg.appID == "" {
		return nil, fmt.Errorf("DRAWBOT_DISCORD_TOKEN and DRAWBOT_DISCORD_APPID must be set")
	}
	pubKeyBytes, err := hex.DecodeString(os.Getenv("DRAWBOT_DISCORD_PUBKEY"))
	if err != nil || len(pubKeyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("DRAWBOT_DISCORD_PUBKEY is not a hex ed25519 key: %v",
			err)
	}
	cfg.pubKey = ed25519.PublicKey(pubKeyBytes)
	if cfg.addr == "" {
		cfg.addr = ":8080"
	}

	return cfg, nil
}

// server answers Discord interaction webhooks.
type server struct {
	pubKey   ed25519.PublicKey
	topLevel map[TopLevelCommand]CmdHandler
}

func newServer(pubKey ed25519.PublicKey, b *bot) *server {
	return &server{
		pubKey: pubKey,
		topLevel: map[TopLevelCommand]CmdHandler{
			DrawCmd: b.drawCmdHandler,
		},
	}
}

func (s *server) interactionHandler(w http.ResponseWriter, r *http.Request) {
	if !discordgo.VerifyInteraction(r, s.pubKey) {
		log.Printf("drawbot.int: failed to verify")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("drawbot.int: failed to read request body: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var inter discordgo.Interaction
	if err := inter.UnmarshalJSON(body); err != nil {
		log.Printf("drawbot.int: failed to unmarshal interaction: err:%v body:%v",
			err, string(body))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	resp := &discordgo.InteractionResponse{}
	if inter.Type == discordgo.InteractionPing {
		resp.Type = discordgo.InteractionResponsePong
	} else if inter.Type == discordgo.InteractionApplicationCommand {
		hdlr, ok :=
			s.topLevel[TopLevelCommand(inter.ApplicationCommandData().Name)]
		if !ok {
			resp.Type = discordgo.InteractionResponseChannelMessageWithSource
			resp.Data = &discordgo.InteractionResponseData{
				Content: fmt.Sprintf("unknown command '%v'",
					inter.ApplicationCommandData().Name),
				Flags: discordgo.MessageFlagsEphemeral,
			}
		} else {
			resp = hdlr(r.Context(), &inter)
		}
	} else {
		log.Printf("drawbot.int: unimplemented interation type %v", inter.Type)
		w.WriteHeader(http.StatusNotImplemented)
		return
	}

	rawResp, err := json.Marshal(resp)
	if err != nil {
		log.Printf("drawbot.int: failed to marshal resp: err:%v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err = w.Write(rawResp); err != nil {
		log.Printf("drawbot.int: failed to write resp: err:%v", err)
	}
}

func init() {
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))
}

func shouldUpdateCmdRegistration(cmd *discordgo.ApplicationCommand,
	lastHash string) bool {

	cmdJson, err := json.Marshal(cmd)
	if err != nil {
		log.Printf("drawbot.reg: failed to marshal cmd: %v", err)
		return false
	}
	hash := sha256.Sum256(cmdJson)
	hexString := hex.EncodeToString(hash[:])

	shouldUpdate := (hexString != lastHash)
	if shouldUpdate {
		log.Printf("drawbot.reg: updating cmd reg; please set DRAWBOT_DISCORD_CMDHASH to %v",
			hexString)
	}

	return shouldUpdate
}

func drawCommand() *discordgo.ApplicationCommand {
	tournamentChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Champions League", Value: "cl"},
		{Name: "Europa League", Value: "el"},
	}
	minBall := 1.0

	return &discordgo.ApplicationCommand{
		Name:        string(DrawCmd),
		Description: "Run a UEFA knockout draw; try /draw help to start",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        string(DrawHelpCmd),
				Description: "Show usage for draw",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        string(DrawStartCmd),
				Description: "Start a new draw in this channel",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "tournament",
						Description: "Competition (default is Europa League)",
						Choices:     tournamentChoices,
						Required:    false,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "season",
						Description: "Year of the knockout draw (default is 2024)",
						Required:    false,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        string(DrawPickCmd),
				Description: "Draw a ball from the current bowl",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "ball",
						Description: "Ball number",
						MinValue:    &minBall,
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        string(DrawAutoCmd),
				Description: "Draw every ball that has only one possible outcome",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        string(DrawFastCmd),
				Description: "Finish the draw at random",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        string(DrawShowCmd),
				Description: "Show the draw so far",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        string(DrawResetCmd),
				Description: "Start this draw over with reshuffled pots",
			},
		},
	}
}

func registerSlashCommands(client *discordgo.Session, cfg *config) {
	cmd := drawCommand()

	if cfg.cmdID == "" {
		created, err := client.ApplicationCommandCreate(cfg.appID, "", cmd)
		if err != nil {
			log.Printf("drawbot.reg: failed to register %v: %v", cmd.Name, err)
			return
		}

		log.Printf("drawbot.reg: registered %v(cmdID:%v); please set DRAWBOT_DISCORD_CMDID",
			created.Name, created.ID)
	} else if shouldUpdateCmdRegistration(cmd, cfg.cmdHash) {
		updated, err := client.ApplicationCommandEdit(cfg.appID, "", cfg.cmdID,
			cmd)
		if err != nil {
			log.Printf("drawbot.reg: failed to update %v: %v", cmd.Name, err)
			return
		}

		log.Printf("drawbot.reg: updated %v(cmdID:%v)", updated.Name, updated.ID)
	}
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("drawbot.init: %v", err)
	}
	client, err := discordgo.New("Bot " + cfg.token)
	if err != nil {
		log.Fatalf("drawbot.init: Failed to initialize discord client: %v", err)
	}
	go registerSlashCommands(client, cfg)

	ctx := context.Background()
	seasons := uefa.NewClient(
		internal.NewCachedHttpClient(ctx, internal.ArchiveMaxAge), cfg.baseURL)
	b := newBot(seasons, session.NewRegistry())
	srv := newServer(cfg.pubKey, b)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	log.Printf("drawbot.main: starting server on %v%v", hostname, cfg.addr)

	http.HandleFunc("/DiscordBot/Interaction", srv.interactionHandler)
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(cfg.addr, nil); err != nil {
		log.Fatalf("drawbot.main: Serve failed: %v", err)
	}

	log.Printf("drawbot.main: exiting")
}
