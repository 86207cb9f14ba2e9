/* Copyright © 2025 Mike Brown. All Rights Reserved.
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

	"github.com/mikeb26/tkdrank/internal/config"
	"github.com/mikeb26/tkdrank/store"
)

var client *discordgo.Session
var botPubKey ed25519.PublicKey

type TopLevelCommand string

const (
	TkdCmd TopLevelCommand = "tkd"
)

type CmdHandler func(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse

var topLevelCmdHdlrs = map[TopLevelCommand]CmdHandler{
	TkdCmd: tkdCmdHandler,
}

func interactionHandler(w http.ResponseWriter, r *http.Request) {
	if !discordgo.VerifyInteraction(r, botPubKey) {
		log.Printf("discordbot.int: failed to verify")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("discordbot.int: failed to read request body: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var inter discordgo.Interaction
	if err := inter.UnmarshalJSON(body); err != nil {
		log.Printf("discordbot.int: failed to unmarshal interaction: err:%v body:%v",
			err, body)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	resp := dispatch(r.Context(), &inter)
	if resp == nil {
		log.Printf("discordbot.int: unimplemented interation type %v: inter:%v",
			inter.Type, inter)
		w.WriteHeader(http.StatusNotImplemented)
		return
	}

	rawResp, err := json.Marshal(resp)
	if err != nil {
		log.Printf("discordbot.int: failed to marshal resp: err:%v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(rawResp); err != nil {
		log.Printf("discordbot.int: failed to write resp: err:%v", err)
	}
}

// dispatch routes a verified interaction; nil means the type is unsupported.
func dispatch(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	switch inter.Type {
	case discordgo.InteractionPing:
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponsePong,
		}
	case discordgo.InteractionApplicationCommand:
		name := inter.ApplicationCommandData().Name
		hdlr, ok := topLevelCmdHdlrs[TopLevelCommand(name)]
		if !ok {
			return &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content: fmt.Sprintf("unknown command '%v'", name),
					Flags:   discordgo.MessageFlagsEphemeral,
				},
			}
		}
		return hdlr(ctx, inter)
	}
	return nil
}

func commandHash(cmd *discordgo.ApplicationCommand) string {
	cmdJson, err := json.Marshal(cmd)
	if err != nil {
		log.Fatalf("discordbot.reg: failed to marshal cmd: %v", err)
	}
	hash := sha256.Sum256(cmdJson)
	return hex.EncodeToString(hash[:])
}

func registerSlashCommands(cfg *config.Config) {
	tkdCmd := tkdCommand()

	if cfg.DiscordCommandID == "" {
		cmd, err := client.ApplicationCommandCreate(cfg.DiscordAppID,
			cfg.DiscordGuildID, tkdCmd)
		if err != nil {
			log.Printf("discordbot.reg: failed to register %v: %v", tkdCmd.Name,
				err)
			return
		}

		log.Printf("discordbot.reg: registered %v(cmdID:%v); set DISCORD_COMMAND_ID",
			cmd.Name, cmd.ID)
		return
	}

	hash := commandHash(tkdCmd)
	if hash == cfg.DiscordCommandHash {
		return
	}
	cmd, err := client.ApplicationCommandEdit(cfg.DiscordAppID,
		cfg.DiscordGuildID, cfg.DiscordCommandID, tkdCmd)
	if err != nil {
		log.Printf("discordbot.reg: failed to update %v: %v", tkdCmd.Name, err)
		return
	}

	log.Printf("discordbot.reg: updated %v(cmdID:%v); please update DISCORD_COMMAND_HASH to %v",
		cmd.Name, cmd.ID, hash)
}

func main() {
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("discordbot.main: %v", err)
	}
	if err := cfg.ValidateDiscord(); err != nil {
		log.Fatalf("discordbot.main: %v", err)
	}

	pubKeyBytes, err := hex.DecodeString(cfg.DiscordPublicKey)
	if err != nil {
		log.Fatalf("discordbot.main: Failed to parse public key: %v", err)
	}
	botPubKey = ed25519.PublicKey(pubKeyBytes)

	client, err = discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatalf("dicordbot.main: Failed to initialize discord client: %v", err)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("discordbot.main: %v", err)
	}
	defer st.Close()
	db = st

	go registerSlashCommands(cfg)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	log.Printf("discordbot.main: starting server on %v%v", hostname,
		cfg.DiscordListenAddr)

	http.HandleFunc("/DiscordBot/Interaction", interactionHandler)
	if err := http.ListenAndServe(cfg.DiscordListenAddr, nil); err != nil {
		log.Fatalf("discordbot.main: Serve failed: %v", err)
	}

	log.Printf("discordbot.main: exiting")
}
