/* Copyright © 2025 Mike Brown. All Rights Reserved.
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
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mikeb26/tkdrank/rankchange"
	"github.com/mikeb26/tkdrank/rankview"
	"github.com/mikeb26/tkdrank/simplycompete"
	"github.com/mikeb26/tkdrank/store"
	"github.com/mikeb26/tkdrank/wtrank"
)

type TkdSubCommand string

const (
	TkdHelpCmd         TkdSubCommand = "help"
	TkdCompetitionsCmd TkdSubCommand = "competitions"
	TkdRankingsCmd     TkdSubCommand = "rankings"
	TkdChangeCmd       TkdSubCommand = "change"
)

type botStore interface {
	ListCompetitions(ctx context.Context) ([]simplycompete.Competition, error)
	ListRankings(ctx context.Context, division string) ([]wtrank.Entry, time.Time, error)
	ListDivisions(ctx context.Context) ([]string, error)
}

var db botStore

var tkdSubCmdHdlrs = map[TkdSubCommand]CmdHandler{
	TkdHelpCmd:         tkdHelpCmdHandler,
	TkdCompetitionsCmd: tkdCompetitionsCmdHandler,
	TkdRankingsCmd:     tkdRankingsCmdHandler,
	TkdChangeCmd:       tkdChangeCmdHandler,
}

func broadcastOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionBoolean,
		Name:        "broadcast",
		Description: "Share with the rest of the channel instead of only to you (default is false)",
		Required:    false,
	}
}

var minRank = 1.0

func tkdCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        string(TkdCmd),
		Description: "Taekwondo competition and ranking commands; try /tkd help to start",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        string(TkdHelpCmd),
				Description: "Show usage for tkd",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        string(TkdCompetitionsCmd),
				Description: "List synced competitions",
				Options:     []*discordgo.ApplicationCommandOption{broadcastOption()},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        string(TkdRankingsCmd),
				Description: "Show a division's latest ranking with rank changes",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "division",
						Description: "Weight division, e.g. Male -58kg (omit to list divisions)",
						Required:    false,
					},
					broadcastOption(),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        string(TkdChangeCmd),
				Description: "Evaluate a rank change",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "current",
						Description: "Current rank",
						Required:    false,
						MinValue:    &minRank,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "previous",
						Description: "Previous rank (omit if previously unranked)",
						Required:    false,
						MinValue:    &minRank,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "delta",
						Description: "Precomputed delta instead; negative means the athlete climbed",
						Required:    false,
					},
					broadcastOption(),
				},
			},
		},
	}
}

func tkdCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	data := inter.ApplicationCommandData()
	hdlr := tkdHelpCmdHandler
	if len(data.Options) > 0 {
		if subName := data.Options[0].Name; subName != "" {
			h, ok := tkdSubCmdHdlrs[TkdSubCommand(subName)]
			if ok {
				hdlr = h
			}
		}
	}
	return hdlr(ctx, inter)
}

func newResponse() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}
}

// subOptions returns the options of the invoked subcommand by name.
func subOptions(inter *discordgo.Interaction) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	data := inter.ApplicationCommandData()
	if len(data.Options) == 0 {
		return opts
	}
	for _, opt := range data.Options[0].Options {
		opts[opt.Name] = opt
	}
	return opts
}

func applyBroadcast(resp *discordgo.InteractionResponse,
	opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {

	if opt, ok := opts["broadcast"]; ok && opt.BoolValue() {
		resp.Data.Flags = 0
	}
}

//go:embed help.md
var helpText string

func tkdHelpCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	resp := newResponse()
	resp.Data.Content = truncateContent(helpText)
	return resp
}

func tkdCompetitionsCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	resp := newResponse()
	opts := subOptions(inter)

	comps, err := db.ListCompetitions(ctx)
	if err != nil {
		resp.Data.Content = fmt.Sprintf("Error listing competitions: %v", err)
		log.Printf("discordbot.competitions: %v", resp.Data.Content)
		return resp
	}
	if len(comps) == 0 {
		resp.Data.Content = "No competitions synced yet."
		return resp
	}

	var sb strings.Builder
	for _, c := range comps {
		date := "TBD"
		if !c.StartDate.IsZero() {
			date = c.StartDate.Format("2006-01-02")
		}
		sb.WriteString(fmt.Sprintf("- **%v** %v\n", date, c.Name))
	}
	resp.Data.Content = truncateContent(sb.String())
	applyBroadcast(resp, opts)

	return resp
}

func tkdRankingsCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	resp := newResponse()
	opts := subOptions(inter)

	divOpt, ok := opts["division"]
	if !ok || strings.TrimSpace(divOpt.StringValue()) == "" {
		divs, err := db.ListDivisions(ctx)
		if err != nil {
			resp.Data.Content = fmt.Sprintf("Error listing divisions: %v", err)
			log.Printf("discordbot.rankings: %v", resp.Data.Content)
			return resp
		}
		if len(divs) == 0 {
			resp.Data.Content = "No rankings synced yet."
			return resp
		}
		sort.Sort(simplycompete.DivisionSorter(divs))
		resp.Data.Content = truncateContent("Divisions:\n- " +
			strings.Join(divs, "\n- "))
		return resp
	}
	division := strings.TrimSpace(divOpt.StringValue())

	entries, asOf, err := db.ListRankings(ctx, division)
	if errors.Is(err, store.ErrNotFound) {
		resp.Data.Content = fmt.Sprintf("No rankings found for %v.", division)
		return resp
	}
	if err != nil {
		resp.Data.Content = fmt.Sprintf("Error fetching rankings for %v: %v",
			division, err)
		log.Printf("discordbot.rankings: %v", resp.Data.Content)
		return resp
	}

	table := wtrank.BuildRankingsOutput(division, entries,
		rankview.Styler{Plain: true})
	embed := &discordgo.MessageEmbed{
		Title:       division,
		Description: fmt.Sprintf("```\n%s```", truncateEmbed(table)),
		Color:       rankview.DiscordColor(rankchange.Gray),
		Timestamp:   asOf.Format(time.RFC3339),
		Fields:      moverFields(entries),
	}
	resp.Data.Embeds = []*discordgo.MessageEmbed{embed}
	applyBroadcast(resp, opts)

	return resp
}

// moverFields summarizes the biggest climb and fall in a ranking.
func moverFields(entries []wtrank.Entry) []*discordgo.MessageEmbedField {
	var best, worst *wtrank.Entry
	var bestChange, worstChange rankchange.Change
	for i := range entries {
		c, ok := entries[i].Change()
		if !ok {
			continue
		}
		if c.Direction == rankchange.Up && c.Amount > bestChange.Amount {
			best, bestChange = &entries[i], c
		}
		if c.Direction == rankchange.Down && c.Amount > worstChange.Amount {
			worst, worstChange = &entries[i], c
		}
	}

	var fields []*discordgo.MessageEmbedField
	if best != nil {
		v := rankview.NewView(bestChange)
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Biggest climb",
			Value:  fmt.Sprintf("%v %v (%v) %v", v.Icon.Emoji(), best.Name, best.Country, v.Text),
			Inline: true,
		})
	}
	if worst != nil {
		v := rankview.NewView(worstChange)
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Biggest fall",
			Value:  fmt.Sprintf("%v %v (%v) %v", v.Icon.Emoji(), worst.Name, worst.Country, v.Text),
			Inline: true,
		})
	}
	return fields
}

func tkdChangeCmdHandler(ctx context.Context,
	inter *discordgo.Interaction) *discordgo.InteractionResponse {

	resp := newResponse()
	opts := subOptions(inter)

	var change rankchange.Change
	var ok bool
	var title string
	if deltaOpt, found := opts["delta"]; found {
		delta := rankchange.Delta(deltaOpt.IntValue())
		change, ok = rankchange.EvaluateDelta(&delta)
		title = fmt.Sprintf("Delta %d", delta)
	} else if curOpt, found := opts["current"]; found {
		current := rankchange.Ranked(int(curOpt.IntValue()))
		previous := rankchange.Unranked
		if prevOpt, found := opts["previous"]; found {
			previous = rankchange.Ranked(int(prevOpt.IntValue()))
		}
		change, ok = rankchange.Evaluate(current, previous)
		title = fmt.Sprintf("Rank %v (was %v)", current, previous)
	} else {
		resp.Data.Content = "Please provide a current rank or a delta."
		log.Printf("discordbot.change: %v", resp.Data.Content)
		return resp
	}
	if !ok {
		resp.Data.Content = "No rank change to report."
		return resp
	}

	v := rankview.NewView(change)
	resp.Data.Embeds = []*discordgo.MessageEmbed{{
		Title:       title,
		Description: fmt.Sprintf("%v **%v**", v.Icon.Emoji(), v.Text),
		Color:       rankview.DiscordColor(v.Color),
	}}
	applyBroadcast(resp, opts)

	return resp
}

// https://discord.com/developers/docs/resources/channel#start-thread-in-forum-or-media-channel-forum-and-media-thread-message-params-object
// limits messages to 2k characters
func truncateContent(s string) string {
	const MsgLimit = 1988 // keep space for newlines and markdown
	runes := []rune(s)
	if len(runes) > MsgLimit {
		s = fmt.Sprintf("%v...", string(runes[:MsgLimit]))
	}
	return s
}

// embed descriptions allow 4096 characters
func truncateEmbed(s string) string {
	const EmbedLimit = 4080
	runes := []rune(s)
	if len(runes) > EmbedLimit {
		s = fmt.Sprintf("%v...", string(runes[:EmbedLimit]))
	}
	return s
}
