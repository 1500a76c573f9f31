package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/serverwatch/fivewatch/internal/diff"
	"github.com/serverwatch/fivewatch/internal/models"
)

const embedColorOrange = 0xE67E22

// Discord sends notifications to per-server text channels and answers a
// small set of operator commands.
type Discord struct {
	session *discordgo.Session
}

// NewDiscord creates a Discord notifier from a bot token. The session is
// not opened yet; call Open after attaching commands.
func NewDiscord(token string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	return &Discord{session: session}, nil
}

// Open connects the gateway session.
func (d *Discord) Open() error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}
	log.Info().Msg("Discord session opened")
	return nil
}

// Close shuts the gateway session down.
func (d *Discord) Close() error {
	return d.session.Close()
}

// Notify sends a plain text alert to the server's channel.
func (d *Discord) Notify(server *models.TrackedServer, text string) error {
	if server.ChannelID == "" {
		return nil
	}
	_, err := d.session.ChannelMessageSend(server.ChannelID, Truncate(text))
	if err != nil {
		return fmt.Errorf("sending message for %s: %w", server.ID, err)
	}
	return nil
}

// NotifyReport sends a change report as a rich embed, one field per changed
// category.
func (d *Discord) NotifyReport(server *models.TrackedServer, report models.ChangeReport, at time.Time) error {
	if server.ChannelID == "" {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Changes Detected!",
		Description: "fivem://connect/" + server.ID,
		URL:         "https://servers.fivem.net/servers/detail/" + server.ID,
		Color:       embedColorOrange,
		Timestamp:   at.UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: report.Hostname},
	}
	for _, c := range report.Changes {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   c.Name,
			Value:  c.Body,
			Inline: c.Inline,
		})
	}

	_, err := d.session.ChannelMessageSendEmbed(server.ChannelID, embed)
	if err != nil {
		return fmt.Errorf("sending embed for %s: %w", server.ID, err)
	}
	return nil
}

// UpdatePresence mirrors the latest snapshot into the channel topic.
func (d *Discord) UpdatePresence(server *models.TrackedServer, snap *models.ServerSnapshot) error {
	if server.ChannelID == "" {
		return nil
	}
	topic := fmt.Sprintf("%s — %d/%d players", diff.Sanitize(snap.Hostname), len(snap.Players), snap.MaxClients)
	_, err := d.session.ChannelEditComplex(server.ChannelID, &discordgo.ChannelEdit{Topic: topic})
	if err != nil {
		return fmt.Errorf("editing topic for %s: %w", server.ID, err)
	}
	return nil
}

// AttachCommands registers the operator command handler:
//
//	ping            liveness check
//	servers         run one polling round now
//	server <id>     poll one server and report its current state
//	player <name>   look a player up in the index
func (d *Discord) AttachCommands(engine Engine) {
	d.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		d.handleCommand(s, m, engine)
	})
}

func (d *Discord) handleCommand(s *discordgo.Session, m *discordgo.MessageCreate, engine Engine) {
	switch {
	case m.Content == "ping":
		d.reply(s, m, "pong")

	case m.Content == "servers":
		go engine.TriggerRound()
		d.reply(s, m, fmt.Sprintf("Checking %d servers...", len(engine.Servers())))

	case strings.HasPrefix(m.Content, "server "):
		id := strings.TrimSpace(strings.TrimPrefix(m.Content, "server "))
		snap, err := engine.FetchOrCached(id)
		if err != nil {
			d.reply(s, m, fmt.Sprintf("```\n%v\n```", err))
			return
		}
		d.reply(s, m, fmt.Sprintf("%s: %d/%d players, build %s, %d resources",
			diff.Sanitize(snap.Hostname), len(snap.Players), snap.MaxClients, snap.GameBuild, len(snap.Resources)))

	case strings.HasPrefix(m.Content, "player "):
		name := strings.TrimSpace(strings.TrimPrefix(m.Content, "player "))
		records := engine.LookupPlayer(name)
		if len(records) == 0 {
			d.reply(s, m, fmt.Sprintf("Never seen %q.", name))
			return
		}
		var b strings.Builder
		for _, rec := range records {
			for _, sighting := range rec.Sightings {
				fmt.Fprintf(&b, "%q on %s at %s (%dms)\n",
					rec.Name, sighting.ServerID, sighting.LastSeen.Format(time.RFC3339), sighting.Ping)
			}
		}
		d.reply(s, m, Truncate(b.String()))
	}
}

func (d *Discord) reply(s *discordgo.Session, m *discordgo.MessageCreate, text string) {
	if _, err := s.ChannelMessageSendReply(m.ChannelID, text, m.Reference()); err != nil {
		log.Error().Err(err).Str("channel_id", m.ChannelID).Msg("Failed to reply to command")
	}
}
