// Package notify pushes fire-and-forget announcements about newly
// created events to a Discord channel. Nothing here is load-bearing:
// a nil announcer or a failed send only produces a log line.
package notify

import (
	"fmt"
	"log/slog"

	"campushub/src-server/model"

	"github.com/bwmarrin/discordgo"
)

type Announcer struct {
	dgSession *discordgo.Session
	channelID string
}

// NewAnnouncer returns nil when the token or channel id is blank,
// which disables announcements without a special case at call sites.
func NewAnnouncer(token string, channelID string) (*Announcer, error) {
	if token == "" || channelID == "" {
		return nil, nil
	}
	dgSession, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("NewAnnouncer: %w", err)
	}
	return &Announcer{
		dgSession: dgSession,
		channelID: channelID,
	}, nil
}

func (a *Announcer) EventCreated(event *model.Event) {
	if a == nil {
		return
	}
	go func() {
		if _, err := a.dgSession.ChannelMessageSendEmbed(
			a.channelID,
			&discordgo.MessageEmbed{
				Title:       event.Title,
				Description: event.Description,
				Fields: func() []*discordgo.MessageEmbedField {
					fields := []*discordgo.MessageEmbedField{}
					if event.Location != "" {
						fields = append(fields, &discordgo.MessageEmbedField{
							Name:   "Location",
							Value:  event.Location,
							Inline: true,
						})
					}
					if event.StartDateUnixUTC != 0 {
						fields = append(fields, &discordgo.MessageEmbedField{
							Name:   "Start Date",
							Value:  fmt.Sprintf("<t:%d:f>", event.StartDateUnixUTC),
							Inline: true,
						})
					}
					return fields
				}(),
				Footer: &discordgo.MessageEmbedFooter{
					Text: fmt.Sprintf("event #%d", event.ID),
				},
			},
		); err != nil {
			slog.Warn("can't announce event", "event", event.ID, "error", err)
		}
	}()
}
