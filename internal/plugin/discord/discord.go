// Package discord implements a notification service kind that posts
// message bodies to a Discord channel via a bot session.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

// Plugin sends each job's body as a message to a configured channel
// using a single, long-lived bot session shared across targets.
type Plugin struct {
	session *discordgo.Session
}

// New constructs a discord service plugin.
func New() plugin.Plugin {
	return &Plugin{}
}

func (p *Plugin) Init(ctx context.Context, sc *plugin.ServiceContext) error {
	token := sc.StringOption("bot_token", "")
	if token == "" {
		return fmt.Errorf("discord plugin: target %s requires a bot_token option", sc.ServiceName)
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("discord plugin: %w", err)
	}
	if err := session.Open(); err != nil {
		return fmt.Errorf("discord plugin: opening session: %w", err)
	}
	p.session = session
	return nil
}

func (p *Plugin) Deliver(ctx context.Context, sc *plugin.ServiceContext, job *core.Job) (bool, error) {
	channelID := sc.StringOption("channel_id", "")
	if channelID == "" {
		return false, fmt.Errorf("discord plugin: target %s has no channel_id option", job.Target)
	}

	if _, err := p.session.ChannelMessageSend(channelID, job.Body); err != nil {
		sc.Log.Warn("send failed", "target", job.Target, "error", err)
		return false, err
	}
	return true, nil
}

func (p *Plugin) Close() error {
	if p.session == nil {
		return nil
	}
	return p.session.Close()
}
