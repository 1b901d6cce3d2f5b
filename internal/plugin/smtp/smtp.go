// Package smtp implements a notification service kind that delivers
// message bodies as email via an SMTP relay.
package smtp

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

// Plugin sends one email per job. A target corresponds to a recipient;
// the sender and subject are service-wide. Each job dials the relay,
// sends, and closes the connection.
type Plugin struct {
	client  *mail.Client
	from    string
	subject string
}

// New constructs an smtp service plugin.
func New() plugin.Plugin {
	return &Plugin{}
}

func (p *Plugin) Init(ctx context.Context, sc *plugin.ServiceContext) error {
	host := sc.StringOption("host", "")
	if host == "" {
		return fmt.Errorf("smtp plugin: target %s requires a host option", sc.ServiceName)
	}
	p.from = sc.StringOption("from", "warnbridge@localhost")
	p.subject = sc.StringOption("subject", "warnbridge notification")

	opts := []mail.Option{
		mail.WithPort(sc.IntOption("port", 587)),
		mail.WithTimeout(0),
	}
	if user := sc.StringOption("username", ""); user != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(user),
			mail.WithPassword(sc.StringOption("password", "")))
	}
	if sc.BoolOption("use_tls", true) {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return fmt.Errorf("smtp plugin: building client: %w", err)
	}
	p.client = client
	return nil
}

func (p *Plugin) Deliver(ctx context.Context, sc *plugin.ServiceContext, job *core.Job) (bool, error) {
	to := sc.StringOption("to", "")
	if to == "" {
		return false, fmt.Errorf("smtp plugin: target %s has no to option", job.Target)
	}

	msg := mail.NewMsg()
	if err := msg.From(p.from); err != nil {
		return false, err
	}
	if err := msg.To(to); err != nil {
		return false, err
	}
	msg.Subject(p.subject)
	msg.SetBodyString(mail.TypeTextPlain, job.Body)

	if err := p.client.DialAndSendWithContext(ctx, msg); err != nil {
		sc.Log.Warn("send failed", "target", job.Target, "error", err)
		return false, err
	}
	return true, nil
}

func (p *Plugin) Close() error { return nil }
