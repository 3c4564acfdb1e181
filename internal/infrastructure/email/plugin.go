package email

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"InsightDigest/internal/delivery"
	"InsightDigest/internal/ports"
)

const (
	defaultPort          = 587
	defaultMaxItems      = 100
	defaultSubjectPrefix = "[InsightDigest]"
)

// Message is one outbound mail with its connection parameters.
type Message struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
	Subject  string
	Body     string
}

// Transport actually hands a message to an SMTP server. Split out so tests
// can capture messages without a live server.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Plugin delivers digests over SMTP. Config keys: smtpHost, smtpPort,
// smtpUser, smtpPassword, smtpFrom, to, subjectPrefix, maxItems.
type Plugin struct {
	transport Transport
}

// New builds the email plugin. A nil transport selects the real SMTP one.
func New(transport Transport) *Plugin {
	if transport == nil {
		transport = &SMTPTransport{}
	}
	return &Plugin{transport: transport}
}

// ID implements delivery.Plugin.
func (p *Plugin) ID() string { return "email" }

// Deliver renders the newest insights and mails one copy to each
// recipient. No stored insights means there is nothing to send and is not
// an error; a failing recipient aborts the remaining ones.
func (p *Plugin) Deliver(ctx context.Context, insights ports.InsightReader, cfg delivery.Config, deps delivery.Deps) error {
	host := cfg.Get("smtpHost", "")
	if host == "" {
		return fmt.Errorf("email: smtpHost is not configured")
	}
	port, err := strconv.Atoi(cfg.Get("smtpPort", strconv.Itoa(defaultPort)))
	if err != nil {
		return fmt.Errorf("email: invalid smtpPort: %w", err)
	}

	user := cfg.Get("smtpUser", "")
	from := cfg.Get("smtpFrom", user)
	if from == "" {
		return fmt.Errorf("email: no sender address configured")
	}

	recipients := delivery.SplitRecipients(cfg.Get("to", ""))
	if len(recipients) == 0 {
		return fmt.Errorf("email: no recipients configured")
	}

	maxItems, err := strconv.Atoi(cfg.Get("maxItems", strconv.Itoa(defaultMaxItems)))
	if err != nil || maxItems <= 0 {
		maxItems = defaultMaxItems
	}

	recent, err := insights.ListSince(ctx, time.Time{}, maxItems)
	if err != nil {
		return fmt.Errorf("email: load insights: %w", err)
	}
	if len(recent) == 0 {
		deps.Logger.Info("no insights to mail, skipping")
		return nil
	}

	subject := fmt.Sprintf("%s %s", cfg.Get("subjectPrefix", defaultSubjectPrefix), time.Now().Format("2006-01-02"))
	body := delivery.RenderDigest(ctx, recent, deps.RawItems)

	for _, to := range recipients {
		msg := Message{
			Host:     host,
			Port:     port,
			User:     user,
			Password: cfg.Get("smtpPassword", ""),
			From:     from,
			To:       to,
			Subject:  subject,
			Body:     body,
		}
		if err := p.transport.Send(ctx, msg); err != nil {
			return fmt.Errorf("email: send to %s: %w", to, err)
		}
		deps.Logger.Info("digest mailed", "to", to, "insights", len(recent))
	}
	return nil
}
