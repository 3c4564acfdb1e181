package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"InsightDigest/internal/delivery"
	"InsightDigest/internal/ports"
)

const (
	defaultBaseURL  = "https://api.telegram.org"
	defaultMaxItems = 20
)

// Plugin posts digests to a Telegram chat via the bot API. Config keys:
// botToken, chatId, maxItems.
type Plugin struct {
	baseURL string
	client  *http.Client
}

// New builds the telegram plugin. A nil client selects a default with a
// short timeout; baseURL is fixed to the public bot API.
func New(client *http.Client) *Plugin {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Plugin{baseURL: defaultBaseURL, client: client}
}

// ID implements delivery.Plugin.
func (p *Plugin) ID() string { return "telegram" }

// Deliver renders the newest insights and posts one message to the chat.
func (p *Plugin) Deliver(ctx context.Context, insights ports.InsightReader, cfg delivery.Config, deps delivery.Deps) error {
	botToken := cfg.Get("botToken", "")
	chatID := cfg.Get("chatId", "")
	if botToken == "" || chatID == "" {
		return fmt.Errorf("telegram: botToken and chatId are required")
	}

	maxItems, err := strconv.Atoi(cfg.Get("maxItems", strconv.Itoa(defaultMaxItems)))
	if err != nil || maxItems <= 0 {
		maxItems = defaultMaxItems
	}

	recent, err := insights.ListSince(ctx, time.Time{}, maxItems)
	if err != nil {
		return fmt.Errorf("telegram: load insights: %w", err)
	}
	if len(recent) == 0 {
		deps.Logger.Info("no insights to post, skipping")
		return nil
	}

	digest := delivery.RenderDigest(ctx, recent, deps.RawItems)
	if prefix := cfg.Get("subjectPrefix", ""); prefix != "" {
		digest = prefix + "\n" + digest
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", p.baseURL, botToken)
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", digest)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: api error: %s", resp.Status)
	}

	deps.Logger.Info("digest posted", "chat", chatID, "insights", len(recent))
	return nil
}
