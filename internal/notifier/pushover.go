package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pagenine/pkg/logx"
)

const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

type PushoverConfig struct {
	AppToken string
	UserKey  string
	// URL overrides the messages endpoint.
	URL     string
	Timeout time.Duration
}

func (c PushoverConfig) configured() bool {
	return strings.TrimSpace(c.AppToken) != "" && strings.TrimSpace(c.UserKey) != ""
}

type Pushover struct {
	cfg  PushoverConfig
	http *http.Client
	log  logx.Logger
}

func NewPushover(cfg PushoverConfig, log logx.Logger) *Pushover {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultPushoverURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Pushover{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

type pushoverResponse struct {
	Status  int      `json:"status"`
	Request string   `json:"request"`
	Errors  []string `json:"errors"`
}

func (p *Pushover) Notify(ctx context.Context, message, title string) error {
	form := url.Values{}
	form.Set("token", p.cfg.AppToken)
	form.Set("user", p.cfg.UserKey)
	form.Set("message", message)
	if title != "" {
		form.Set("title", title)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("pushover: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("pushover: %w", err)
	}
	defer resp.Body.Close()

	var pr pushoverResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(body, &pr)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || pr.Status != 1 {
		if len(pr.Errors) > 0 {
			return fmt.Errorf("pushover: %s: %s", resp.Status, strings.Join(pr.Errors, "; "))
		}
		return fmt.Errorf("pushover: %s", resp.Status)
	}
	p.log.Debug("pushover accepted", logx.String("request", pr.Request))
	return nil
}
