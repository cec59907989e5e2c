package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"uploadcheck/internal/config"
)

const userAgent = "uploadcheck/0.1.0"

// RunResult is the part of a run worth a push notification.
type RunResult struct {
	Catalogs []CatalogResult
	Files    int
	Errors   int
	Duration time.Duration
}

// CatalogResult counts the outcomes for one catalog.
type CatalogResult struct {
	Name     string
	Safe     int
	Risky    int
	Danger   int
	Disabled string
}

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyRunCompleted(ctx context.Context, result RunResult) error
	NotifyRunFailed(ctx context.Context, err error, stage string) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, result RunResult) error {
	var (
		b    strings.Builder
		safe int
	)
	fmt.Fprintf(&b, "Checked %d files in %s", result.Files, formatDuration(result.Duration))
	for _, c := range result.Catalogs {
		if c.Disabled != "" {
			fmt.Fprintf(&b, "\n%s: skipped (%s)", c.Name, c.Disabled)
			continue
		}
		fmt.Fprintf(&b, "\n%s: %d safe, %d risky, %d danger", c.Name, c.Safe, c.Risky, c.Danger)
		safe += c.Safe
	}
	if result.Errors > 0 {
		fmt.Fprintf(&b, "\n%d errors", result.Errors)
	}

	data := payload{
		title:   "uploadcheck - Run Complete",
		message: b.String(),
		tags:    []string{"uploadcheck", "run", "completed"},
	}
	if safe > 0 {
		data.tags = append(data.tags, "uploads")
	}
	if result.Errors > 0 {
		data.title = "uploadcheck - Run Complete (with errors)"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, err error, stage string) error {
	var b strings.Builder
	b.WriteString("Run failed")
	if stage = strings.TrimSpace(stage); stage != "" {
		b.WriteString(" during ")
		b.WriteString(stage)
	}
	b.WriteString(": ")
	if err != nil {
		b.WriteString(strings.TrimSpace(err.Error()))
	} else {
		b.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "uploadcheck - Error",
		message:  b.String(),
		tags:     []string{"uploadcheck", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunResult) error  { return nil }
func (noopService) NotifyRunFailed(context.Context, error, string) error { return nil }
