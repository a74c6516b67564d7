package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"callwatch/internal/config"
)

const userAgent = "callwatch/0.1.0"

// Event names a notification kind.
type Event string

const (
	EventWatchStarted     Event = "watch_started"
	EventImportFailed     Event = "import_failed"
	EventCompanionMissing Event = "companion_missing"
	EventError            Event = "error"
	EventTest             Event = "test"
)

// Payload carries event details. Keys are event specific.
type Payload map[string]any

// Service defines the notification surface exposed to the watch pipeline.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:         topic,
		client:           &http.Client{Timeout: timeout},
		importFailures:   cfg.Notifications.ImportFailures,
		companionMissing: cfg.Notifications.CompanionMissing,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint         string
	client           *http.Client
	importFailures   bool
	companionMissing bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventWatchStarted:
		return message{
			title: "callwatch - Watching",
			body:  fmt.Sprintf("Watching %d director%s for new calls", payloadInt(payload, "count"), plural(payloadInt(payload, "count"), "y", "ies")),
			tags:  []string{"callwatch", "watch", "started"},
		}, true
	case EventImportFailed:
		if !n.importFailures {
			return message{}, false
		}
		return message{
			title:    "callwatch - Import Failed",
			body:     fmt.Sprintf("Could not import %s: %s", payloadString(payload, "file"), payloadString(payload, "error")),
			tags:     []string{"callwatch", "import", "failed"},
			priority: "high",
		}, true
	case EventCompanionMissing:
		if !n.companionMissing {
			return message{}, false
		}
		return message{
			title: "callwatch - Metadata Missing",
			body:  fmt.Sprintf("No %s next to %s; call skipped", payloadString(payload, "companion"), payloadString(payload, "file")),
			tags:  []string{"callwatch", "metadata", "missing"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if label := payloadString(payload, "context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if text := payloadString(payload, "error"); text != "" {
			builder.WriteString(text)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "callwatch - Error",
			body:     builder.String(),
			tags:     []string{"callwatch", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "callwatch - Test",
			body:     "Notification system test",
			tags:     []string{"callwatch", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
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

func payloadString(payload Payload, key string) string {
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func payloadInt(payload Payload, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
