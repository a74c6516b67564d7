package mqttpub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ceevent "github.com/cloudevents/sdk-go/v2/event"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"callwatch/internal/calls"
)

const (
	// EventType is the CloudEvents type of call announcements.
	EventType = "io.callwatch.call.imported"
	// EventSource is the CloudEvents source of call announcements.
	EventSource = "callwatch"
)

// Publishing is the part of mqtt.Client the publisher needs.
type Publishing interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// PublisherConfig holds the topic pattern and delivery settings.
type PublisherConfig struct {
	Topic string
	QoS   byte
}

// Publisher announces calls. It implements calls.Importer so it can sit next
// to the store in a calls.Fanout.
type Publisher struct {
	client Publishing
	topic  string
	qos    byte
}

var _ calls.Importer = (*Publisher)(nil)

// NewPublisher returns a publisher sending through client.
func NewPublisher(client Publishing, cfg PublisherConfig) *Publisher {
	return &Publisher{client: client, topic: cfg.Topic, qos: cfg.QoS}
}

// CallPayload is the data of a call announcement.
type CallPayload struct {
	SourceType string         `json:"sourceType"`
	System     int            `json:"system"`
	Talkgroup  int            `json:"talkgroup"`
	Frequency  *int           `json:"frequency,omitempty"`
	DateTime   time.Time      `json:"dateTime"`
	AudioName  string         `json:"audioName"`
	AudioType  string         `json:"audioType"`
	AudioSize  int            `json:"audioSize"`
	Meta       map[string]any `json:"meta,omitempty"`
}

func (p *Publisher) ImportTrunkRecorder(ctx context.Context, audio []byte, audioName, audioType string, system int, meta map[string]any) error {
	call, err := calls.TrunkRecorderCall(audio, audioName, audioType, system, meta)
	if err != nil {
		return err
	}
	return p.Publish(ctx, call)
}

func (p *Publisher) ImportSdrtrunk(ctx context.Context, audio []byte, audioName, audioType string, system int, meta map[string]any) error {
	call, err := calls.SdrtrunkCall(audio, audioName, audioType, system, meta)
	if err != nil {
		return err
	}
	return p.Publish(ctx, call)
}

func (p *Publisher) ImportCall(ctx context.Context, call calls.Call) error {
	if call.SourceType == "" {
		call.SourceType = calls.SourceGeneric
	}
	return p.Publish(ctx, call)
}

// Publish sends the announcement for call and waits for the broker to
// acknowledge it or ctx to end.
func (p *Publisher) Publish(ctx context.Context, call calls.Call) error {
	payload, err := EncodeEvent(call)
	if err != nil {
		return err
	}
	topic := FormatTopic(p.topic, call)

	token := p.client.Publish(topic, p.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish call to %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish call to %s: %w", topic, err)
	}
	return nil
}

// EncodeEvent wraps call in a structured-mode CloudEvents JSON document.
func EncodeEvent(call calls.Call) ([]byte, error) {
	dateTime := call.DateTime
	if dateTime.IsZero() {
		dateTime = time.Now()
	}

	event := ceevent.New()
	event.SetID(uuid.NewString())
	event.SetSource(EventSource)
	event.SetType(EventType)
	event.SetSubject(call.AudioName)
	event.SetTime(dateTime)
	if err := event.SetData(ceevent.ApplicationJSON, CallPayload{
		SourceType: call.SourceType,
		System:     call.System,
		Talkgroup:  call.Talkgroup,
		Frequency:  call.Frequency,
		DateTime:   dateTime.UTC(),
		AudioName:  call.AudioName,
		AudioType:  call.AudioType,
		AudioSize:  len(call.Audio),
		Meta:       call.Meta,
	}); err != nil {
		return nil, fmt.Errorf("encode call event data: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("invalid call event: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal call event: %w", err)
	}
	return data, nil
}

// DecodeEvent parses an announcement produced by EncodeEvent.
func DecodeEvent(data []byte) (ceevent.Event, CallPayload, error) {
	var event ceevent.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return ceevent.Event{}, CallPayload{}, fmt.Errorf("decode call event: %w", err)
	}
	if event.Type() != EventType {
		return event, CallPayload{}, errors.New("not a call event: " + event.Type())
	}
	var payload CallPayload
	if err := event.DataAs(&payload); err != nil {
		return event, CallPayload{}, fmt.Errorf("decode call event data: %w", err)
	}
	return event, payload, nil
}

// FormatTopic replaces {system}, {talkgroup}, and {source} in pattern.
func FormatTopic(pattern string, call calls.Call) string {
	replacer := strings.NewReplacer(
		"{system}", strconv.Itoa(call.System),
		"{talkgroup}", strconv.Itoa(call.Talkgroup),
		"{source}", call.SourceType,
	)
	return replacer.Replace(pattern)
}
