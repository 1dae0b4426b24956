// Package events publishes build lifecycle events to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Type names a build event.
type Type string

const (
	TypeStarted    Type = "started"
	TypeTransition Type = "transition"
	TypeCompleted  Type = "completed"
	TypeFailed     Type = "failed"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "docsite.builds"

// Issue mirrors a build issue in event payloads.
type Issue struct {
	Stage   string `json:"stage"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Event is one build lifecycle event.
type Event struct {
	Type      Type      `json:"type"`
	BuildID   string    `json:"build_id"`
	Locale    string    `json:"locale"`
	From      string    `json:"from,omitempty"`
	State     string    `json:"state"`
	Routes    int       `json:"routes,omitempty"`
	Warnings  int       `json:"warnings,omitempty"`
	Issues    []Issue   `json:"issues,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers build events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// jsPublisher is the subset of jetstream.JetStream used for publishing.
type jsPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Options configures the JetStream publisher.
type Options struct {
	URL           string
	Stream        string
	SubjectPrefix string
	Timeout       time.Duration
}

// JetStreamPublisher publishes events to a JetStream stream under
// "<prefix>.<locale>.<type>".
type JetStreamPublisher struct {
	conn    *nats.Conn
	js      jsPublisher
	prefix  string
	timeout time.Duration
}

// NewJetStreamPublisher connects to NATS and ensures the stream exists.
func NewJetStreamPublisher(ctx context.Context, opts Options) (*JetStreamPublisher, error) {
	if opts.URL == "" {
		return nil, errors.ConfigError("nats url is required").Build()
	}
	if opts.SubjectPrefix == "" {
		opts.SubjectPrefix = DefaultSubjectPrefix
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	conn, err := nats.Connect(opts.URL, nats.Name("docsite"), nats.Timeout(opts.Timeout))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "connect to NATS").WithContext("url", opts.URL).Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryNetwork, "create JetStream context").Build()
	}

	if opts.Stream != "" {
		sctx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
		_, err = js.CreateOrUpdateStream(sctx, jetstream.StreamConfig{
			Name:        opts.Stream,
			Description: "docsite build events",
			Subjects:    []string{opts.SubjectPrefix + ".>"},
			MaxAge:      7 * 24 * time.Hour,
		})
		if err != nil {
			conn.Close()
			return nil, errors.WrapError(err, errors.CategoryNetwork, "ensure event stream").WithContext("stream", opts.Stream).Build()
		}
	}

	slog.Info("NATS event publisher initialized",
		"url", opts.URL,
		"stream", opts.Stream,
		"subject_prefix", opts.SubjectPrefix)

	return &JetStreamPublisher{conn: conn, js: js, prefix: opts.SubjectPrefix, timeout: opts.Timeout}, nil
}

// Subject returns the subject an event is published on.
func (p *JetStreamPublisher) Subject(e Event) string {
	locale := e.Locale
	if locale == "" {
		locale = "_"
	}
	return p.prefix + "." + locale + "." + string(e.Type)
}

// Publish marshals and publishes one event, waiting for the stream ack.
func (p *JetStreamPublisher) Publish(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal build event").Build()
	}

	pctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	subject := p.Subject(e)
	if _, err := p.js.Publish(pctx, subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "publish build event").WithContext("subject", subject).Build()
	}

	slog.Debug("Published build event", logfields.BuildID(e.BuildID), logfields.State(e.State), slog.String("subject", subject))
	return nil
}

// Close drains and closes the NATS connection.
func (p *JetStreamPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
