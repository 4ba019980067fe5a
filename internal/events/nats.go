package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStream is the subset of jetstream.JetStream the publisher needs.
type JetStream interface {
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Options configures the JetStream publisher.
type Options struct {
	// StreamName is the stream the subjects are bound to. Empty skips stream
	// creation.
	StreamName string

	// SubjectPrefix is prepended to the event type to form the subject.
	SubjectPrefix string

	// RetryAttempts is the number of publish retries. 0 means no retry.
	RetryAttempts int

	// FileStorage selects file-backed stream storage instead of memory.
	FileStorage bool

	// OnPublish is called after each publish attempt.
	OnPublish func(subject string, err error, latency time.Duration)
}

type jetStreamPublisher struct {
	js      JetStream
	opts    Options
	closeFn func()
}

// NewPublisher creates a Publisher on js, ensuring the stream exists.
func NewPublisher(ctx context.Context, js JetStream, opts Options) (Publisher, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream cannot be nil")
	}

	if opts.StreamName != "" {
		prefix := opts.SubjectPrefix
		if prefix == "" {
			prefix = opts.StreamName
		}

		storage := jetstream.MemoryStorage
		if opts.FileStorage {
			storage = jetstream.FileStorage
		}

		_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     opts.StreamName,
			Subjects: []string{prefix + ".>"},
			Storage:  storage,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to ensure stream: %w", err)
		}
	}

	return &jetStreamPublisher{js: js, opts: opts}, nil
}

// Connect dials the NATS server at url and returns a publisher that closes
// the connection on Close.
func Connect(ctx context.Context, url string, opts Options) (Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("exprcheck"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream: %w", err)
	}

	pub, err := NewPublisher(ctx, js, opts)
	if err != nil {
		nc.Close()
		return nil, err
	}
	pub.(*jetStreamPublisher).closeFn = nc.Close

	slog.Info("Connected to NATS", "url", url, "stream", opts.StreamName)
	return pub, nil
}

func (p *jetStreamPublisher) subject(t Type) string {
	prefix := p.opts.SubjectPrefix
	if prefix == "" {
		prefix = p.opts.StreamName
	}
	if prefix == "" {
		return string(t)
	}
	return prefix + "." + string(t)
}

// Publish encodes evt as JSON and sends it to <prefix>.<type>.
func (p *jetStreamPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	start := time.Now()
	subject := p.subject(evt.Type)

	var publishOpts []jetstream.PublishOpt
	if p.opts.RetryAttempts > 0 {
		publishOpts = append(publishOpts, jetstream.WithRetryAttempts(p.opts.RetryAttempts))
	}
	if evt.ID != "" {
		publishOpts = append(publishOpts, jetstream.WithMsgID(evt.ID))
	}

	_, err = p.js.Publish(ctx, subject, data, publishOpts...)

	if p.opts.OnPublish != nil {
		p.opts.OnPublish(subject, err, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

func (p *jetStreamPublisher) Close() error {
	if p.closeFn != nil {
		p.closeFn()
	}
	return nil
}
