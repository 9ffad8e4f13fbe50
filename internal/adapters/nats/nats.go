// Package nats mirrors bridge events onto NATS subjects and accepts
// cursor-jump commands from other processes.
package nats

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/corey/idebridge/internal/domain/ide"
	"github.com/corey/idebridge/internal/ports"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "idebridge"

// Envelope is the JSON body of every published event.
type Envelope struct {
	ID      string          `json:"id"`
	Kind    ports.EventKind `json:"kind"`
	Time    time.Time       `json:"time"`
	Payload json.RawMessage `json:"payload"`
}

// CommandReply answers a move-cursor request that carried a reply subject.
type CommandReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Publisher implements ports.Publisher over core NATS. Publishing is
// fire-and-forget: failures are logged and counted, never returned.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *slog.Logger
	owned  bool

	failed atomic.Int64
}

// Connect dials url and returns a Publisher that owns the connection.
func Connect(url, prefix string, logger *slog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("idebridge"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	p := NewPublisher(nc, prefix, logger)
	p.owned = true
	p.logger.Info("nats connected", "url", nc.ConnectedUrlRedacted(), "prefix", p.prefix)
	return p, nil
}

// NewPublisher wraps an existing connection. Close will not close nc.
func NewPublisher(nc *nats.Conn, prefix string, logger *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{nc: nc, prefix: prefix, logger: logger}
}

// EventSubject returns the subject events of kind are published on.
func (p *Publisher) EventSubject(kind ports.EventKind) string {
	return p.prefix + ".events." + string(kind)
}

// MoveCursorSubject returns the subject move-cursor commands arrive on.
func (p *Publisher) MoveCursorSubject() string {
	return p.prefix + ".commands.move_cursor"
}

// Publish implements ports.Publisher.
func (p *Publisher) Publish(ev ports.Event) {
	data, err := encode(ev, time.Now())
	if err != nil {
		p.failed.Add(1)
		p.logger.Warn("nats encode event failed", "kind", ev.Kind(), "error", err)
		return
	}
	subject := p.EventSubject(ev.Kind())
	if err := p.nc.Publish(subject, data); err != nil {
		p.failed.Add(1)
		p.logger.Warn("nats publish failed", "subject", subject, "error", err)
	}
}

// FailedCount returns how many events could not be published.
func (p *Publisher) FailedCount() int64 {
	return p.failed.Load()
}

// SubscribeMoveCursor calls fn for each move-cursor command. Requests with
// a reply subject get a CommandReply. The returned func unsubscribes.
func (p *Publisher) SubscribeMoveCursor(fn func(ide.MoveCursorRequest) error) (func(), error) {
	subject := p.MoveCursorSubject()
	sub, err := p.nc.Subscribe(subject, func(msg *nats.Msg) {
		reply := CommandReply{OK: true}
		var req ide.MoveCursorRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			reply = CommandReply{Error: fmt.Sprintf("invalid move cursor command: %v", err)}
			p.logger.Warn("nats command rejected", "subject", msg.Subject, "error", err)
		} else if err := fn(req); err != nil {
			reply = CommandReply{Error: err.Error()}
			p.logger.Error("move cursor command failed", "file", req.FilePath, "error", err)
		}
		if msg.Reply == "" {
			return
		}
		data, _ := json.Marshal(reply)
		if err := msg.Respond(data); err != nil {
			p.logger.Warn("nats respond failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", subject, err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			p.logger.Warn("nats unsubscribe failed", "subject", subject, "error", err)
		}
	}, nil
}

// Close flushes pending events and closes the connection if this
// Publisher opened it.
func (p *Publisher) Close() error {
	if !p.owned {
		return nil
	}
	if err := p.nc.FlushTimeout(2 * time.Second); err != nil {
		p.logger.Warn("nats flush failed", "error", err)
	}
	p.nc.Close()
	return nil
}

func encode(ev ports.Event, now time.Time) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return json.Marshal(Envelope{
		ID:      uuid.NewString(),
		Kind:    ev.Kind(),
		Time:    now.UTC(),
		Payload: payload,
	})
}
