// Package nats carries matter audit events between the API process and the
// audit worker over core NATS.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/casebinder/casebinder/internal/core/domain"
	"github.com/casebinder/casebinder/internal/infrastructure/resilience"
)

const queueGroup = "audit-writers"

type Options struct {
	URL            string
	Subject        string
	ConnectTimeout time.Duration
	DrainTimeout   time.Duration
}

func (o Options) withDefaults() Options {
	out := o
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = 5 * time.Second
	}
	if out.DrainTimeout <= 0 {
		out.DrainTimeout = 10 * time.Second
	}
	return out
}

// Stream is a thin AuditStream implementation over one NATS connection.
// Publishes run through the resilience executor so transient broker hiccups
// do not surface as intake failures.
type Stream struct {
	conn    *nats.Conn
	subject string
	exec    *resilience.Executor
}

func Connect(opts Options, exec *resilience.Executor) (*Stream, error) {
	opts = opts.withDefaults()
	if opts.URL == "" {
		return nil, fmt.Errorf("nats: url is required")
	}
	if opts.Subject == "" {
		return nil, fmt.Errorf("nats: subject is required")
	}

	conn, err := nats.Connect(opts.URL,
		nats.Timeout(opts.ConnectTimeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DrainTimeout(opts.DrainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats: connect %s: %w", opts.URL, err)
	}
	return &Stream{conn: conn, subject: opts.Subject, exec: exec}, nil
}

func (s *Stream) PublishAuditEvent(ctx context.Context, ev domain.AuditEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("nats: encode audit event: %w", err)
	}

	publish := func(context.Context) error {
		if err := s.conn.Publish(s.subject, payload); err != nil {
			return classifyNATSError("publish", err)
		}
		return nil
	}
	if s.exec == nil {
		return publish(ctx)
	}
	return s.exec.Execute(ctx, "nats.publish", publish, func(err error) resilience.ErrorClassification {
		return resilience.ErrorClassification{
			Retryable:     domain.IsKind(err, domain.ErrTemporary),
			RecordFailure: true,
		}
	})
}

// SubscribeAuditEvents consumes events in a queue group until ctx is
// cancelled, then drains the subscription. Handler errors are logged and the
// event is dropped; the stream is advisory, the matter row stays the source
// of truth.
func (s *Stream) SubscribeAuditEvents(ctx context.Context, handler func(context.Context, domain.AuditEvent) error) error {
	sub, err := s.conn.QueueSubscribe(s.subject, queueGroup, func(msg *nats.Msg) {
		var ev domain.AuditEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Error("audit_event_decode_failed", "subject", msg.Subject, "error", err)
			return
		}
		if err := handler(ctx, ev); err != nil {
			slog.Error("audit_event_handler_failed",
				"matter_id", ev.MatterID,
				"action", ev.Action,
				"error", err,
			)
		}
	})
	if err != nil {
		return classifyNATSError("subscribe", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		slog.Warn("nats_drain_failed", "subject", s.subject, "error", err)
	}
	return nil
}

func (s *Stream) Close() {
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
	}
}
