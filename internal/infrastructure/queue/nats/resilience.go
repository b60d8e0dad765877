package nats

import (
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/casebinder/casebinder/internal/core/domain"
)

// classifyNATSError folds broker errors into the domain error kinds: outages
// and timeouts are temporary, everything else is configuration.
func classifyNATSError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrConnectionDraining),
		errors.Is(err, nats.ErrDisconnected),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrNoResponders):
		return domain.WrapError(domain.ErrTemporary, "nats."+op, err)
	case errors.Is(err, nats.ErrBadSubject),
		errors.Is(err, nats.ErrAuthorization),
		errors.Is(err, nats.ErrAuthExpired):
		return domain.WrapError(domain.ErrConfiguration, "nats."+op, err)
	default:
		return fmt.Errorf("nats.%s: %w", op, err)
	}
}
