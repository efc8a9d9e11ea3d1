package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/errors"
	"github.com/spigell/hh-analyst/internal/telemetry"
)

const (
	// SubjectPrefix is prepended to the event name to build the subject.
	SubjectPrefix  = "hh_analyst."
	connectTimeout = 10 * time.Second
)

var tracer = telemetry.Tracer("hh-analyst/notify")

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes events on SubjectPrefix + event name.
type NATS struct {
	conn   publisher
	closer func()
	logger *zap.Logger
}

func NewNATS(url string, logger *zap.Logger) (*NATS, error) {
	opts := []nats.Option{
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, errors.Internal("connecting to NATS", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATS{conn: conn, closer: conn.Close, logger: logger}, nil
}

func (n *NATS) Notify(ctx context.Context, event Event) error {
	_, span := tracer.Start(ctx, "notify.NATS")
	defer span.End()

	subject := SubjectPrefix + event.Event
	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := n.conn.Publish(subject, data); err != nil {
		span.RecordError(err)
		n.logger.Error("failed to publish event", zap.String("subject", subject), zap.Error(err))
		return errors.Internal("publishing to NATS", err)
	}

	n.logger.Debug("published event", zap.String("subject", subject))
	return nil
}

func (n *NATS) Close() {
	if n.closer != nil {
		n.closer()
	}
}
