// Package events publishes record-created events for downstream consumers.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/wavelength-ai/chat-insights/internal/model"
	"github.com/wavelength-ai/chat-insights/pkg/logger"
)

const (
	// SubjectMessageCreated carries newly persisted messages.
	SubjectMessageCreated = "chat.events.message"
	// SubjectSummaryCreated carries newly persisted summaries.
	SubjectSummaryCreated = "chat.events.summary"
)

// Publisher emits created-record events. Publishing is fire-and-forget: a
// failed publish is logged, never surfaced to the request that created the
// record.
type Publisher interface {
	MessageCreated(msg *model.Message)
	SummaryCreated(summary *model.Summary)
	Close()
}

// NATSPublisher publishes events to a NATS server.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *logger.Logger
}

// Connect establishes a NATS connection for event publishing.
func Connect(url string, log *logger.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("chat-insights-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}

	return &NATSPublisher{conn: conn, logger: log}, nil
}

// MessageCreated publishes a message-created event.
func (p *NATSPublisher) MessageCreated(msg *model.Message) {
	p.publish(SubjectMessageCreated, msg)
}

// SummaryCreated publishes a summary-created event.
func (p *NATSPublisher) SummaryCreated(summary *model.Summary) {
	p.publish(SubjectSummaryCreated, summary)
}

// Close flushes and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}

func (p *NATSPublisher) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Warn("failed to encode event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

// Noop discards all events; used when no NATS URL is configured.
type Noop struct{}

func (Noop) MessageCreated(*model.Message) {}
func (Noop) SummaryCreated(*model.Summary) {}
func (Noop) Close()                        {}
