// Package events publishes catalog import/export events on NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	StreamName = "BOUTIQUE_EVENTS"

	SubjectImportCompleted   = "catalog.import.completed"
	SubjectExportCompleted   = "catalog.export.completed"
	SubjectTemplateGenerated = "catalog.template.generated"
)

// ImportCompletedEvent is published after every import run, fatal or not.
type ImportCompletedEvent struct {
	EventID      string    `json:"eventId"`
	EventType    string    `json:"eventType"`
	Timestamp    time.Time `json:"timestamp"`
	ImportID     string    `json:"importId"`
	Success      bool      `json:"success"`
	TotalRows    int       `json:"totalRows"`
	Imported     int       `json:"imported"`
	Created      int       `json:"created"`
	Updated      int       `json:"updated"`
	ErrorCount   int       `json:"errorCount"`
	WarningCount int       `json:"warningCount"`
	Message      string    `json:"message"`
}

// ExportCompletedEvent is published when an export or template file is ready.
type ExportCompletedEvent struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Filename  string    `json:"filename"`
	Count     int       `json:"count"`
}

// streamPublisher is the part of jetstream.JetStream the publisher uses.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher sends catalog events to JetStream.
type Publisher struct {
	nc     *nats.Conn
	js     streamPublisher
	logger *logrus.Entry
}

// NewPublisher connects to natsURL and makes sure the events stream exists.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	log := logger.WithField("component", "catalog-events")

	nc, err := nats.Connect(natsURL,
		nats.Name("boutique-catalog"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectBufSize(8*1024*1024),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"catalog.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour * 7,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to ensure catalog stream (may already exist)")
	}

	return &Publisher{nc: nc, js: js, logger: log}, nil
}

// Close drains and closes the NATS connection
func (p *Publisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.nc.Close()
		}
	}
}

// PublishImportCompleted publishes a catalog.import.completed event
func (p *Publisher) PublishImportCompleted(ctx context.Context, result *models.ImportResult) error {
	event := ImportCompletedEvent{
		EventID:      uuid.NewString(),
		EventType:    SubjectImportCompleted,
		Timestamp:    time.Now().UTC(),
		ImportID:     result.ImportID,
		Success:      result.Success,
		TotalRows:    result.TotalRows,
		Imported:     result.Imported,
		Created:      result.Created,
		Updated:      result.Updated,
		ErrorCount:   len(result.Errors),
		WarningCount: len(result.Warnings),
		Message:      result.Message,
	}
	return p.publish(ctx, SubjectImportCompleted, event)
}

// PublishExportCompleted publishes a catalog.export.completed or
// catalog.template.generated event depending on kind.
func (p *Publisher) PublishExportCompleted(ctx context.Context, kind string, result *models.ExportResult) error {
	subject := SubjectExportCompleted
	if kind == "template" {
		subject = SubjectTemplateGenerated
	}
	event := ExportCompletedEvent{
		EventID:   uuid.NewString(),
		EventType: subject,
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Filename:  result.Filename,
		Count:     result.Count,
	}
	return p.publish(ctx, subject, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", subject, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ack, err := p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.logger.WithFields(logrus.Fields{
		"subject":  subject,
		"stream":   ack.Stream,
		"sequence": ack.Sequence,
	}).Debug("Published catalog event")
	return nil
}
