// Package events distributes claim status changes.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/interfaces"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
)

const (
	StatusChangedTopic  = "claim.status.changed"
	statusSubjectPrefix = "claims.status."
)

// StatusSubject is the NATS subject carrying one customer's claim events.
func StatusSubject(customerID int64) string {
	return statusSubjectPrefix + strconv.FormatInt(customerID, 10)
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event models.ClaimEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ClaimID),
		Value: payload,
	})
}

type NatsPublisher struct {
	nc *nats.Conn
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

func (p *NatsPublisher) Publish(_ context.Context, event models.ClaimEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.nc.Publish(StatusSubject(event.CustomerID), payload)
}

// MultiPublisher fans an event out to every publisher and joins their errors.
type MultiPublisher []interfaces.EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event models.ClaimEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", p, err))
		}
	}
	return errors.Join(errs...)
}
