// Package events publishes and consumes export lifecycle events over Kafka.
package events

import (
	"context"
	"encoding/json"

	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	ContractSaved   EventType = "contract_saved"
	ContractDeleted EventType = "contract_deleted"
	DocumentCreated EventType = "document_created"
	ShipmentCreated EventType = "shipment_created"
	TaskUpdated     EventType = "task_updated"
)

// Event is the message written to the export topic. Payload holds the JSON
// form of the entity the event is about.
type Event struct {
	Type     EventType       `json:"type"`
	Company  models.Company  `json:"company"`
	EntityID uuid.UUID       `json:"entity_id"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

const queueSize = 1000

func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}
	p := newProducer(writer, logger, queueSize)
	go p.eventLoop()
	return p, nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger, size int) *Producer {
	return &Producer{
		writer:    writer,
		events:    make(chan Event, size),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}
}

// Produce queues an event about entityID. Events are dropped, with a
// warning, when the queue is full.
func (p *Producer) Produce(eventType EventType, company models.Company, entityID uuid.UUID, payload interface{}) {
	var raw json.RawMessage
	if payload != nil {
		data, err := jsonMarshal(payload)
		if err != nil {
			p.logger.Error("Failed to serialize payload",
				zap.Error(err),
				zap.String("event_type", string(eventType)),
				zap.String("entity_id", entityID.String()),
			)
			return
		}
		raw = data
	}

	select {
	case p.events <- Event{Type: eventType, Company: company, EntityID: entityID, Payload: raw}:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("entity_id", entityID.String()),
		)
	}
}

func (p *Producer) eventLoop() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

// sendEvent keys messages by entity so events about one entity stay ordered.
func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("entity_id", event.EntityID.String()),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.EntityID.String()),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("entity_id", event.EntityID.String()),
		)
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
