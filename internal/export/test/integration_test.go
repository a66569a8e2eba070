package test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/cafexport/internal/export/controller"
	"github.com/gartstein/cafexport/internal/export/db"
	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/events"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const testTopic = "export_events_integration"

var kafkaBrokers = []string{"localhost:9092"}

type IntegrationTestSuite struct {
	suite.Suite
	dbRepo      *db.Repository
	kafkaReader *kafka.Reader
	producer    *events.Producer
	service     *controller.ExportService
	logger      *zap.Logger
	testTimeout time.Duration
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.logger = zap.NewNop()
	s.testTimeout = 20 * time.Second

	var err error
	s.dbRepo, err = initializeDBWithRetry()
	if err != nil {
		s.T().Fatal("Database initialization failed:", err)
	}

	s.producer, s.kafkaReader, err = initializeKafkaWithRetry(testTopic)
	if err != nil {
		s.T().Fatal("Kafka initialization failed:", err)
	}

	s.service = controller.NewExportService(s.dbRepo, s.producer, s.logger)
}

func initializeDBWithRetry() (*db.Repository, error) {
	cfg := &db.Config{
		Host:     "localhost",
		Port:     5432,
		User:     "test",
		Password: "test",
		DBName:   "test",
		SSLMode:  "disable",
	}

	var repo *db.Repository
	err := backoff.Retry(func() error {
		var err error
		repo, err = db.NewRepository(cfg)
		return err
	}, backoff.NewExponentialBackOff())

	return repo, err
}

func initializeKafkaWithRetry(topic string) (*events.Producer, *kafka.Reader, error) {
	var producer *events.Producer
	err := backoff.Retry(func() error {
		var err error
		producer, err = events.NewProducer(kafkaBrokers, zap.NewNop(), topic)
		if err != nil {
			return fmt.Errorf("failed to create Kafka producer: %w", err)
		}
		return nil
	}, backoff.NewExponentialBackOff())
	if err != nil {
		return nil, nil, fmt.Errorf("Kafka producer initialization failed: %w", err)
	}

	// Wait for topic metadata instead of blocking on a read.
	err = backoff.Retry(func() error {
		conn, err := kafka.Dial("tcp", kafkaBrokers[0])
		if err != nil {
			return err
		}
		defer conn.Close()

		partitions, err := conn.ReadPartitions(topic)
		if err != nil || len(partitions) == 0 {
			return fmt.Errorf("topic %s not found", topic)
		}
		return nil
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
	if err != nil {
		producer.Close()
		return nil, nil, fmt.Errorf("Kafka topic check failed: %w", err)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     kafkaBrokers,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	return producer, reader, nil
}

func (s *IntegrationTestSuite) TearDownSuite() {
	if s.kafkaReader != nil {
		_ = s.kafkaReader.Close()
	}
	if s.producer != nil {
		s.producer.Close()
	}
	if s.dbRepo != nil {
		_ = s.dbRepo.Close()
	}
}

func (s *IntegrationTestSuite) SetupTest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	err := s.dbRepo.Exec(ctx,
		"TRUNCATE TABLE partidas, contracts, documents, sequences, shipment_tasks, shipments, users, roles CASCADE")
	if err != nil {
		s.T().Fatal("Failed to clean database:", err)
	}
}

func newContract(number, lot string) *models.Contract {
	return &models.Contract{
		Company:     models.CompanyDelta,
		Number:      number,
		HarvestYear: "2024-2025",
		Partidas: []models.Partida{{
			LotNumber: lot,
			UnitCount: 275,
			WeightKg:  decimal.NewFromInt(19000),
		}},
	}
}

func (s *IntegrationTestSuite) TestContractSavedEvent() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	saved, err := s.service.SaveContract(ctx, newContract("IT-1", "1"), nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "413.04", saved.Partidas[0].WeightQuintales.StringFixed(2))

	event := s.consumeKafkaEvent(ctx, events.ContractSaved, saved.ID)
	assert.Equal(s.T(), models.CompanyDelta, event.Company)

	var payload models.Contract
	require.NoError(s.T(), json.Unmarshal(event.Payload, &payload))
	assert.Equal(s.T(), "IT-1", payload.Number)
}

func (s *IntegrationTestSuite) TestContractDelete() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	saved, err := s.service.SaveContract(ctx, newContract("IT-2", "2"), nil)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.service.DeleteContract(ctx, saved.ID))

	_, err = s.dbRepo.GetContract(ctx, saved.ID)
	assert.ErrorIs(s.T(), err, e.ErrNotFound)
	s.consumeKafkaEvent(ctx, events.ContractDeleted, saved.ID)
}

// Two contracts racing for one lot number: exactly one wins and the other
// learns which contract holds it.
func (s *IntegrationTestSuite) TestConcurrentDuplicateLot() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	numbers := []string{"IT-A", "IT-B"}
	errs := make([]error, len(numbers))
	var wg sync.WaitGroup
	for i, n := range numbers {
		wg.Add(1)
		go func(i int, number string) {
			defer wg.Done()
			_, errs[i] = s.service.SaveContract(ctx, newContract(number, "77"), nil)
		}(i, n)
	}
	wg.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	require.Len(s.T(), failed, 1, "errors: %v", errs)

	var dup *e.DuplicateLotError
	require.True(s.T(), errors.As(failed[0], &dup), "got %v", failed[0])
	assert.Equal(s.T(), "77", dup.LotNumber)
	assert.Contains(s.T(), numbers, dup.ContractNumber)
}

func (s *IntegrationTestSuite) TestConcurrentInvoiceNumbering() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	const workers = 4
	numbers := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := s.service.CreateDocument(ctx, &models.Document{
				Kind:           models.KindInvoice,
				Company:        models.CompanyDelta,
				InvoiceSubtype: models.InvoiceExport,
			})
			errs[i] = err
			if err == nil {
				numbers[i] = doc.Number
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(s.T(), err)
	}
	sort.Strings(numbers)
	assert.Equal(s.T(), []string{"INV-001", "INV-002", "INV-003", "INV-004"}, numbers)
}

func (s *IntegrationTestSuite) consumeKafkaEvent(ctx context.Context, eventType events.EventType, entityID uuid.UUID) events.Event {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	maxRetries := 200
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			s.T().Fatalf("Timeout: No %s event received after %d attempts", eventType, attempts)
			return events.Event{}
		default:
			if attempts >= maxRetries {
				s.T().Fatalf("Max retry attempts reached for %s", eventType)
				return events.Event{}
			}
			msg, err := s.kafkaReader.ReadMessage(ctx)
			if err != nil {
				s.T().Logf("Kafka read attempt %d failed: %v", attempts, err)
				attempts++
				time.Sleep(1 * time.Second)
				continue
			}
			if string(msg.Key) != entityID.String() {
				s.T().Logf("Skipping message with unmatched key: %s (Expected: %s)", string(msg.Key), entityID)
				attempts++
				continue
			}
			var event events.Event
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				s.T().Fatalf("Failed to unmarshal Kafka message: %v", err)
			}
			if event.Type != eventType {
				s.T().Logf("Skipping message with unmatched eventType: %s (Expected: %s)", event.Type, eventType)
				attempts++
				continue
			}
			s.T().Logf("Consumed event: %s, ID=%s, attempts=%d", eventType, event.EntityID, attempts)
			return event
		}
	}
}
