// Package controller implements the service layer of the export lifecycle:
// it loads snapshots from the repository, applies the engine derivations and
// validations inside one transaction, persists the result and publishes
// events.
package controller

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/cafexport/internal/export/db"
	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/events"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(eventType events.EventType, company models.Company, entityID uuid.UUID, payload interface{})
}

// Repository defines the storage interface of the export service.
type Repository interface {
	ListContracts(ctx context.Context, company models.Company) ([]models.Contract, error)
	GetContract(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	SaveContract(ctx context.Context, c *models.Contract) error
	DeleteContract(ctx context.Context, id uuid.UUID) error

	ListDocuments(ctx context.Context, company models.Company) ([]models.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	CreateDocument(ctx context.Context, d *models.Document) error
	UpdateDocument(ctx context.Context, d *models.Document) error
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	CreateShipment(ctx context.Context, s *models.Shipment) error
	GetShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	DeleteShipment(ctx context.Context, id uuid.UUID) error

	ListRoles(ctx context.Context) ([]models.Role, error)
	GetRole(ctx context.Context, id uuid.UUID) (*models.Role, error)
	SaveRole(ctx context.Context, role *models.Role) error
	DeleteRole(ctx context.Context, id uuid.UUID) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error

	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// maxRetries bounds the attempts of an operation losing optimistic
// concurrency races.
const maxRetries = 5

// ExportService orchestrates repository operations, engine rules and event
// production for contracts, documents, shipments and roles.
type ExportService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger

	now        func() time.Time
	newBackOff func() backoff.BackOff
}

// NewExportService constructs an ExportService with a repository, an event
// producer, and a logger.
func NewExportService(repo Repository, producer EventProducer, logger *zap.Logger) *ExportService {
	return &ExportService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("export_service"),
		now:      time.Now,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 20 * time.Millisecond
			b.MaxElapsedTime = 2 * time.Second
			return b
		},
	}
}

// Ping reports whether the repository is reachable.
func (s *ExportService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// retryable reports errors caused by a concurrent writer. A bare duplicate
// lot error comes from the storage index; the retry re-validates and turns
// it into a DuplicateLotError naming the other contract.
func retryable(err error) bool {
	if errors.Is(err, e.ErrConcurrentUpdate) {
		return true
	}
	var dup *e.DuplicateLotError
	return errors.Is(err, e.ErrDuplicateLotNumber) && !errors.As(err, &dup)
}

// inTransaction runs fn in a transaction, retrying with backoff while it
// fails with a retryable error.
func (s *ExportService) inTransaction(ctx context.Context, op string, fn func(tx *db.Repository) error) error {
	attempt := 0
	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), maxRetries), ctx)
	return backoff.Retry(func() error {
		attempt++
		err := s.repo.WithTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		if retryable(err) {
			s.logger.Debug("Retrying after concurrent update",
				zap.String("operation", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		return backoff.Permanent(err)
	}, b)
}

func (s *ExportService) publish(eventType events.EventType, company models.Company, id uuid.UUID, payload interface{}) {
	go func() {
		s.producer.Produce(eventType, company, id, payload)
	}()
}

func (s *ExportService) today() time.Time {
	t := s.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
