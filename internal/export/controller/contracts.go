package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gartstein/cafexport/internal/export/db"
	"github.com/gartstein/cafexport/internal/export/engine"
	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/events"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func validateContract(c *models.Contract) error {
	if !c.Company.Valid() {
		return fmt.Errorf("%w: unknown company %q", e.ErrInvalidInput, c.Company)
	}
	c.Number = strings.TrimSpace(c.Number)
	if c.Number == "" {
		return fmt.Errorf("%w: contract number required", e.ErrInvalidInput)
	}
	for i := range c.Partidas {
		p := &c.Partidas[i]
		if p.UnitCount < 0 {
			return fmt.Errorf("%w: negative unit count", e.ErrInvalidInput)
		}
		if p.WeightKg.IsNegative() {
			return fmt.Errorf("%w: negative weight", e.ErrInvalidInput)
		}
		if p.PackageKind != "" && !p.PackageKind.Valid() {
			return fmt.Errorf("%w: unknown package kind %q", e.ErrInvalidInput, p.PackageKind)
		}
		if p.MarksStatus != "" && !p.MarksStatus.Valid() {
			return fmt.Errorf("%w: unknown marks status %q", e.ErrInvalidInput, p.MarksStatus)
		}
		for _, req := range p.Packaging {
			if strings.TrimSpace(req.MaterialName) == "" || req.RequiredCount < 0 || req.PurchasedCount < 0 {
				return fmt.Errorf("%w: invalid packaging requirement", e.ErrInvalidInput)
			}
		}
	}
	return nil
}

// SaveContract creates or replaces c with its partidas. Lots listed in
// unlinkedLots keep their quintal weight as entered. A lot number already
// used in the same company and harvest year fails with a DuplicateLotError.
func (s *ExportService) SaveContract(ctx context.Context, c *models.Contract, unlinkedLots map[uuid.UUID]bool) (*models.Contract, error) {
	if err := validateContract(c); err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	for i := range c.Partidas {
		if c.Partidas[i].ID == uuid.Nil {
			c.Partidas[i].ID = uuid.New()
		}
	}

	if corrected := engine.PrepareContract(c, unlinkedLots); corrected > 0 {
		s.logger.Warn("Corrected ISF sent on lots without ISF",
			zap.String("contract_id", c.ID.String()),
			zap.Int("lots", corrected),
			zap.Error(e.ErrInconsistentToggle),
		)
	}

	err := s.inTransaction(ctx, "save_contract", func(tx *db.Repository) error {
		existing, err := tx.GetContract(ctx, c.ID)
		switch {
		case err == nil:
			if existing.Company != c.Company {
				return fmt.Errorf("%w: company", e.ErrImmutableField)
			}
			c.CreatedAt = existing.CreatedAt
		case errors.Is(err, e.ErrNotFound):
			c.CreatedAt = time.Time{}
		default:
			return err
		}

		contracts, err := tx.ListContracts(ctx, c.Company)
		if err != nil {
			return err
		}
		if err := engine.ValidateContractLots(c, contracts); err != nil {
			return err
		}
		return tx.SaveContract(ctx, c)
	})
	if err != nil {
		return nil, wrap(err, "failed to save contract")
	}

	s.logHeuristicPackaging(c)
	s.publish(events.ContractSaved, c.Company, c.ID, c)
	return c, nil
}

// GetContract retrieves a contract by ID, returning an error if not found.
func (s *ExportService) GetContract(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	c, err := s.repo.GetContract(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to get contract")
	}
	return c, nil
}

func (s *ExportService) ListContracts(ctx context.Context, company models.Company) ([]models.Contract, error) {
	if !company.Valid() {
		return nil, fmt.Errorf("%w: unknown company %q", e.ErrInvalidInput, company)
	}
	contracts, err := s.repo.ListContracts(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return contracts, nil
}

// DeleteContract removes a contract with its partidas and fires a deletion
// event.
func (s *ExportService) DeleteContract(ctx context.Context, id uuid.UUID) error {
	var deleted *models.Contract
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		c, err := tx.GetContract(ctx, id)
		if err != nil {
			return err
		}
		deleted = c
		return tx.DeleteContract(ctx, id)
	})
	if err != nil {
		return wrap(err, "failed to delete contract")
	}

	s.publish(events.ContractDeleted, deleted.Company, deleted.ID, nil)
	return nil
}

// ValidateLotNumber checks lot against the lots already stored for company
// and harvestYear, skipping excludeLotID.
func (s *ExportService) ValidateLotNumber(
	ctx context.Context,
	company models.Company,
	harvestYear string,
	lot string,
	excludeLotID uuid.UUID,
) error {
	contracts, err := s.ListContracts(ctx, company)
	if err != nil {
		return err
	}
	return engine.ValidateLotNumber(lot, company, harvestYear, contracts, excludeLotID)
}

// PackagingSummary reconciles the packaging of every lot of a contract.
func (s *ExportService) PackagingSummary(ctx context.Context, contractID uuid.UUID) (engine.PackagingSummary, error) {
	c, err := s.GetContract(ctx, contractID)
	if err != nil {
		return engine.PackagingSummary{}, err
	}
	s.logHeuristicPackaging(c)
	return engine.SummarizeContract(c), nil
}

// PackagingSummaries reconciles every contract of company.
func (s *ExportService) PackagingSummaries(ctx context.Context, company models.Company) ([]engine.PackagingSummary, error) {
	contracts, err := s.ListContracts(ctx, company)
	if err != nil {
		return nil, err
	}
	summaries := make([]engine.PackagingSummary, 0, len(contracts))
	for i := range contracts {
		summaries = append(summaries, engine.SummarizeContract(&contracts[i]))
	}
	return summaries, nil
}

// Alerts computes the alerts of company as of today.
func (s *ExportService) Alerts(ctx context.Context, company models.Company, today time.Time) ([]engine.Alert, error) {
	contracts, err := s.ListContracts(ctx, company)
	if err != nil {
		return nil, err
	}
	return engine.ComputeAlerts(contracts, company, today), nil
}

func (s *ExportService) logHeuristicPackaging(c *models.Contract) {
	for i := range c.Partidas {
		p := &c.Partidas[i]
		if engine.Reconcile(p).Source != engine.SourceHeuristic {
			continue
		}
		s.logger.Warn("Packaging inferred from package type label",
			zap.String("contract_id", c.ID.String()),
			zap.String("lot_number", p.LotNumber),
			zap.String("package_type", p.PackageType),
		)
	}
}

// wrap adds context to storage failures. Domain errors are returned as they
// are so callers can match them.
func wrap(err error, msg string) error {
	for _, target := range []error{
		e.ErrNotFound,
		e.ErrInvalidInput,
		e.ErrDuplicateLotNumber,
		e.ErrMissingScope,
		e.ErrImmutableField,
		e.ErrInvalidPermission,
	} {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
