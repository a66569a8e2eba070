package controller

import (
	"context"
	"fmt"

	"github.com/gartstein/cafexport/internal/export/db"
	"github.com/gartstein/cafexport/internal/export/engine"
	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/events"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateShipment groups partidas of one contract into a shipment with the
// standard task list, and issues its weight, quality and packing-list
// certificates in the same transaction.
func (s *ExportService) CreateShipment(ctx context.Context, contractID uuid.UUID, partidaIDs []uuid.UUID) (*models.Shipment, []models.Document, error) {
	if len(partidaIDs) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one partida required", e.ErrInvalidInput)
	}
	seen := make(map[uuid.UUID]bool, len(partidaIDs))
	for _, id := range partidaIDs {
		if seen[id] {
			return nil, nil, fmt.Errorf("%w: partida %s listed twice", e.ErrInvalidInput, id)
		}
		seen[id] = true
	}

	var (
		shipment *models.Shipment
		docs     []models.Document
	)
	err := s.inTransaction(ctx, "create_shipment", func(tx *db.Repository) error {
		c, err := tx.GetContract(ctx, contractID)
		if err != nil {
			return err
		}
		for _, id := range partidaIDs {
			if _, ok := c.Partida(id); !ok {
				return fmt.Errorf("%w: partida %s does not belong to contract %s", e.ErrInvalidInput, id, c.Number)
			}
		}

		shipment = &models.Shipment{
			ID:         uuid.New(),
			ContractID: c.ID,
			Company:    c.Company,
			PartidaIDs: partidaIDs,
			Tasks:      engine.NewTasks(),
		}

		existing, err := tx.ListDocuments(ctx, c.Company)
		if err != nil {
			return err
		}
		seq := engine.NewSequencer(existing)
		docs = docs[:0]
		for _, kind := range engine.CertificateKinds {
			req := engine.NumberRequest{Kind: kind, Company: c.Company}
			number, err := allocateNumber(ctx, tx, req, seq)
			if err != nil {
				return err
			}
			docs = append(docs, models.Document{
				ID:         uuid.New(),
				Kind:       kind,
				Company:    c.Company,
				IssueDate:  s.today(),
				Number:     number,
				ContractID: &c.ID,
				ShipmentID: &shipment.ID,
			})
		}

		shipment.DocumentIDs = make([]uuid.UUID, 0, len(docs))
		for i := range docs {
			shipment.DocumentIDs = append(shipment.DocumentIDs, docs[i].ID)
		}
		if err := tx.CreateShipment(ctx, shipment); err != nil {
			return err
		}
		for i := range docs {
			if err := tx.CreateDocument(ctx, &docs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, wrap(err, "failed to create shipment")
	}

	s.logger.Info("Shipment created",
		zap.String("shipment_id", shipment.ID.String()),
		zap.String("contract_id", contractID.String()),
		zap.Int("partidas", len(partidaIDs)),
	)
	s.publish(events.ShipmentCreated, shipment.Company, shipment.ID, shipment)
	return shipment, docs, nil
}

// UpdateTask changes the status and/or priority of one shipment task. Any
// status may follow any other.
func (s *ExportService) UpdateTask(
	ctx context.Context,
	shipmentID uuid.UUID,
	key string,
	status *models.TaskStatus,
	priority *models.TaskPriority,
) (*models.Shipment, error) {
	if status == nil && priority == nil {
		return nil, fmt.Errorf("%w: status or priority required", e.ErrInvalidInput)
	}

	var shipment *models.Shipment
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		sh, err := tx.GetShipment(ctx, shipmentID)
		if err != nil {
			return err
		}
		if status != nil {
			if err := engine.SetTaskStatus(sh.Tasks, key, *status); err != nil {
				return err
			}
		}
		if priority != nil {
			if err := engine.SetTaskPriority(sh.Tasks, key, *priority); err != nil {
				return err
			}
		}
		shipment = sh
		return tx.UpdateShipmentTasks(ctx, sh)
	})
	if err != nil {
		return nil, wrap(err, "failed to update task")
	}

	done, total := engine.Progress(shipment.Tasks)
	s.logger.Debug("Task updated",
		zap.String("shipment_id", shipmentID.String()),
		zap.String("task", key),
		zap.Int("done", done),
		zap.Int("total", total),
	)
	s.publish(events.TaskUpdated, shipment.Company, shipment.ID, shipment.Tasks)
	return shipment, nil
}

func (s *ExportService) GetShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	sh, err := s.repo.GetShipment(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to get shipment")
	}
	return sh, nil
}

// DeleteShipment removes a shipment and its tasks. Certificates issued for it
// are kept.
func (s *ExportService) DeleteShipment(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteShipment(ctx, id); err != nil {
		return wrap(err, "failed to delete shipment")
	}
	return nil
}
