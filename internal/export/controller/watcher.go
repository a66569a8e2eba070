package controller

import (
	"context"

	"github.com/gartstein/cafexport/internal/export/engine"
	"github.com/gartstein/cafexport/internal/export/events"
	"go.uber.org/zap"
)

type EventConsumer interface {
	RegisterHandler(eventType events.EventType, fn events.Handler)
}

// RegisterAlertWatcher recomputes the company's alerts whenever one of its
// contracts is saved.
func (s *ExportService) RegisterAlertWatcher(consumer EventConsumer) {
	consumer.RegisterHandler(events.ContractSaved, s.handleContractSaved)
}

func (s *ExportService) handleContractSaved(ctx context.Context, event events.Event) error {
	alerts, err := s.Alerts(ctx, event.Company, s.today())
	if err != nil {
		return err
	}

	byKind := make(map[engine.AlertKind]int)
	for _, a := range alerts {
		byKind[a.Kind]++
	}
	s.logger.Info("Alerts recomputed",
		zap.String("company", string(event.Company)),
		zap.String("contract_id", event.EntityID.String()),
		zap.Int("alerts", len(alerts)),
		zap.Int("cutoff", byKind[engine.AlertCutoff]),
		zap.Int("etd", byKind[engine.AlertETD]),
		zap.Int("packaging", byKind[engine.AlertPackaging]),
		zap.Int("marks", byKind[engine.AlertMarks]),
	)
	return nil
}
