package engine

import (
	"fmt"

	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/models"
)

// TaskTemplate is one entry of the shipment checklist.
type TaskTemplate struct {
	Key      string
	Name     string
	Priority models.TaskPriority
}

// ShipmentTaskTemplate is the fixed, ordered checklist of every shipment.
var ShipmentTaskTemplate = []TaskTemplate{
	{Key: "booking", Name: "Book vessel space", Priority: models.PriorityHigh},
	{Key: "packaging_purchase", Name: "Purchase packaging material", Priority: models.PriorityHigh},
	{Key: "marks_confirmation", Name: "Confirm shipping marks", Priority: models.PriorityMedium},
	{Key: "isf_filing", Name: "File ISF", Priority: models.PriorityMedium},
	{Key: "weight_certificate", Name: "Issue weight certificate", Priority: models.PriorityMedium},
	{Key: "quality_certificate", Name: "Issue quality certificate", Priority: models.PriorityMedium},
	{Key: "packing_list", Name: "Issue packing list", Priority: models.PriorityMedium},
	{Key: "porte", Name: "Issue waybill", Priority: models.PriorityMedium},
	{Key: "invoice", Name: "Issue invoice", Priority: models.PriorityHigh},
	{Key: "bill_of_lading", Name: "Obtain bill of lading", Priority: models.PriorityHigh},
	{Key: "payment_instruction", Name: "Send payment instruction", Priority: models.PriorityLow},
}

// NewTasks instantiates the checklist with every task pending.
func NewTasks() []models.Task {
	tasks := make([]models.Task, len(ShipmentTaskTemplate))
	for i, t := range ShipmentTaskTemplate {
		tasks[i] = models.Task{
			Key:      t.Key,
			Name:     t.Name,
			Position: i,
			Status:   models.TaskPending,
			Priority: t.Priority,
		}
	}
	return tasks
}

func findTask(tasks []models.Task, key string) (*models.Task, error) {
	for i := range tasks {
		if tasks[i].Key == key {
			return &tasks[i], nil
		}
	}
	return nil, fmt.Errorf("%w: unknown task %q", e.ErrInvalidInput, key)
}

// SetTaskStatus sets the status of task key. No transition is forbidden.
func SetTaskStatus(tasks []models.Task, key string, status models.TaskStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown task status %q", e.ErrInvalidInput, status)
	}
	t, err := findTask(tasks, key)
	if err != nil {
		return err
	}
	t.Status = status
	return nil
}

// SetTaskPriority sets the priority of task key.
func SetTaskPriority(tasks []models.Task, key string, priority models.TaskPriority) error {
	if !priority.Valid() {
		return fmt.Errorf("%w: unknown task priority %q", e.ErrInvalidInput, priority)
	}
	t, err := findTask(tasks, key)
	if err != nil {
		return err
	}
	t.Priority = priority
	return nil
}

// Progress counts finished (completed or skipped) tasks.
func Progress(tasks []models.Task) (done, total int) {
	for _, t := range tasks {
		if t.Status == models.TaskCompleted || t.Status == models.TaskSkipped {
			done++
		}
	}
	return done, len(tasks)
}
