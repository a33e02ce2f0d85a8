package interfaces

import (
	"context"

	"gerritwatch/internal/models"
)

type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	TriggerCycle(ctx context.Context) (*models.DeltaResult, error)
}
