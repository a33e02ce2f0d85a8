package services

import (
	"context"

	"gerritwatch/internal/models"
)

// FetcherInterface retrieves the change records of one category. count is a
// hint for how many records to request.
type FetcherInterface interface {
	Fetch(ctx context.Context, category string, count int) ([]models.ChangeRecord, error)
}

type NotifierInterface interface {
	Notify(ctx context.Context, n *models.Notification) error
}
