// Package flights persists judging flights.
package flights

import (
	"context"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, f *models.Flight) (*models.Flight, error)
	GetByID(ctx context.Context, id string) (*models.Flight, error)
	GetByName(ctx context.Context, name string) (*models.Flight, error)
	List(ctx context.Context) ([]*models.Flight, error)
	Rename(ctx context.Context, id, name string) error
	MarkSubmitted(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
