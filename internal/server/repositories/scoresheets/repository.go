// Package scoresheets persists judges' scoresheets.
package scoresheets

import (
	"context"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Scoresheet) (*models.Scoresheet, error)
	GetByID(ctx context.Context, id string) (*models.Scoresheet, error)
	ListByJudge(ctx context.Context, judgeID string) ([]*models.Scoresheet, error)
	ListByFlight(ctx context.Context, flightID string) ([]*models.Scoresheet, error)
	// UpdateField sets one editable field, named as in the JSON form
	// (see Fields).
	UpdateField(ctx context.Context, id, field string, value any) error
	SetStatus(ctx context.Context, id string, status models.ScoresheetStatus) error
	CountByStatus(ctx context.Context, flightID string, status models.ScoresheetStatus) (int, error)
}

// Fields maps the editable form field names to their columns.
var Fields = map[string]string{
	"entryNumber":        "entry_number",
	"category":           "category",
	"subcategory":        "subcategory",
	"aroma":              "aroma",
	"appearance":         "appearance",
	"flavor":             "flavor",
	"mouthfeel":          "mouthfeel",
	"overall":            "overall",
	"aromaComments":      "aroma_comments",
	"appearanceComments": "appearance_comments",
	"flavorComments":     "flavor_comments",
	"mouthfeelComments":  "mouthfeel_comments",
	"overallComments":    "overall_comments",
}
