package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/dbx"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/repomanager"
)

const maxFlightNameLength = 64

// FlightService manages judging flights. Renaming and deleting are admin
// operations; submitting is reserved for the judge who created the flight.
type FlightService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewFlightService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *FlightService {
	return &FlightService{db: db, repomanager: m, logger: l.With("module", "flight_service")}
}

func cleanFlightName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxFlightNameLength {
		return "", common.ErrInvalidField
	}
	return name, nil
}

func (s *FlightService) Add(ctx context.Context, userID, name string) (*models.Flight, error) {
	name, err := cleanFlightName(name)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Flights(s.db).Create(ctx, &models.Flight{Name: name, CreatedBy: userID})
}

func (s *FlightService) Edit(ctx context.Context, actor *models.User, flightID, name string) (*models.Flight, error) {
	if !actor.IsAdmin {
		return nil, common.ErrForbidden
	}
	name, err := cleanFlightName(name)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Flights(s.db)
	if err := repo.Rename(ctx, flightID, name); err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, flightID)
}

// Submit closes the flight. Every scoresheet in it must be validated.
func (s *FlightService) Submit(ctx context.Context, userID, flightID string) (*models.Flight, error) {
	var flight *models.Flight

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		flights := s.repomanager.Flights(tx)

		f, err := flights.GetByID(ctx, flightID)
		if err != nil {
			return err
		}
		if f.CreatedBy != userID {
			return common.ErrForbidden
		}
		if f.Submitted {
			return common.ErrFlightSubmitted
		}

		drafts, err := s.repomanager.Scoresheets(tx).CountByStatus(ctx, flightID, models.ScoresheetDraft)
		if err != nil {
			return err
		}
		if drafts > 0 {
			return common.ErrFlightIncomplete
		}

		if err := flights.MarkSubmitted(ctx, flightID); err != nil {
			return err
		}
		flight, err = flights.GetByID(ctx, flightID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "flight submitted", "flight_id", flightID, "user_id", userID)
	return flight, nil
}

func (s *FlightService) GetByName(ctx context.Context, name string) (*models.Flight, error) {
	return s.repomanager.Flights(s.db).GetByName(ctx, strings.TrimSpace(name))
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*models.Flight, error) {
	return s.repomanager.Flights(s.db).GetByID(ctx, id)
}

func (s *FlightService) List(ctx context.Context) ([]*models.Flight, error) {
	return s.repomanager.Flights(s.db).List(ctx)
}

// Delete removes a flight together with its scoresheets.
func (s *FlightService) Delete(ctx context.Context, actor *models.User, flightID string) error {
	if !actor.IsAdmin {
		return common.ErrForbidden
	}
	if err := s.repomanager.Flights(s.db).Delete(ctx, flightID); err != nil {
		return err
	}
	s.logger.Info(ctx, "flight deleted", "flight_id", flightID, "user_id", actor.ID)
	return nil
}
