package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/scoresheets"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/storage"
)

// PDFLinker hands out download links for stored objects.
type PDFLinker interface {
	PresignedGetURL(ctx context.Context, key string) (string, error)
}

const maxCommentLength = 2000

// section describes one scored part of the BJCP scoresheet.
type section struct {
	name     string
	field    string
	max      int
	score    func(*models.Scoresheet) int
	comments func(*models.Scoresheet) string
}

var sections = []section{
	{"Aroma", "aroma", models.MaxAroma,
		func(s *models.Scoresheet) int { return s.Aroma }, func(s *models.Scoresheet) string { return s.AromaComments }},
	{"Appearance", "appearance", models.MaxAppearance,
		func(s *models.Scoresheet) int { return s.Appearance }, func(s *models.Scoresheet) string { return s.AppearanceComments }},
	{"Flavor", "flavor", models.MaxFlavor,
		func(s *models.Scoresheet) int { return s.Flavor }, func(s *models.Scoresheet) string { return s.FlavorComments }},
	{"Mouthfeel", "mouthfeel", models.MaxMouthfeel,
		func(s *models.Scoresheet) int { return s.Mouthfeel }, func(s *models.Scoresheet) string { return s.MouthfeelComments }},
	{"Overall impression", "overall", models.MaxOverall,
		func(s *models.Scoresheet) int { return s.Overall }, func(s *models.Scoresheet) string { return s.OverallComments }},
}

func scoreMax(field string) (int, bool) {
	for _, sec := range sections {
		if sec.field == field {
			return sec.max, true
		}
	}
	return 0, false
}

// ScoresheetService lets a judge fill in, check and validate their own
// scoresheets. Other judges' sheets are reported as not found.
type ScoresheetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	pdfs        PDFLinker
	logger      logging.Logger
}

func NewScoresheetService(db *sql.DB, m repomanager.RepositoryManager, pdfs PDFLinker, l logging.Logger) *ScoresheetService {
	return &ScoresheetService{db: db, repomanager: m, pdfs: pdfs, logger: l.With("module", "scoresheet_service")}
}

func (s *ScoresheetService) List(ctx context.Context, judgeID string) ([]*models.Scoresheet, error) {
	return s.repomanager.Scoresheets(s.db).ListByJudge(ctx, judgeID)
}

func (s *ScoresheetService) Get(ctx context.Context, judgeID, id string) (*models.Scoresheet, error) {
	sheet, err := s.repomanager.Scoresheets(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sheet.JudgeID != judgeID {
		return nil, common.ErrScoresheetNotFound
	}
	return sheet, nil
}

func (s *ScoresheetService) Create(ctx context.Context, judgeID, flightID, entryNumber, category, subcategory string) (*models.Scoresheet, error) {
	entryNumber = strings.TrimSpace(entryNumber)
	if entryNumber == "" {
		return nil, common.ErrInvalidField
	}

	flight, err := s.repomanager.Flights(s.db).GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	if flight.Submitted {
		return nil, common.ErrFlightSubmitted
	}

	return s.repomanager.Scoresheets(s.db).Create(ctx, &models.Scoresheet{
		JudgeID:     judgeID,
		FlightID:    flightID,
		EntryNumber: entryNumber,
		Category:    strings.TrimSpace(category),
		Subcategory: strings.TrimSpace(subcategory),
		Status:      models.ScoresheetDraft,
	})
}

// editable loads a sheet the judge may still change.
func (s *ScoresheetService) editable(ctx context.Context, judgeID, id string) (*models.Scoresheet, error) {
	sheet, err := s.Get(ctx, judgeID, id)
	if err != nil {
		return nil, err
	}
	if sheet.Status == models.ScoresheetValidated {
		return nil, common.ErrScoresheetLocked
	}
	flight, err := s.repomanager.Flights(s.db).GetByID(ctx, sheet.FlightID)
	if err != nil {
		return nil, err
	}
	if flight.Submitted {
		return nil, common.ErrScoresheetLocked
	}
	return sheet, nil
}

// UpdateField autosaves one form field. Scores are parsed and range checked;
// text is length checked.
func (s *ScoresheetService) UpdateField(ctx context.Context, judgeID, id, field, raw string) error {
	if _, ok := scoresheets.Fields[field]; !ok {
		return common.ErrInvalidField
	}
	if _, err := s.editable(ctx, judgeID, id); err != nil {
		return err
	}

	var value any = raw
	if max, ok := scoreMax(field); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 || n > max {
			return common.ErrInvalidField
		}
		value = n
	} else if utf8.RuneCountInString(raw) > maxCommentLength {
		return common.ErrInvalidField
	}

	return s.repomanager.Scoresheets(s.db).UpdateField(ctx, id, field, value)
}

// Check lists what still prevents the sheet from being validated.
func (s *ScoresheetService) Check(ctx context.Context, judgeID, id string) ([]string, error) {
	sheet, err := s.Get(ctx, judgeID, id)
	if err != nil {
		return nil, err
	}
	return problems(sheet), nil
}

func problems(sheet *models.Scoresheet) []string {
	out := make([]string, 0)
	if strings.TrimSpace(sheet.Category) == "" {
		out = append(out, "Category is required")
	}
	for _, sec := range sections {
		if v := sec.score(sheet); v < 0 || v > sec.max {
			out = append(out, fmt.Sprintf("%s score must be between 0 and %d", sec.name, sec.max))
		}
		if strings.TrimSpace(sec.comments(sheet)) == "" {
			out = append(out, sec.name+" comments are required")
		}
	}
	return out
}

// Validate locks a complete sheet. Incomplete sheets are rejected with
// common.ErrScoresheetIncomplete; Check explains why.
func (s *ScoresheetService) Validate(ctx context.Context, judgeID, id string) (*models.Scoresheet, error) {
	sheet, err := s.editable(ctx, judgeID, id)
	if err != nil {
		return nil, err
	}
	if len(problems(sheet)) > 0 {
		return nil, common.ErrScoresheetIncomplete
	}
	if err := s.repomanager.Scoresheets(s.db).SetStatus(ctx, id, models.ScoresheetValidated); err != nil {
		return nil, err
	}
	sheet.Status = models.ScoresheetValidated
	return sheet, nil
}

// PDFURL returns a download link for the sheet's rendered PDF.
func (s *ScoresheetService) PDFURL(ctx context.Context, judgeID, id string) (string, error) {
	sheet, err := s.Get(ctx, judgeID, id)
	if err != nil {
		return "", err
	}
	return s.pdfs.PresignedGetURL(ctx, storage.ScoresheetPDFKey(sheet.ID))
}
