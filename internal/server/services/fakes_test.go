package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/cryptox"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/dbx"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/config"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/policy"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/flights"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/scoresheets"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.BcryptCost = 4
	return cfg
}

func testPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p, err := policy.FromConfig(testConfig())
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	return p
}

// --- users ---

type memUsers struct {
	mu     sync.Mutex
	byID   map[string]models.User
	seq    int
	writes int

	getErr error
}

func newMemUsers(seed ...models.User) *memUsers {
	m := &memUsers{byID: map[string]models.User{}}
	for _, u := range seed {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) get(id string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

func (m *memUsers) emailTaken(email, exceptID string) bool {
	for id, u := range m.byID {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(u.Email, "") {
		return nil, common.ErrUserExists
	}
	m.seq++
	out := *u
	out.ID = fmt.Sprintf("u%d", m.seq)
	m.byID[out.ID] = out
	m.writes++
	return &out, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) update(id string, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&u)
	m.byID[id] = u
	m.writes++
	return nil
}

func (m *memUsers) UpdateEmail(_ context.Context, id, email string) error {
	m.mu.Lock()
	taken := m.emailTaken(email, id)
	m.mu.Unlock()
	if taken {
		return common.ErrUserExists
	}
	return m.update(id, func(u *models.User) { u.Email = email; u.EmailVerified = false })
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return m.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (m *memUsers) UpdateProfile(_ context.Context, in *models.User) error {
	return m.update(in.ID, func(u *models.User) {
		u.Forename = in.Forename
		u.Surname = in.Surname
		u.BJCPID = in.BJCPID
		u.BJCPRank = in.BJCPRank
		u.CiceroneRank = in.CiceroneRank
		u.ProBrewerBrewery = in.ProBrewerBrewery
		u.IndustryDescription = in.IndustryDescription
		u.JudgingYears = in.JudgingYears
	})
}

func (m *memUsers) SetEmailVerified(_ context.Context, id string, v bool) error {
	return m.update(id, func(u *models.User) { u.EmailVerified = v })
}

func (m *memUsers) SetAdmin(_ context.Context, id string, v bool) error {
	return m.update(id, func(u *models.User) { u.IsAdmin = v })
}

func (m *memUsers) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

// --- flights ---

type memFlights struct {
	byID map[string]models.Flight
	seq  int
}

func newMemFlights(seed ...models.Flight) *memFlights {
	m := &memFlights{byID: map[string]models.Flight{}}
	for _, f := range seed {
		m.byID[f.ID] = f
	}
	return m
}

func (m *memFlights) Create(_ context.Context, f *models.Flight) (*models.Flight, error) {
	for _, x := range m.byID {
		if x.Name == f.Name {
			return nil, common.ErrFlightExists
		}
	}
	m.seq++
	out := *f
	out.ID = fmt.Sprintf("f%d", m.seq)
	m.byID[out.ID] = out
	return &out, nil
}

func (m *memFlights) GetByID(_ context.Context, id string) (*models.Flight, error) {
	f, ok := m.byID[id]
	if !ok {
		return nil, common.ErrFlightNotFound
	}
	return &f, nil
}

func (m *memFlights) GetByName(_ context.Context, name string) (*models.Flight, error) {
	for _, f := range m.byID {
		if f.Name == name {
			return &f, nil
		}
	}
	return nil, common.ErrFlightNotFound
}

func (m *memFlights) List(context.Context) ([]*models.Flight, error) {
	out := make([]*models.Flight, 0, len(m.byID))
	for _, f := range m.byID {
		f := f
		out = append(out, &f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memFlights) Rename(_ context.Context, id, name string) error {
	f, ok := m.byID[id]
	if !ok {
		return common.ErrFlightNotFound
	}
	f.Name = name
	m.byID[id] = f
	return nil
}

func (m *memFlights) MarkSubmitted(_ context.Context, id string) error {
	f, ok := m.byID[id]
	if !ok {
		return common.ErrFlightNotFound
	}
	f.Submitted = true
	m.byID[id] = f
	return nil
}

func (m *memFlights) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return common.ErrFlightNotFound
	}
	delete(m.byID, id)
	return nil
}

// --- scoresheets ---

type memSheets struct {
	byID    map[string]models.Scoresheet
	seq     int
	updates []string
}

func newMemSheets(seed ...models.Scoresheet) *memSheets {
	m := &memSheets{byID: map[string]models.Scoresheet{}}
	for _, s := range seed {
		m.byID[s.ID] = s
	}
	return m
}

func (m *memSheets) Create(_ context.Context, s *models.Scoresheet) (*models.Scoresheet, error) {
	m.seq++
	out := *s
	out.ID = fmt.Sprintf("s%d", m.seq)
	m.byID[out.ID] = out
	return &out, nil
}

func (m *memSheets) GetByID(_ context.Context, id string) (*models.Scoresheet, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, common.ErrScoresheetNotFound
	}
	return &s, nil
}

func (m *memSheets) list(keep func(models.Scoresheet) bool) []*models.Scoresheet {
	out := make([]*models.Scoresheet, 0)
	for _, s := range m.byID {
		if keep(s) {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memSheets) ListByJudge(_ context.Context, judgeID string) ([]*models.Scoresheet, error) {
	return m.list(func(s models.Scoresheet) bool { return s.JudgeID == judgeID }), nil
}

func (m *memSheets) ListByFlight(_ context.Context, flightID string) ([]*models.Scoresheet, error) {
	return m.list(func(s models.Scoresheet) bool { return s.FlightID == flightID }), nil
}

func (m *memSheets) UpdateField(_ context.Context, id, field string, value any) error {
	if _, ok := scoresheets.Fields[field]; !ok {
		return common.ErrInvalidField
	}
	if _, ok := m.byID[id]; !ok {
		return common.ErrScoresheetNotFound
	}
	m.updates = append(m.updates, fmt.Sprintf("%s=%v", field, value))
	return nil
}

func (m *memSheets) SetStatus(_ context.Context, id string, st models.ScoresheetStatus) error {
	s, ok := m.byID[id]
	if !ok {
		return common.ErrScoresheetNotFound
	}
	s.Status = st
	m.byID[id] = s
	return nil
}

func (m *memSheets) CountByStatus(_ context.Context, flightID string, st models.ScoresheetStatus) (int, error) {
	n := 0
	for _, s := range m.byID {
		if s.FlightID == flightID && s.Status == st {
			n++
		}
	}
	return n, nil
}

// --- manager ---

type fakeRepoManager struct {
	u *memUsers
	f *memFlights
	s *memSheets
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return m.u }
func (m *fakeRepoManager) Flights(dbx.DBTX) flights.Repository         { return m.f }
func (m *fakeRepoManager) Scoresheets(dbx.DBTX) scoresheets.Repository { return m.s }

// --- hasher / mailer ---

// spyHasher records calls and delegates to bcrypt at the lowest cost.
type spyHasher struct {
	inner    *cryptox.BcryptHasher
	hashes   int
	compares int
}

func newSpyHasher() *spyHasher {
	return &spyHasher{inner: cryptox.NewBcryptHasher(4)}
}

func (h *spyHasher) Hash(p string) (string, error) {
	h.hashes++
	return h.inner.Hash(p)
}

func (h *spyHasher) Compare(hash, p string) error {
	h.compares++
	return h.inner.Compare(hash, p)
}

func mustHash(t *testing.T, p string) string {
	t.Helper()
	h, err := cryptox.NewBcryptHasher(4).Hash(p)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return h
}

type sentMail struct {
	kind, to, code string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) SendUserVerificationEmail(_ context.Context, to, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{"verify", to, code})
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, to, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{"reset", to, code})
}

var nopLogger logging.Logger = logging.Nop{}
