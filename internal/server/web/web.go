// Package web is the HTTP surface of the scoresheets server: server-rendered
// pages for accounts and JSON endpoints for the profile, scoresheet and
// flight flows.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/classify"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/config"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Users interface {
	Register(ctx context.Context, form models.RegistrationForm) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	CountUsers(ctx context.Context) (int, error)
	VerifyEmail(ctx context.Context, code string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, code, password, confirm string) error
}

type Profiles interface {
	UpdateEmail(ctx context.Context, userID, oldEmail, newEmail string) error
	UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	SaveProfile(ctx context.Context, userID string, form models.ProfileForm) (*models.User, error)
}

type Flights interface {
	Add(ctx context.Context, userID, name string) (*models.Flight, error)
	Edit(ctx context.Context, actor *models.User, flightID, name string) (*models.Flight, error)
	Submit(ctx context.Context, userID, flightID string) (*models.Flight, error)
	GetByName(ctx context.Context, name string) (*models.Flight, error)
	GetByID(ctx context.Context, id string) (*models.Flight, error)
	List(ctx context.Context) ([]*models.Flight, error)
	Delete(ctx context.Context, actor *models.User, flightID string) error
}

type Scoresheets interface {
	List(ctx context.Context, judgeID string) ([]*models.Scoresheet, error)
	Get(ctx context.Context, judgeID, id string) (*models.Scoresheet, error)
	Create(ctx context.Context, judgeID, flightID, entryNumber, category, subcategory string) (*models.Scoresheet, error)
	UpdateField(ctx context.Context, judgeID, id, field, raw string) error
	Check(ctx context.Context, judgeID, id string) ([]string, error)
	Validate(ctx context.Context, judgeID, id string) (*models.Scoresheet, error)
	PDFURL(ctx context.Context, judgeID, id string) (string, error)
}

type Readiness interface {
	Ready(ctx context.Context) error
	Report(ctx context.Context) map[string]string
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Config      *config.Config
	Logger      logging.Logger
	Classifier  *classify.Classifier
	Sessions    session.Store
	Users       Users
	Profiles    Profiles
	Flights     Flights
	Scoresheets Scoresheets
	Health      Readiness
}

type Handler struct {
	cfg         *config.Config
	logger      logging.Logger
	classifier  *classify.Classifier
	sessions    session.Store
	users       Users
	profiles    Profiles
	flights     Flights
	scoresheets Scoresheets
	health      Readiness
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		cfg:         d.Config,
		logger:      d.Logger.With("module", "web"),
		classifier:  d.Classifier,
		sessions:    d.Sessions,
		users:       d.Users,
		profiles:    d.Profiles,
		flights:     d.Flights,
		scoresheets: d.Scoresheets,
		health:      d.Health,
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler) *gin.Engine {
	if h.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     h.cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Cookie"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", h.Live)
	r.GET("/ready", h.Ready)

	r.Use(h.loadSession())

	r.GET("/", h.Home)
	r.GET("/register", h.RegisterPage)
	r.POST("/register", h.Register)
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)

	r.GET("/validate/", h.ValidateEmail)
	r.GET("/resetpassword/", h.ResetPasswordPage)
	r.POST("/resetpassword/request", h.RequestPasswordReset)
	r.POST("/resetpassword", h.ResetPassword)

	authed := r.Group("", h.RequireSession())
	{
		authed.GET("/profile/edit", h.ProfilePage)
		authed.POST("/profile/edit", h.SaveProfile)
		authed.POST("/profile/email", h.UpdateEmail)
		authed.POST("/profile/password", h.UpdatePassword)

		authed.GET("/scoresheet/load", h.ListScoresheets)
		authed.GET("/scoresheet/edit/", h.GetScoresheet)
		authed.POST("/scoresheet/edit/", h.CreateScoresheet)
		authed.POST("/scoresheet/update/", h.UpdateScoresheet)
		authed.GET("/scoresheet/pdf/:scoresheetId", h.ScoresheetPDF)
		authed.POST("/scoresheet/check", h.CheckScoresheet)
		authed.POST("/scoresheet/validate", h.ValidateScoresheet)

		authed.POST("/flight/add", h.AddFlight)
		authed.POST("/flight/submit", h.SubmitFlight)
		authed.POST("/flight/getByName", h.GetFlightByName)
		authed.POST("/flight/getById", h.GetFlightByID)
	}

	admin := authed.Group("", h.RequireAdmin())
	{
		admin.GET("/admin", h.AdminPage)
		admin.POST("/flight/edit", h.EditFlight)
		admin.POST("/flight/delete", h.DeleteFlight)
	}

	return r
}
