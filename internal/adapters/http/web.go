package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"orchestra/internal/adapters/http/middleware"
	"orchestra/internal/adapters/http/perf"
	"orchestra/internal/adapters/identity"
	instrumentStore "orchestra/internal/adapters/storage/instrument"
	memberStore "orchestra/internal/adapters/storage/member"
	scheduleStore "orchestra/internal/adapters/storage/schedule"
	"orchestra/internal/application/orchestrators"
	"orchestra/internal/config"
	"orchestra/internal/domain/interaction"
	memberDomain "orchestra/internal/domain/member"
)

// Stores holds all storage dependencies.
type Stores struct {
	MemberStore     memberStore.Store
	InstrumentStore instrumentStore.Store
	ScheduleStore   scheduleStore.Store
	Ping            func(ctx context.Context) error // nil skips the database check in /healthz
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// gestureConfig tunes the pointer machine behind /api/schedules/me/gesture.
var gestureConfig = interaction.DefaultConfig()

// location is the orchestra's civil timezone; "today" is computed in it.
var location = time.UTC

// now returns the current instant in the orchestra's timezone.
func now() time.Time {
	return timeNow().In(location)
}

// ensureProfile resolves a verified principal to their member record,
// creating it on first sign-in.
func ensureProfile(ctx context.Context, p identity.Principal) (memberDomain.Member, error) {
	return orchestrators.ExecuteEnsureProfile(ctx, orchestrators.EnsureProfileInput{
		UID:         p.UID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
	}, profileDeps())
}

// NewMux wires HTTP handlers for the app.
// PRE: cfg has been validated; s and verifier are non-nil
// POST: every route in registerRoutes is reachable through the middleware chain
func NewMux(cfg *config.Config, s *Stores, collector *perf.Collector, verifier identity.Verifier) (http.Handler, error) {
	stores = s
	perfCollector = collector
	location = cfg.Location()
	gestureConfig = interaction.Config{
		DragThreshold:   cfg.Calendar.DragThreshold,
		DuplicateWindow: cfg.Calendar.DuplicateWindow,
	}
	resetNoticeGates()

	csrfKey, generated, err := cfg.CSRFSecret()
	if err != nil {
		return nil, err
	}
	if generated {
		zap.L().Warn("using random CSRF key (sessions won't survive restart); set ORCHESTRA_CSRF_KEY for production")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Interval)

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		middleware.Timing(collector, cfg.SlowRequestMs),
		chimw.Recoverer,
		middleware.RateLimit(limiter),
		middleware.Auth(verifier, ensureProfile),
		middleware.CSRF(csrfKey, cfg.IsProduction()),
		middleware.SecurityHeaders,
	)
	registerRoutes(r)
	return r, nil
}

// registerRoutes mounts the API.
func registerRoutes(r chi.Router) {
	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", perfCollector.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/me", handleMe)
		r.Post("/me/profile", handleSetupProfile)

		r.Get("/dashboard", handleDashboard)
		r.Get("/calendar/{year}/{month}", handleCalendar)
		r.Get("/attendance/{date}", handleAttendance)
		r.Get("/instruments", handleInstruments)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(memberDomain.RoleAdmin, memberDomain.RoleSuperAdmin))
			r.Get("/members", handleListMembers)
			r.Post("/members", handleCreateMember)
			r.Put("/members", handleUpdateMember)
			r.Delete("/members", handleArchiveMember)
			r.Get("/members/export.xlsx", handleExportMembers)
			r.Post("/members/import", handleImportMembers)
		})

		r.Get("/users", handleListUsers)
		r.Post("/users", handleUpdateUser)
		r.Put("/users", handleUpdateUser)
		r.With(middleware.RequireRole(memberDomain.RoleSuperAdmin)).Patch("/users", handleChangeRole)

		r.Get("/schedules", handleListSchedules)
		r.Post("/schedules", handleSaveSchedules)
		r.Put("/schedules", handleSaveSchedules)
		r.Get("/schedules/me", handleMySchedule)
		r.Post("/schedules/me/edits", handleScheduleEdits)
		r.Post("/schedules/me/gesture", handleScheduleGesture)
		r.Get("/schedules/{memberId}/calendar.ics", handleScheduleICS)
	})
}
