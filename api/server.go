/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (httplog, ECS schema)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the review UI

ROUTE GROUPS:
  /api/attendance/*     Attendance records and per-record overtime
  /api/overtime/*       Report, batch processing, artifacts, edit cache
  /api/payroll/*        Salary slip consolidation
  /api/employees/*      Employees, their pay rates and overtime lines
  /api/shifts/*         Shift types and assignments
  /api/holidays/*       Holiday calendar
  /api/settings         HR settings
  /api/scenarios/*      Demo scenarios

  Overtime computation and processing answer 403 while tracking is disabled
  in the HR settings.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	AllowedOrigins []string
	Logger         *slog.Logger // request log; nil disables request logging
	LogLevel       slog.Level
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	if opts.Logger != nil {
		r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
			Level:  opts.LogLevel,
			Schema: httplog.SchemaECS,
		}))
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", UserHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		// Attendance routes
		r.Route("/attendance", func(r chi.Router) {
			r.Post("/", h.CreateAttendance)
			r.Get("/{id}", h.GetAttendance)
			r.With(h.requireTracking).Get("/{id}/overtime", h.GetOvertime)
			r.With(h.requireTracking).Get("/{id}/overtime/details", h.GetOvertimeDetails)
		})

		r.Route("/checkins", func(r chi.Router) {
			r.Post("/", h.CreateCheckin)
			r.Get("/{id}", h.GetCheckin)
		})

		// Overtime routes
		r.Route("/overtime", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.requireTracking)
				r.Get("/report", h.GetOvertimeReport)
				r.Post("/process", h.ProcessOvertime)
			})
			r.Get("/artifacts", h.ListArtifacts)
			r.Post("/artifacts/{id}/void", h.VoidArtifact)

			r.Route("/edits", func(r chi.Router) {
				r.Get("/", h.ListEdits)
				r.Post("/", h.SaveEdit)
				r.Delete("/", h.ClearEdits)
				r.Get("/info", h.GetEditsInfo)
				r.Post("/applied", h.MarkEditsApplied)
				r.Get("/{attendance}", h.GetEdit)
				r.Delete("/{attendance}", h.DeleteEdit)
			})
		})

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Post("/consolidate", h.ConsolidateSlip)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/attendance", h.GetEmployeeAttendance)
			r.Get("/{id}/pay-rate", h.GetPayRate)
			r.Get("/{id}/overtime-lines", h.GetOvertimeLines)
		})

		// Shift routes
		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.Post("/", h.CreateShift)
			r.Post("/assignments", h.CreateShiftAssignment)
			r.Get("/{id}", h.GetShift)
		})

		r.Post("/pay-rates", h.CreatePayRate)

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		r.Route("/salary-components", func(r chi.Router) {
			r.Get("/", h.ListComponents)
			r.Post("/", h.CreateComponent)
		})

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found", nil)
	})

	return r
}

// RequestLogger builds the request logger used by NewRouter: JSON with the
// ECS attribute names.
func RequestLogger(w io.Writer, level slog.Level, attrs ...any) *slog.Logger {
	format := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: format.ReplaceAttr,
	})).With(attrs...)
}
