package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/cleantrack/cleantrack-api/internal/api/http/handlers"
	"github.com/cleantrack/cleantrack-api/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Student        *handlers.StudentHandler
	Tickets        *handlers.TicketsHandler
	Caretaker      *handlers.CaretakerHandler
	AuthMiddleware *auth.AuthMiddleware
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// UploadDir and UploadPrefix serve stored photos when both are set.
	UploadDir    string
	UploadPrefix string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}
	if cfg.UploadDir != "" && cfg.UploadPrefix != "" {
		app.Static(cfg.UploadPrefix, cfg.UploadDir)
	}

	api := app.Group("/api")
	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAnyRole()}

	authGroup := api.Group("/auth")
	authGroup.Post("/signup/student", cfg.Auth.SignupStudent)
	authGroup.Post("/signup/caretaker", cfg.Auth.SignupCaretaker)
	authGroup.Post("/verify/student", cfg.Auth.VerifyStudent)
	authGroup.Post("/verify/caretaker", cfg.Auth.VerifyCaretaker)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", with(authenticated, cfg.Auth.Me)...)
	authGroup.Get("/verify", with(authenticated, cfg.Auth.CheckToken)...)

	// Role checks for mark-clean and rate live in the services so the
	// student-facing messages survive.
	student := api.Group("/student", authenticated...)
	student.Get("/dashboard-student", cfg.Student.Dashboard)
	student.Post("/mark-clean", cfg.Student.MarkClean)
	student.Post("/rate", cfg.Student.Rate)
	student.Get("/staff-ratings", cfg.Student.StaffRatings)
	student.Get("/announcements", cfg.Student.Announcements)

	tickets := api.Group("/tickets")
	tickets.Post("/create", with(authenticated, cfg.Tickets.CreateTicket)...)
	tickets.Get("/student/:email", cfg.Tickets.ListForStudent)

	staffOnly := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireStaff()}
	caretaker := api.Group("/caretaker")
	caretaker.Get("/announcements", with(authenticated, cfg.Caretaker.ListAnnouncements)...)
	caretaker.Get("/tickets", with(staffOnly, cfg.Caretaker.ListTickets)...)
	caretaker.Get("/tickets/export", with(staffOnly, cfg.Caretaker.ExportTickets)...)
	caretaker.Put("/tickets/:id/status", with(staffOnly, cfg.Caretaker.UpdateStatus)...)
	caretaker.Get("/staff-ratings", with(staffOnly, cfg.Caretaker.StaffRatings)...)
	caretaker.Post("/announcements", with(staffOnly, cfg.Caretaker.CreateAnnouncement)...)
	caretaker.Get("/dashboard", with(staffOnly, cfg.Caretaker.Dashboard)...)
}

func with(chain []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, handler)
}
