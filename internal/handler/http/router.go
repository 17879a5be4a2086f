package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/timekeep-hq/timekeep-backend-go/internal/handler/http/middleware"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/jwt"
)

func NewRouter(
	jwtService jwt.Service,
	authHandler AuthHandler,
	attendanceHandler AttendanceHandler,
	leaveHandler LeaveHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timekeep"),
		slog.String("version", "v1.0.0"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/check-in", attendanceHandler.CheckIn)
				r.Post("/check-out", attendanceHandler.CheckOut)
				r.Get("/sessions/me", attendanceHandler.GetMySessions)
				r.Get("/sessions/{id}", attendanceHandler.GetSession)
				r.Get("/sessions/{id}/edits", attendanceHandler.GetSessionEdits)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireHR)
					r.Get("/sessions", attendanceHandler.ListSessions)
					r.Post("/sessions/{id}/approve-overtime", attendanceHandler.ApproveOvertime)
					r.Post("/sessions/{id}/manual-checkout", attendanceHandler.ManualCheckout)
					r.Post("/sweep", attendanceHandler.Sweep)
				})
			})

			r.Route("/leave", func(r chi.Router) {
				r.Route("/requests", func(r chi.Router) {
					r.Post("/", leaveHandler.SubmitRequest)
					r.Get("/me", leaveHandler.ListMyRequests)
					r.Get("/{id}", leaveHandler.GetRequest)
					r.Post("/{id}/cancel", leaveHandler.CancelRequest)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireHR)
						r.Get("/", leaveHandler.ListRequests)
						r.Post("/{id}/approve", leaveHandler.ApproveRequest)
						r.Post("/{id}/reject", leaveHandler.RejectRequest)
						r.Post("/{id}/cancel-approved", leaveHandler.CancelApprovedRequest)
					})
				})

				r.Route("/quota", func(r chi.Router) {
					r.Get("/me", leaveHandler.GetMyQuota)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireHR)
						r.Get("/{userID}", leaveHandler.GetQuota)
						r.Put("/{userID}", leaveHandler.SetQuota)
						r.Get("/{userID}/history", leaveHandler.GetQuotaHistory)
					})
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/carry-over", leaveHandler.RunCarryOver)
				})
			})
		})
	})

	return r
}
