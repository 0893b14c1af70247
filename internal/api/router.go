/**
 * @description
 * This file sets up the HTTP router using the `chi` routing library. It
 * defines all the API routes and applies necessary middleware.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: The routing library.
 * - github.com/go-chi/cors: CORS middleware for browser clients.
 * - github.com/prometheus/client_golang: The /metrics endpoint.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/config"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/metrics"
)

// NewRouter creates and configures a new HTTP router.
func NewRouter(cfg config.Config, handler *Handler, resolver SessionResolver, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	if m != nil {
		r.Use(metrics.Middleware(m))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Group routes that require authentication
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret, resolver))

		r.Get("/tenant", handler.handleGetTenant)

		r.Route("/members", func(r chi.Router) {
			r.Post("/", handler.handleCreateMember)
			r.Get("/", handler.handleListMembers)
			r.Get("/{id}", handler.handleGetMember)
			r.Put("/{id}", handler.handleUpdateMember)
			r.Delete("/{id}", handler.handleDeleteMember)
		})

		r.Route("/books", func(r chi.Router) {
			r.Post("/", handler.handleCreateBook)
			r.Get("/", handler.handleListBooks)
			r.Get("/{id}", handler.handleGetBook)
			r.Put("/{id}", handler.handleUpdateBook)
			r.Delete("/{id}", handler.handleDeleteBook)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", handler.handleCreateReservation)
			r.Get("/", handler.handleListReservations)
			r.Post("/{id}/cancel", handler.handleCancelReservation)
			r.Post("/{id}/convert", handler.handleConvertReservation)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Post("/", handler.handleCreateLoan)
			r.Get("/", handler.handleListLoans)
			r.Post("/{id}/return", handler.handleReturnLoan)
			r.Delete("/{id}", handler.handleCancelLoan)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", handler.handleCreateEvent)
			r.Get("/", handler.handleListEvents)
			r.Get("/{id}", handler.handleGetEvent)
			r.Put("/{id}", handler.handleUpdateEvent)
			r.Delete("/{id}", handler.handleDeleteEvent)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Post("/", handler.handleCreateCourse)
			r.Get("/", handler.handleListCourses)
			r.Get("/{id}", handler.handleGetCourse)
			r.Put("/{id}", handler.handleUpdateCourse)
			r.Delete("/{id}", handler.handleDeleteCourse)
			r.Post("/{id}/enrollments", handler.handleEnrollMember)
			r.Get("/{id}/enrollments", handler.handleListEnrollments)
			r.Delete("/{id}/enrollments/{enrollmentID}", handler.handleDropEnrollment)
		})

		r.Route("/sunday-school/classes", func(r chi.Router) {
			r.Post("/", handler.handleCreateClass)
			r.Get("/", handler.handleListClasses)
			r.Put("/{id}", handler.handleUpdateClass)
			r.Delete("/{id}", handler.handleDeleteClass)
			r.Post("/{id}/lessons", handler.handleCreateLesson)
			r.Get("/{id}/lessons", handler.handleListLessons)
		})

		r.Route("/sunday-school/lessons/{lessonID}/attendance", func(r chi.Router) {
			r.Post("/", handler.handleRecordAttendance)
			r.Get("/", handler.handleListAttendance)
		})

		r.Route("/pastoral", func(r chi.Router) {
			r.Route("/schedules", func(r chi.Router) {
				r.Post("/", handler.handleCreateSchedule)
				r.Get("/", handler.handleListSchedules)
				r.Delete("/{id}", handler.handleDeleteSchedule)
			})
			r.Route("/appointments", func(r chi.Router) {
				r.Post("/", handler.handleRequestAppointment)
				r.Get("/", handler.handleListAppointments)
				r.Get("/{id}", handler.handleGetAppointment)
				r.Post("/{id}/confirm", handler.handleConfirmAppointment)
				r.Post("/{id}/complete", handler.handleCompleteAppointment)
				r.Post("/{id}/cancel", handler.handleCancelAppointment)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/users", handler.handleCreateUser)
		})
	})

	return r
}
