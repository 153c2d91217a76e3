package api

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/spf13/viper"
	"github.com/uptrace/bun"

	bookingAPI "github.com/kairoscal/server/api/booking"
	calendarAPI "github.com/kairoscal/server/api/calendar"
	"github.com/kairoscal/server/database"
	customMiddleware "github.com/kairoscal/server/middleware"
	calendarModel "github.com/kairoscal/server/models/calendar"
	bookingModel "github.com/kairoscal/server/models/booking"
	scheduleModel "github.com/kairoscal/server/models/schedule"
	bookingSvc "github.com/kairoscal/server/services/booking"
	calendarSvc "github.com/kairoscal/server/services/calendar"
)

// API represents the API structure
type API struct {
	Router chi.Router

	db *bun.DB

	Calendar *calendarAPI.Resource
	Booking  *bookingAPI.Resource
}

// New creates a new API instance, wiring the calendar and booking resources
// directly on top of their model-layer repositories.
func New(logger *slog.Logger, enableCORS bool) (*API, error) {
	db, err := database.DBConn()
	if err != nil {
		return nil, err
	}

	events := calendarModel.NewEventRepository(db)
	calendars := calendarModel.NewCalendarRepository(db)
	users := calendarModel.NewUserRepository(db)
	schedules := scheduleModel.NewRepository(db)
	services := bookingModel.NewRepository(db)

	calendarCfg := calendarSvc.Config{
		MaxEventsReturnedBySearch:   viper.GetInt("max_events_returned_by_search"),
		InstancesQueryDurationLimit: time.Duration(viper.GetInt("event_instances_query_duration_limit_days")) * 24 * time.Hour,
	}
	bookingCfg := bookingSvc.Config{
		QueryDurationLimit: time.Duration(viper.GetInt("booking_slots_query_duration_limit_days")) * 24 * time.Hour,
	}

	calendarService := calendarSvc.NewService(events, calendars, users, calendarCfg, logger)
	bookingService := bookingSvc.NewService(services, events, calendars, schedules, bookingCfg, logger)

	api := &API{
		Router:   chi.NewRouter(),
		db:       db,
		Calendar: calendarAPI.NewResource(calendarService),
		Booking:  bookingAPI.NewResource(bookingService),
	}

	setupBasicMiddleware(api.Router)
	if enableCORS {
		setupCORS(api.Router)
	}
	securityLogger := setupSecurityLogging(api.Router)
	setupRateLimiting(api.Router, securityLogger)

	api.Router.Use(render.SetContentType(render.ContentTypeJSON))

	api.Router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	api.Calendar.Routes(api.Router)
	api.Booking.Routes(api.Router)

	return api, nil
}

// setupBasicMiddleware configures basic router middleware
func setupBasicMiddleware(router chi.Router) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(customMiddleware.SecurityHeaders)
}

// setupCORS configures CORS middleware with allowed origins from environment
func setupCORS(router chi.Router) {
	allowedOrigins := parseAllowedOrigins()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// parseAllowedOrigins parses CORS_ALLOWED_ORIGINS environment variable
func parseAllowedOrigins() []string {
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		return []string{"*"}
	}

	origins := strings.Split(originsEnv, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// setupSecurityLogging configures security logging middleware if enabled
func setupSecurityLogging(router chi.Router) *customMiddleware.SecurityLogger {
	if os.Getenv("SECURITY_LOGGING_ENABLED") != "true" {
		return nil
	}

	securityLogger := customMiddleware.NewSecurityLogger()
	router.Use(customMiddleware.SecurityLoggingMiddleware(securityLogger))
	return securityLogger
}

// setupRateLimiting configures rate limiting middleware if enabled
func setupRateLimiting(router chi.Router, securityLogger *customMiddleware.SecurityLogger) {
	if os.Getenv("RATE_LIMIT_ENABLED") != "true" {
		return
	}

	generalLimit := parsePositiveInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 60)
	generalBurst := parsePositiveInt("RATE_LIMIT_BURST", 10)

	generalRateLimiter := customMiddleware.NewRateLimiter(generalLimit, generalBurst)
	if securityLogger != nil {
		generalRateLimiter.SetLogger(securityLogger)
	}
	router.Use(generalRateLimiter.Middleware())
}

// parsePositiveInt parses a positive integer from environment variable with a default value
func parsePositiveInt(envVar string, defaultValue int) int {
	valueStr := os.Getenv(envVar)
	if valueStr == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(valueStr)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}

// ServeHTTP implements the http.Handler interface for the API
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Router.ServeHTTP(w, r)
}
