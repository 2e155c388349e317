package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/attendly/attendance-backend/internal/actions"
	"github.com/attendly/attendance-backend/internal/attendance/events"
	attrepo "github.com/attendly/attendance-backend/internal/attendance/repository"
	attsvc "github.com/attendly/attendance-backend/internal/attendance/service"
	"github.com/attendly/attendance-backend/internal/audit"
	"github.com/attendly/attendance-backend/internal/directory"
	payrollrepo "github.com/attendly/attendance-backend/internal/payroll/repository"
	paysvc "github.com/attendly/attendance-backend/internal/payroll/service"
	"github.com/attendly/attendance-backend/pkg/clock"
	"github.com/attendly/attendance-backend/pkg/config"
	"github.com/attendly/attendance-backend/pkg/database"
	"github.com/attendly/attendance-backend/pkg/httputil"
	"github.com/attendly/attendance-backend/pkg/logger"
	"github.com/attendly/attendance-backend/pkg/messaging"
	"github.com/attendly/attendance-backend/pkg/signature"
)

const serviceName = "attendance-service"

func main() {
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)

	officeClock, err := clock.NewOffice(cfg.Office.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid office timezone")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// the broker is best-effort; the service runs without it
	var broker events.Broker
	rabbit, err := messaging.NewRabbitMQ(&cfg.RabbitMQ, log)
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, domain events disabled")
	} else {
		defer rabbit.Close()
		publisher, err := messaging.NewPublisher(rabbit, messaging.ExchangeAttendanceEvents, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up publisher, domain events disabled")
		} else {
			broker = publisher
		}
	}
	domainEvents := events.NewPublisher(broker, log)

	employeeRepo := attrepo.NewEmployeeRepository(db)
	attendanceRepo := attrepo.NewAttendanceRepository(db)
	modificationRepo := attrepo.NewModificationRepository(db)
	holidayRepo := attrepo.NewHolidayRepository(db)
	leaveRepo := attrepo.NewLeaveRepository(db)
	officeRepo := attrepo.NewOfficeLocationRepository(db)
	payrollRepo := payrollrepo.NewPayrollRepository(db)

	auditor := audit.NewWriter(audit.NewRepository(db), log)

	directoryClient := directory.NewClient(&cfg.Directory)
	gate := directory.NewGate(directoryClient, cfg.Directory.AdminTeamID, log)

	reportCache := paysvc.NewReportCache(paysvc.DefaultReportTTL)

	attendanceService := attsvc.New(attsvc.Config{
		Employees:     employeeRepo,
		Attendance:    attendanceRepo,
		Modifications: modificationRepo,
		Holidays:      holidayRepo,
		Offices:       officeRepo,
		Payroll:       payrollRepo,
		Directory:     directoryClient,
		Clock:         officeClock,
		Verify:        signature.Verify,
		Auditor:       auditor,
		Events:        domainEvents,
		Cache:         reportCache,
		DefaultRadius: cfg.Office.DefaultRadiusMeters,
		Logger:        log,
	})

	payrollService := paysvc.New(paysvc.Config{
		Employees:  employeeRepo,
		Attendance: attendanceRepo,
		Holidays:   holidayRepo,
		Leaves:     leaveRepo,
		Payroll:    payrollRepo,
		Clock:      officeClock,
		Auditor:    auditor,
		Events:     domainEvents,
		Cache:      reportCache,
		Logger:     log,
	})

	actionRouter := actions.NewRouter(attendanceService, payrollService, gate, log)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", httputil.CallerIDHeader},
		MaxAge:         300,
	}))
	r.Use(httputil.Identity(cfg.Identity.JWTSecret))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"service": serviceName, "database": "ok", "broker": "ok"}
		code := http.StatusOK

		if err := db.Health(r.Context()); err != nil {
			status["database"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		if rabbit == nil || rabbit.Health() != nil {
			status["broker"] = "unavailable"
		}

		httputil.JSON(w, code, status)
	})

	r.Post("/api/v1/actions", actionRouter.Handle)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting attendance service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
