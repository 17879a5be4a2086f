package main

import (
	"fmt"
	"net/http"

	"github.com/timekeep-hq/timekeep-backend-go/internal/config"
	appHTTP "github.com/timekeep-hq/timekeep-backend-go/internal/handler/http"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/cron"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/jwt"
	"github.com/timekeep-hq/timekeep-backend-go/internal/repository/postgresql"
	attendanceService "github.com/timekeep-hq/timekeep-backend-go/internal/service/attendance"
	authService "github.com/timekeep-hq/timekeep-backend-go/internal/service/auth"
	leaveService "github.com/timekeep-hq/timekeep-backend-go/internal/service/leave"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	userRepo := postgresql.NewUserRepository(db)
	siteRepo := postgresql.NewSiteRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	sessionRepo := postgresql.NewSessionRepository(db)
	quotaRepo := postgresql.NewQuotaRepository(db)
	requestRepo := postgresql.NewRequestRepository(db)
	carryOverRepo := postgresql.NewCarryOverRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)

	authSvc := authService.NewAuthService(userRepo, jwtService)
	sessionSvc := attendanceService.NewSessionService(db, sessionRepo, siteRepo, holidayRepo, userRepo, cfg.Sweep.StaleAfter)
	quotaSvc := leaveService.NewQuotaService(db, quotaRepo)
	requestSvc := leaveService.NewRequestService(db, requestRepo, quotaRepo, quotaSvc)
	carryOverSvc := leaveService.NewCarryOverService(db, quotaRepo, carryOverRepo, userRepo)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(sessionSvc, cfg.Sweep.Interval).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	authHandler := appHTTP.NewAuthHandler(authSvc)
	attendanceHandler := appHTTP.NewAttendanceHandler(sessionSvc)
	leaveHandler := appHTTP.NewLeaveHandler(quotaSvc, requestSvc, carryOverSvc)

	router := appHTTP.NewRouter(jwtService, authHandler, attendanceHandler, leaveHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
