package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chronoline/booking-api/internal/audit"
	"github.com/chronoline/booking-api/internal/authz"
	"github.com/chronoline/booking-api/internal/cache"
	"github.com/chronoline/booking-api/internal/conflict"
	"github.com/chronoline/booking-api/internal/config"
	"github.com/chronoline/booking-api/internal/handlers"
	infraRepo "github.com/chronoline/booking-api/internal/infra/repository"
	"github.com/chronoline/booking-api/internal/middleware"
	"github.com/chronoline/booking-api/internal/schedule"
	"github.com/chronoline/booking-api/internal/slots"
	ucBooking "github.com/chronoline/booking-api/internal/usecase/booking"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware())

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	bookingRepo := infraRepo.NewBookingGormRepository(db)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger)

	slotCache := cache.New(cfg.RedisURL)

	proposals := ucBooking.NewProposalStore(
		time.Duration(cfg.ProposalTTLMinutes) * time.Minute,
	)

	// ======================================================
	// ENGINE — SCHEDULES, SLOTS, CONFLICTS
	// ======================================================
	scheduleResolver := schedule.NewResolver(bookingRepo)
	slotGenerator := slots.NewGenerator(scheduleResolver, bookingRepo, cfg.MaxSlotRangeDays)
	conflictDetector := conflict.NewDetector(bookingRepo)

	authorizer := authz.NewRoleAuthorizer(db)

	// ======================================================
	// USE CASES — BOOKINGS
	// ======================================================
	admissionUC := ucBooking.NewAdmission(
		bookingRepo,
		conflictDetector,
		authorizer,
		proposals,
		auditDispatcher,
		slotCache,
	)

	transitionsUC := ucBooking.NewTransitions(
		bookingRepo,
		auditDispatcher,
		slotCache,
	)

	listBookingsUC := ucBooking.NewListBookings(bookingRepo)

	availabilityUC := ucBooking.NewGetAvailability(
		bookingRepo,
		slotGenerator,
		slotCache,
	)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	merchantHandler := handlers.NewMerchantHandler(db)
	serviceHandler := handlers.NewServiceHandler(db)
	scheduleHandler := handlers.NewScheduleHandler(db, slotCache)

	bookingHandler := handlers.NewBookingHandler(
		db,
		admissionUC,
		transitionsUC,
		listBookingsUC,
		availabilityUC,
	)

	publicHandler := handlers.NewPublicHandler(db, admissionUC, availabilityUC)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC BOOKING PAGE
		// ------------------------------
		publicAPI := api.Group("/public")
		{
			publicAPI.GET("/:slug/services", publicHandler.ListServices)
			publicAPI.GET("/:slug/staff", publicHandler.ListStaff)
			publicAPI.GET("/:slug/availability", publicHandler.Availability)

			publicAPI.POST("/:slug/bookings/proposals", publicHandler.Propose)
			publicAPI.POST("/:slug/bookings/proposals/:id/confirm", publicHandler.Confirm)
			publicAPI.DELETE("/:slug/bookings/proposals/:id", publicHandler.Abandon)
		}

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// PRIVATE API
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me/merchant", merchantHandler.Get)

			managers := secured.Group("/")
			managers.Use(middleware.RequireRole("owner", "manager"))
			{
				managers.PATCH("/me/merchant", merchantHandler.Update)

				managers.POST("/me/services", serviceHandler.Create)
				managers.PATCH("/me/services/:id", serviceHandler.Update)
				managers.DELETE("/me/services/:id", serviceHandler.Deactivate)

				managers.GET("/me/audit-logs", auditLogsHandler.List)
				managers.GET("/me/audit-logs/overrides", auditLogsHandler.ListOverrides)
			}

			secured.GET("/me/services", serviceHandler.List)

			// ------------------------------
			// WORKING HOURS
			// ------------------------------
			secured.GET("/me/staff/:staffId/schedule", scheduleHandler.GetWeekly)
			secured.PUT("/me/staff/:staffId/schedule", scheduleHandler.PutWeekly)
			secured.GET("/me/staff/:staffId/overrides", scheduleHandler.ListOverrides)
			secured.PUT("/me/staff/:staffId/overrides", scheduleHandler.PutOverride)
			secured.DELETE("/me/staff/:staffId/overrides/:date", scheduleHandler.DeleteOverride)

			// ------------------------------
			// BOOKINGS
			// ------------------------------
			secured.GET("/me/availability", bookingHandler.Availability)

			secured.POST("/me/bookings/proposals", bookingHandler.Propose)
			secured.POST("/me/bookings/proposals/:id/confirm", bookingHandler.Confirm)
			secured.POST("/me/bookings/proposals/:id/override", bookingHandler.ConfirmWithOverride)
			secured.DELETE("/me/bookings/proposals/:id", bookingHandler.Abandon)

			secured.GET("/me/bookings", bookingHandler.ListByDate)
			secured.GET("/me/bookings/month", bookingHandler.ListByMonth)

			secured.POST("/me/bookings/:id/reschedule", bookingHandler.ProposeReschedule)
			secured.PATCH("/me/bookings/:id/cancel", bookingHandler.Cancel)
			secured.PATCH("/me/bookings/:id/start", bookingHandler.Start)
			secured.PATCH("/me/bookings/:id/complete", bookingHandler.Complete)
		}
	}
}
