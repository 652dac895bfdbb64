package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/servicelink-api/internal/application/account"
	"github.com/servicelink-api/internal/application/otp"
	"github.com/servicelink-api/internal/application/verification"
	"github.com/servicelink-api/internal/config"
	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/infrastructure/dynamo"
	"github.com/servicelink-api/internal/infrastructure/geocode"
	jwtinfra "github.com/servicelink-api/internal/infrastructure/jwt"
	s3infra "github.com/servicelink-api/internal/infrastructure/s3"
	"github.com/servicelink-api/internal/infrastructure/smtp"
	"github.com/servicelink-api/internal/infrastructure/sns"
	"github.com/servicelink-api/internal/transport/http/handler"
	appmiddleware "github.com/servicelink-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	OTPRepo          *dynamo.OTPRepo
	OTPEventRepo     *dynamo.OTPEventRepo
	VerificationRepo *dynamo.VerificationRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
	Geocoder         *geocode.Client
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10, applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	otpSvc := otp.NewService(otp.ServiceDeps{
		CodeRepo:  deps.OTPRepo,
		EventRepo: deps.OTPEventRepo,
		Expiry:    cfg.OTPExpiry,
	})
	accountSvc := account.NewService(account.ServiceDeps{
		UserRepo:    deps.UserRepo,
		OTPManager:  otpSvc,
		Mailer:      deps.Mailer,
		SMSSender:   deps.SMSSender,
		JWTProvider: deps.JWTProvider,
		DailyLimit:  cfg.OTPDailyLimit,
	})
	verificationSvc := verification.NewService(verification.ServiceDeps{
		SubmissionRepo: deps.VerificationRepo,
		BlobStore:      deps.S3Store,
	})

	healthH := handler.NewHealthHandler()
	accountH := handler.NewAccountHandler(accountSvc)
	pwH := handler.NewPasswordRecoveryHandler(accountSvc)
	emailH := handler.NewEmailVerificationHandler(accountSvc)
	verificationH := handler.NewVerificationHandler(verificationSvc)
	geocodeH := handler.NewGeocodeHandler(deps.Geocoder)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/accounts", accountH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", accountH.Login)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", pwH.Action)
		r.With(sensitiveRL.Limit).Get("/geocode/reverse", geocodeH.Reverse)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/email-verification/{action}", emailH.Action)
			r.Get("/verification", verificationH.Status)
			r.Post("/verification", verificationH.Submit)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/verification/{userID}", verificationH.AdminGet)
				r.Post("/verification/{userID}/review", verificationH.Review)
			})
		})
	})

	return r
}
