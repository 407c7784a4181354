package api

import (
	"net/http"
	"time"

	"codearena/internal/api/handler"
	"codearena/internal/api/middleware"
	"codearena/internal/app/service"
	"codearena/internal/common/security"
	"codearena/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

type Services struct {
	Auth        *service.AuthService
	Ledger      *service.LedgerService
	Store       *service.StoreService
	Leaderboard *service.LeaderboardService
	Problem     *service.ProblemService
	Submission  *service.SubmissionService
	Contest     *service.ContestService
}

type RouterOptions struct {
	AllowedOrigins   []string
	StoreSeedEnabled bool
}

func NewRouter(svc Services, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Verifies "Authorization: Bearer T" and puts the result in context.
	// Routes decide themselves whether a token is required.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", handler.NewAuthHandler(svc.Auth, svc.Ledger).RegisterRoutes)
		api.Route("/store", handler.NewStoreHandler(svc.Store, opts.StoreSeedEnabled).RegisterRoutes)
		api.Route("/leaderboard", handler.NewLeaderboardHandler(svc.Leaderboard).RegisterRoutes)
		api.Route("/problems", handler.NewProblemHandler(svc.Problem).RegisterRoutes)
		api.Route("/submissions", handler.NewSubmissionHandler(svc.Submission).RegisterRoutes)
		api.Route("/contests", handler.NewContestHandler(svc.Contest).RegisterRoutes)
	})

	return r
}
