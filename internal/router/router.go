package router

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/authgate-dev/authgate/internal/dto"
	"github.com/authgate-dev/authgate/internal/handler"
	mw "github.com/authgate-dev/authgate/internal/middleware"
	"github.com/authgate-dev/authgate/internal/middleware/metrics"
	"github.com/authgate-dev/authgate/internal/permission"
	"github.com/authgate-dev/authgate/internal/setup"
)

// New creates and configures a new mux router with all the routes.
// IMPORTANT! rate limiters set with .Use limit requests for all endpoints
// combined in that subrouter.
func New(deps *setup.Dependencies) *mux.Router {
	r := mux.NewRouter()

	// Enable gzip compression for all responses
	r.Use(handlers.CompressHandler)

	r.Use(handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	))

	r.Use(mw.Recover(deps.Writer))
	r.Use(metrics.Middleware)

	// Wildcard OPTIONS handler to avoid 404s for preflight requests
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := deps.Handler
	cfg := deps.Config

	r.HandleFunc("/health", handler.Health(deps.Storage, deps.Writer)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	client := mw.Client(deps.Storage, deps.Writer)
	auth := mw.Auth(deps.Tokens, deps.Storage, deps.Writer)
	rateLimit := mw.RateLimit(deps.Redis, mw.RateLimitConfig{
		KeyPrefix:   "ratelimit",
		MaxAttempts: cfg.RateLimitMax(),
		Window:      cfg.RateLimitWindow(),
	}, deps.Writer)
	lockout := mw.Lockout(deps.Redis, mw.LockoutConfig{
		MaxAttempts:   cfg.LockoutMax(),
		LockDuration:  cfg.LockoutDuration(),
		AttemptWindow: cfg.LockoutAttemptWindow(),
	}, deps.Writer)

	// Guest routes: tenant resolution and per-IP rate limiting, no session.
	guest := r.PathPrefix("/guest").Subrouter()
	guest.Use(client)
	guest.Use(rateLimit)

	guestLogin := guest.NewRoute().Subrouter()
	guestLogin.Use(lockout)
	guestLogin.Use(mw.ValidateBody[dto.Login](deps.Validator, deps.Writer))
	guestLogin.HandleFunc("/login", h.Login).Methods("POST")

	guest.Handle("/register",
		mw.ValidateBody[dto.UserCreate](deps.Validator, deps.Writer)(http.HandlerFunc(h.Register))).Methods("POST")
	guest.Handle("/forgot-password",
		mw.ValidateBody[dto.ForgotPassword](deps.Validator, deps.Writer)(http.HandlerFunc(h.ForgotPassword))).Methods("POST")
	guest.Handle("/reset-password",
		mw.ValidateBody[dto.ResetPassword](deps.Validator, deps.Writer)(http.HandlerFunc(h.ResetPassword))).Methods("POST")
	guest.Handle("/activate-account",
		mw.ValidateBody[dto.ActivateAccount](deps.Validator, deps.Writer)(http.HandlerFunc(h.ActivateAccount))).Methods("POST")
	guest.Handle("/resend-activation",
		mw.ValidateBody[dto.ResendActivation](deps.Validator, deps.Writer)(http.HandlerFunc(h.ResendActivation))).Methods("POST")

	// Protected routes: session required. The rate limiter runs ahead of
	// authentication so unauthenticated floods are throttled too; without a
	// session it falls back to keying on the client IP.
	users := r.PathPrefix("/users").Subrouter()
	users.Use(client)
	users.Use(rateLimit)
	users.Use(auth)

	authorize := func(action permission.Action) func(http.Handler) http.Handler {
		return mw.Authorize(action, deps.Storage, deps.Writer)
	}

	index := authorize(permission.ActionIndex)(
		mw.ValidateUserQuery(deps.Validator, deps.Writer)(http.HandlerFunc(h.Index)))
	create := authorize(permission.ActionCreate)(
		mw.ValidateBody[dto.UserCreate](deps.Validator, deps.Writer)(http.HandlerFunc(h.Create)))
	for _, path := range []string{"", "/", "/index"} {
		users.Handle(path, index).Methods("GET")
	}
	for _, path := range []string{"", "/", "/create"} {
		users.Handle(path, create).Methods("POST")
	}
	users.Handle("/{id}",
		authorize(permission.ActionGet)(http.HandlerFunc(h.Get))).Methods("GET")
	users.Handle("/{id}",
		authorize(permission.ActionPatch)(
			mw.ValidateBody[dto.UserPatch](deps.Validator, deps.Writer)(http.HandlerFunc(h.Patch)))).Methods("PATCH")
	users.Handle("/{id}",
		authorize(permission.ActionDelete)(http.HandlerFunc(h.Delete))).Methods("DELETE")

	return r
}
