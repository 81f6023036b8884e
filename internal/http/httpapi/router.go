package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"voxscribe/internal/http/handlers"
	"voxscribe/internal/metrics"
	"voxscribe/internal/middleware"
)

type Options struct {
	App             *handlers.App
	Sessions        middleware.SessionVerifier
	Metrics         *metrics.Metrics
	Gatherer        prometheus.Gatherer
	Logger          zerolog.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	// StaticDir is served under /static/ when blobs live on the local filesystem.
	StaticDir string
}

func NewRouter(opts Options) http.Handler {
	app := opts.App
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.Metrics(opts.Metrics),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N("en", opts.CountryLookup),
	)

	limited := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)
	authed := middleware.AuthJWT(opts.Sessions)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/readyz", app.Ready)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/auth", func(r chi.Router) {
		r.Use(limited)
		r.Post("/register", app.AuthRegister)
		r.Post("/login", app.AuthLogin)
		r.Post("/google", app.AuthGoogle)
		r.Post("/password-reset", app.AuthPasswordReset)
		r.Post("/password-reset/confirm", app.AuthPasswordResetConfirm)
		r.With(authed).Post("/id-token", app.AuthIDToken)
	})

	r.Route("/v1/me", func(r chi.Router) {
		// EventSource cannot set headers, so the stream also takes ?access_token=.
		r.With(middleware.AuthJWTQuery(opts.Sessions)).Get("/events", app.EventsStream)

		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Get("/", app.Me)
			r.Patch("/", app.MeUpdate)
			r.Delete("/", app.MeDelete)
			r.Put("/profile", app.MeCompleteProfile)
		})
	})

	r.Route("/v1/transcriptions", func(r chi.Router) {
		r.Use(authed)
		r.With(limited).Post("/", app.TranscriptionsCreate)
		r.Get("/", app.TranscriptionsList)
		r.Get("/export", app.TranscriptionsExport)
		r.Get("/{id}", app.TranscriptionsGet)
		r.Delete("/{id}", app.TranscriptionsDelete)
	})

	r.Route("/v1/billing", func(r chi.Router) {
		r.Get("/packages", app.BillingPackages)
		r.Post("/webhook", app.BillingWebhook)

		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Post("/payment-intents", app.BillingPaymentIntent)
			r.Post("/checkout-sessions", app.BillingCheckout)
			r.Post("/credit", app.BillingCredit)
			r.Get("/purchases", app.BillingPurchases)
		})
	})

	for name, page := range handlers.MarketingPages {
		r.Get(page.Path, app.Page(name))
	}

	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", noListing(http.FileServer(http.Dir(opts.StaticDir)))))
	}

	return r
}

// noListing hides directory indexes so one user's keys cannot be enumerated.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
