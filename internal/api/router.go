package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/riandyrn/otelchi"
	otelchimetric "github.com/riandyrn/otelchi/metric"
	"go.opentelemetry.io/otel"

	"github.com/dictameal/backend/internal/middleware"
	"github.com/dictameal/backend/internal/sentry"
)

type RouterConfig struct {
	ServiceName        string
	CORSAllowedOrigins []string
	// JWTSecret enables bearer auth on /api/* when set.
	JWTSecret string
	JWTIssuer string
}

// NewRouter mounts every route on a chi router with tracing, HTTP metrics,
// CORS and Sentry panic capture.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(otelchi.Middleware(cfg.ServiceName,
		otelchi.WithChiRoutes(r),
		otelchi.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	))

	metricCfg := otelchimetric.NewBaseConfig(cfg.ServiceName, otelchimetric.WithMeterProvider(otel.GetMeterProvider()))
	r.Use(otelchimetric.NewRequestDurationMillis(metricCfg))
	r.Use(otelchimetric.NewRequestInFlight(metricCfg))
	r.Use(otelchimetric.NewResponseSizeBytes(metricCfg))

	allowCredentials := true
	for _, origin := range cfg.CORSAllowedOrigins {
		if origin == "*" {
			// Browsers reject credentialed requests to a wildcard origin.
			allowCredentials = false
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	}))

	r.Use(sentry.HTTPMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
		}

		r.Post("/structure", s.HandleStructure)
		r.Post("/structure/edit_instruction", s.HandleEditInstruction)

		r.Post("/transcribe", s.HandleTranscribe)
		r.Post("/transcribe/jobs", s.HandleSubmitTranscriptionJob)
		r.Get("/transcribe/jobs/{id}", s.HandleJobStatus)

		r.Route("/recipes", func(r chi.Router) {
			r.Post("/", s.HandleCreateRecipe)
			r.Get("/", s.HandleListRecipes)
			r.Get("/{id}", s.HandleGetRecipe)
			r.Put("/{id}", s.HandleUpdateRecipe)
			r.Delete("/{id}", s.HandleDeleteRecipe)
		})
	})

	return r
}
