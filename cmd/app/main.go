package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"recommendation-service/configs"
	"recommendation-service/internal/cache"
	"recommendation-service/internal/engagement"
	"recommendation-service/internal/events"
	"recommendation-service/internal/recommend"
	"recommendation-service/internal/shared/httpx"
	"recommendation-service/pkg/di"
)

func initOTEL(ctx context.Context, log zerolog.Logger) func(context.Context) error {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "otel-collector:4318"
	}
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		log.Fatal().Err(err).Msg("otel exporter")
	}
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(os.Getenv("OTEL_SERVICE_NAME")),
		attribute.String("deployment.environment", os.Getenv("ENV")),
	))
	ratio := 1.0
	if s := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); s != "" {
		if f, e := strconv.ParseFloat(s, 64); e == nil && f >= 0 && f <= 1 {
			ratio = f
		}
	}
	tp := trace.NewTracerProvider(
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown
}

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "recommendation").Logger()

	ctx := context.Background()
	shutdown := initOTEL(ctx, log)
	defer func() {
		c, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = shutdown(c)
	}()

	cfg, err := configs.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	c, err := di.Build(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("container")
	}
	defer func() { _ = c.Redis.Close() }()

	// Interaction events feed the aggregator and drive cache
	// invalidation hints from collaborators.
	evHandler := events.NewHandler(c.Engagement, c.Cache, log)
	go func() {
		if err := events.StartConsumer(ctx, cfg.KafkaBootstrap, cfg.KafkaTopic, cfg.KafkaGroupID, evHandler); err != nil {
			log.Error().Err(err).Msg("kafka consumer stopped")
		}
	}()

	refreshLimit := func(next http.Handler) http.Handler {
		return c.Limiter.LimitHTTP(1, 60*time.Second, func(r *http.Request) (string, error) {
			return httpx.UserFromCtx(r)
		}, next)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	eh := engagement.NewHandler(c.Engagement)
	rh := recommend.NewHandler(c.Recommend, c.Cache)
	ch := cache.NewHandler(c.Cache)

	// Public:
	mux.Handle("GET /posts/{post_id}/engagement", httpx.Wrap(eh.GetSummary))

	protect := func(pattern string, handler http.Handler) {
		mux.Handle(pattern, httpx.AuthMiddleware(handler))
	}

	protect("GET /recommendations", httpx.Wrap(rh.GetRecommendations))
	protect("POST /recommendations/refresh", httpx.Wrap(rh.Refresh))

	// Admin / maintenance:
	protect("POST /admin/engagement/refresh", refreshLimit(httpx.Wrap(eh.Refresh)))
	protect("POST /admin/engagement/cleanup", httpx.Wrap(eh.Cleanup))
	protect("GET /admin/cache/stats", httpx.Wrap(ch.Stats))
	protect("GET /admin/cache/analytics", httpx.Wrap(ch.Analytics))
	protect("POST /admin/cache/maintenance", httpx.Wrap(ch.Maintenance))
	protect("POST /admin/cache/clear", httpx.Wrap(ch.Clear))
	protect("POST /admin/cache/invalidate", httpx.Wrap(ch.Invalidate))

	protect("GET /whoami", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, err := httpx.UserFromCtx(r)
		if err != nil {
			httpx.WriteJSON(w, map[string]any{"error": err.Error()}, http.StatusUnauthorized)
			return
		}
		httpx.WriteJSON(w, map[string]any{"user_id": uid}, http.StatusOK)
	}))

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           otelhttp.NewHandler(mux, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	log.Info().Str("addr", cfg.AppPort).Msg("recommendation-service listening")
	log.Fatal().Err(srv.ListenAndServe()).Msg("server stopped")
}
