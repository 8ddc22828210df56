package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saige-footwear/contact-relay/internal/app"
	"github.com/saige-footwear/contact-relay/internal/config"
	"github.com/saige-footwear/contact-relay/internal/health"
	"github.com/saige-footwear/contact-relay/internal/mail"
	"github.com/saige-footwear/contact-relay/internal/obs"
	"github.com/saige-footwear/contact-relay/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "contact_relay")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	shutdownTracer := func(context.Context) error { return nil }
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "contact-relay",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			shutdownTracer = shutdown
		}
	}

	transport, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.User,
		Password:    cfg.SMTP.Pass,
		ImplicitTLS: cfg.SMTP.ImplicitTLS(),
		Timeout:     cfg.SMTP.Timeout,
		LocalName:   envOrDefault("SMTP_LOCAL_NAME", ""),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise smtp transport")
	}

	deps, err := app.NewDependencies(cfg, logger, transport)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise contact service")
	}

	var httpMetrics *obs.HTTPMetrics
	var metricsHandler http.Handler
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
		metricsHandler = promhttp.Handler()
	}

	var checker health.Checker
	if envBool("HEALTH_READY_PROBE_SMTP", false) {
		checker = smtpProbe{sender: transport}
	}

	router := app.NewRouter(app.RouterOptions{
		Config: cfg,
		Logger: logger,
		Deps:   deps,
		Health: health.Handler{
			Checker:     checker,
			SMTPTimeout: envDurationMillis("HEALTH_READY_SMTP_TIMEOUT_MS", 2000),
		},
		Headers: security.Headers{
			Enable:                envBool("SECURE_HEADERS_ENABLE", true),
			EnableHSTS:            envBool("SECURE_HSTS_ENABLE", cfg.AppEnv == "production"),
			HSTSMaxAge:            envInt("SECURE_HSTS_MAX_AGE", 31536000),
			HSTSIncludeSubdomains: envBool("SECURE_HSTS_INCLUDE_SUBDOMAINS", false),
		},
		Metrics:        httpMetrics,
		MetricsHandler: metricsHandler,
		Tracing:        tracingEnabled,
	})

	handler := router
	if envBool("OBS_ENABLE_PPROF", false) {
		mux := chi.NewRouter()
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		mux.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
		mux.Mount("/", router)
		handler = mux
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("path", cfg.ContactPath).Str("smtp", transport.Addr()).Msg("server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
		return
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	if err := shutdown(srv, deps, shutdownTracer, cfg.ShutdownTimeout); err != nil {
		logger.Error().Err(err).Msg("shutdown")
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}

// shutdown stops accepting requests, then drains detached acknowledgments and
// flushes spans within one deadline.
func shutdown(srv *http.Server, deps *app.Dependencies, shutdownTracer func(context.Context) error, timeout time.Duration) error {
	health.SetReady(false)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := deps.Drain(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := shutdownTracer(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type smtpProbe struct {
	sender *mail.SMTPSender
}

func (p smtpProbe) PingSMTP(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.sender.Ping(ctx)
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
