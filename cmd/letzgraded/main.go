// Command letzgraded is the LetzGrade service.
// It serves the grade API, Prometheus metrics and a health check.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/letzgrade/letzgrade/internal/api"
	"github.com/letzgrade/letzgrade/internal/platform"
	"github.com/letzgrade/letzgrade/internal/report"
	"github.com/letzgrade/letzgrade/internal/storage"
	"github.com/letzgrade/letzgrade/internal/store"
	"github.com/letzgrade/letzgrade/pkg/catalog"
	"github.com/letzgrade/letzgrade/pkg/grades"
)

type config struct {
	Port            string
	DatabaseURL     string
	APIKey          string
	Debug           bool
	ReportCacheSize int
	CatalogPath     string
	Scale           grades.Scale
	Storage         storage.Config
}

// loadConfig reads LETZGRADE_* environment variables and, when given, a
// config file. Environment values win over the file.
func loadConfig(args []string) (config, error) {
	fs := pflag.NewFlagSet("letzgraded", pflag.ContinueOnError)
	cfgFile := fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.String("port", "8080", "listen port")
	fs.Bool("debug", false, "development logging")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("storage_backend", "local")
	v.SetDefault("storage_path", "/tmp/letzgrade-data")
	v.SetDefault("report_cache_size", 20)
	v.SetDefault("scale_min", grades.DefaultScale.Min)
	v.SetDefault("scale_max", grades.DefaultScale.Max)
	v.SetEnvPrefix("LETZGRADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlag("port", fs.Lookup("port")); err != nil {
		return config{}, err
	}
	if err := v.BindPFlag("debug", fs.Lookup("debug")); err != nil {
		return config{}, err
	}

	if *cfgFile != "" {
		v.SetConfigFile(*cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("reading config %s: %w", *cfgFile, err)
		}
	}

	cfg := config{
		Port:            v.GetString("port"),
		DatabaseURL:     v.GetString("database_url"),
		APIKey:          v.GetString("api_key"),
		Debug:           v.GetBool("debug"),
		ReportCacheSize: v.GetInt("report_cache_size"),
		CatalogPath:     v.GetString("catalog_path"),
		Scale:           grades.Scale{Min: v.GetFloat64("scale_min"), Max: v.GetFloat64("scale_max")},
		Storage: storage.Config{
			Backend: v.GetString("storage_backend"),
			Path:    v.GetString("storage_path"),
			S3: storage.S3Config{
				Bucket:    v.GetString("s3_bucket"),
				Region:    v.GetString("s3_region"),
				Endpoint:  v.GetString("s3_endpoint"),
				AccessKey: v.GetString("s3_access_key"),
				SecretKey: v.GetString("s3_secret_key"),
			},
			GCSBucket: v.GetString("gcs_bucket"),
		},
	}
	if cfg.Scale.Max <= cfg.Scale.Min {
		return config{}, fmt.Errorf("scale_max (%g) must be greater than scale_min (%g)", cfg.Scale.Max, cfg.Scale.Min)
	}
	return cfg, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	logger, err := platform.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store: Postgres when configured, otherwise in memory.
	var (
		st store.Store
		db *sql.DB
	)
	if cfg.DatabaseURL != "" {
		db, err = platform.OpenDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := platform.AutoMigrate(db); err != nil {
			return err
		}
		st = store.NewPostgres(db)
		logger.Info("using postgres store")
	} else {
		st = store.NewMemory()
		logger.Warn("LETZGRADE_DATABASE_URL not set, using in-memory store")
	}

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}

	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			return err
		}
		logger.Info("loaded catalog", zap.String("path", cfg.CatalogPath), zap.Int("years", len(cat.Years)))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := api.NewMetrics(reg)

	handler := api.NewHandler(st, report.NewService(st, blobs, logger), api.Options{
		Scale:   cfg.Scale,
		Catalog: cat,
		Cache:   api.NewReportCache(cfg.ReportCacheSize),
		Metrics: metrics,
	}, logger)

	apiMux := http.NewServeMux()
	handler.RegisterRoutes(apiMux)

	mux := http.NewServeMux()
	mux.Handle("/api/", api.APIKeyAuth(cfg.APIKey)(api.Instrument(metrics, apiMux)))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", healthHandler(db))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.CORS(api.RequestLogger(logger)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting letzgraded", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}

// healthHandler reports ok, pinging the database when there is one.
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"database unreachable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
