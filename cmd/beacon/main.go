package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/topekalabs/beacon/internal/dispatch"
	"github.com/topekalabs/beacon/internal/enrich"
	"github.com/topekalabs/beacon/internal/httpx"
	"github.com/topekalabs/beacon/internal/logger"
	"github.com/topekalabs/beacon/internal/metrics"
	"github.com/topekalabs/beacon/internal/sink"
	"github.com/topekalabs/beacon/internal/store"
	"github.com/topekalabs/beacon/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var m *metrics.Metrics
	var metricsSrv *metrics.Server
	if cfg.MetricsEnabled {
		m = metrics.NewMetrics(nil)
		metricsSrv = metrics.NewServer(cfg.MetricsAddr, zlog)
		metricsSrv.Start()
	}

	backing, err := buildStore(ctx, cfg)
	if err != nil {
		zlog.Fatal("store init failed", zap.Error(err))
	}

	var ec *enrich.Client
	if cfg.EnrichEnabled {
		ec = enrich.NewClient(
			cfg.EnrichIPv4URL, cfg.EnrichIPv6URL, cfg.EnrichGeoURL,
			time.Duration(cfg.EnrichTimeoutSec)*time.Second, zlog)
	}

	bridge := &dispatch.Bridge{
		Source:      cfg.SourceName,
		ConfirmPath: cfg.ConfirmPath,
		Enrich:      ec,
		Sinks:       buildSinks(ctx, cfg, zlog),
		Metrics:     m,
		Log:         zlog,
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      httpx.NewHandler(bridge, backing, cfg.DNTRespect, m, zlog),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("beacon listening", zap.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	for _, s := range bridge.Sinks {
		if s != nil {
			_ = s.Close()
		}
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.RedisURL == "" {
		return store.NewMemoryStore(), nil
	}
	client, err := store.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(cfg.StoreTTLHours) * time.Hour
	return store.NewRedisStore(client, "beacon", ttl), nil
}

// buildSinks constructs each enabled destination. A sink that fails to start
// is skipped with a warning; the others still run.
func buildSinks(ctx context.Context, cfg *config.Config, zlog *zap.Logger) []sink.Sink {
	var sinks []sink.Sink
	for _, name := range cfg.Outputs {
		var s sink.Sink
		switch name {
		case "log":
			s = sink.NewLogSink(zlog)
		case "relay":
			s = sink.NewRelaySink(cfg.RelayEndpoint)
		case "kafka":
			s = sink.NewKafkaSink(sink.KafkaConfig{
				Brokers: cfg.KafkaBrokers,
				Topic:   cfg.KafkaTopic,
				Acks:    cfg.KafkaAcks,
			}, zlog)
		case "meta":
			s = sink.NewMetaSink(cfg.MetaEndpoint, cfg.MetaPixelID)
		case "gtag":
			s = sink.NewGoogleSink(cfg.GoogleEndpoint, cfg.GoogleSendTo)
		case "tiktok":
			s = sink.NewTikTokSink(cfg.TikTokEndpoint)
		default:
			zlog.Warn("unknown output, skipping", zap.String("output", name))
			continue
		}
		if err := s.Start(ctx); err != nil {
			zlog.Warn("sink unavailable, skipping", zap.String("sink", s.Name()), zap.Error(err))
			continue
		}
		sinks = append(sinks, s)
	}
	return sinks
}
