package main

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/florenceapi/internal/config"
    "github.com/local/florenceapi/internal/limiter"
    logpkg "github.com/local/florenceapi/internal/logger"
    "github.com/local/florenceapi/internal/materialize"
    "github.com/local/florenceapi/internal/metrics"
    "github.com/local/florenceapi/internal/model"
    "github.com/local/florenceapi/internal/orchestrator"
    "github.com/local/florenceapi/internal/statuscheck"
    "github.com/local/florenceapi/internal/storage"
    "github.com/local/florenceapi/internal/store"
    web "github.com/local/florenceapi/internal/web"
)

func main() {
    _ = godotenv.Load()
    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    metrics.Init()

    ctx := context.Background()

    // Artifact store
    blobs, err := storage.NewS3Client(ctx, storage.Options{
        Bucket:    cfg.Storage.Bucket,
        Region:    cfg.Storage.Region,
        Endpoint:  cfg.Storage.Endpoint,
        AccessKey: cfg.Storage.AccessKey,
        SecretKey: cfg.Storage.SecretKey,
        PublicURL: cfg.Storage.PublicURL,
    })
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init S3 client")
    }

    // Prediction records
    records, err := store.NewRedisPredictions(cfg.RedisURL)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to connect to redis")
    }
    defer records.Close()

    // Model runtime
    runtime := model.NewRuntimeClient(model.RuntimeOptions{
        BaseURL: cfg.Runtime.URL,
        Timeout: cfg.Runtime.Timeout,
    })

    orch := orchestrator.New(orchestrator.Dependencies{
        Model:        runtime,
        Materializer: materialize.New(blobs, cfg.Storage.PresignTTL),
        Blobs:        blobs,
        Records:      records,
        Limiter:      limiter.New(cfg.Inference.MaxInflight),
        OutlineOnly:  !cfg.Inference.FillMask,
    })

    mux := http.NewServeMux()
    api := orchestrator.NewServer(orch)
    api.RegisterRoutes(mux)
    mux.Handle("/metrics", metrics.Handler())

    checker := statuscheck.New(statuscheck.Options{
        Redis:      records,
        Blobs:      blobs,
        RuntimeURL: cfg.Runtime.URL,
    })
    mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        _ = json.NewEncoder(w).Encode(checker.Summary(r.Context()))
    })

    // Dashboard
    web := web.New()
    web.RegisterRoutes(mux)

    srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}

    go func(){
        log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
    fmt.Println("shutdown complete")
}
