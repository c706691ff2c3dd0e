package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog/log"

    "github.com/local/slidescript/internal/ai"
    cfgpkg "github.com/local/slidescript/internal/config"
    "github.com/local/slidescript/internal/limiter"
    logpkg "github.com/local/slidescript/internal/logger"
    "github.com/local/slidescript/internal/metrics"
    "github.com/local/slidescript/internal/queue"
    "github.com/local/slidescript/internal/script"
    "github.com/local/slidescript/internal/server"
    "github.com/local/slidescript/internal/store"
    "github.com/local/slidescript/internal/worker"
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

    // Queue
    rq, err := queue.NewRedisQueue(cfg.Queue.RedisURL, cfg.Queue.Stream, cfg.Queue.Group, cfg.Queue.PollInterval)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to connect to redis")
    }
    defer rq.Close()

    // Stores
    rounds, err := store.NewRoundStore(cfg.Queue.RedisURL, 7*24*time.Hour)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init round store")
    }
    defer rounds.Close()

    status, err := store.NewRedisStatus(cfg.Queue.RedisURL)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init status store")
    }
    defer status.Close()

    engine := script.NewEngine(script.Options{MaxScriptBytes: cfg.Engine.MaxScriptBytes})

    srv := server.New(server.Dependencies{
        Engine: engine,
        Rounds: rounds,
        Status: status,
        Queue:  rq,
    })
    mux := http.NewServeMux()
    srv.RegisterRoutes(mux)

    // Match worker (optional)
    runWorker := os.Getenv("RUN_WORKER")
    if runWorker == "" || runWorker == "1" || runWorker == "true" {
        lim, err := limiter.New(limiter.Options{
            RedisURL:    cfg.Queue.RedisURL,
            MaxInflight: cfg.Worker.MaxInflightPerModel,
            BaseBackoff: cfg.Worker.BreakerBaseBackoff,
            MaxBackoff:  cfg.Worker.BreakerMaxBackoff,
        })
        if err != nil {
            log.Fatal().Err(err).Msg("failed to init limiter")
        }
        defer lim.CloseClient()

        client := worker.NewFailover(cfg.Providers,
            ai.NewOpenAIClient(cfg.Providers.OpenAI.APIKey),
            ai.NewAnthropicClient(cfg.Providers.Anthropic.APIKey),
            lim, cfg.AI.RequestTimeout)

        wrk := worker.New(cfg, rq, rounds, status, client)
        wrk.Start()
        defer wrk.Stop(context.Background())
    }

    port := os.Getenv("PORT")
    if port == "" { port = "8080" }
    httpSrv := &http.Server{Addr: ":"+port, Handler: mux}

    go func(){
        log.Info().Msgf("HTTP server listening on :%s", port)
        if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _ = httpSrv.Shutdown(ctx)
    fmt.Println("shutdown complete")
}
