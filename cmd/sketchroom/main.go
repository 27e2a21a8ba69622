package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/sketchroom/go-sketchroom/internal/config"
	"github.com/sketchroom/go-sketchroom/internal/credential"
	"github.com/sketchroom/go-sketchroom/internal/engine"
	"github.com/sketchroom/go-sketchroom/internal/room"
	"github.com/sketchroom/go-sketchroom/internal/session"
	"github.com/sketchroom/go-sketchroom/internal/stats"
	"github.com/sketchroom/go-sketchroom/internal/storage"
)

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stderr
	logger := zerolog.New(out)
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	return logger.Level(level).With().Timestamp().Logger()
}

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	logger := newLogger(cfg)

	var (
		roomRepo    storage.RoomRepository
		accountRepo storage.AccountRepository
		pg          *storage.PgStore
	)
	switch cfg.Storage {
	case "postgres":
		pg, err = storage.NewPgStore(cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("open postgres store")
		}
		defer pg.Close()
		roomRepo, accountRepo = pg, pg
	default:
		mem := storage.NewMemoryStore()
		roomRepo, accountRepo = mem, mem
	}

	var creds storage.CredentialStore
	switch cfg.CredentialStore {
	case "redis":
		rc, err := storage.NewRedisCredentialStore(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatal().Err(err).Msg("open redis credential store")
		}
		defer rc.Close()
		creds = rc
	case "memory":
		creds = storage.NewMemoryCredentialStore()
	default:
		fc, err := storage.NewFileCredentialStore(cfg.CredentialDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("open file credential store")
		}
		creds = fc
	}

	mux := http.NewServeMux()
	statsUpdater := stats.NewStatsUpdater(mux)
	statsUpdater.Run()
	defer statsUpdater.Stop()

	codec := credential.NewCodec(cfg.SigningKeyBytes())

	sessionStore := session.NewStore()
	manager := session.NewManager(logger, sessionStore, codec, creds)
	manager.SetWatchdogInterval(cfg.WatchdogInterval)
	defer manager.Close()

	accounts := session.NewAccountService(logger, accountRepo, codec)
	directory := room.NewDirectory(logger, roomRepo)
	roomStore := room.NewStore()

	app := engine.NewApp(logger, manager, accounts, directory, roomStore, statsUpdater)

	if err := app.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("initialize session")
	}

	if snap := app.Session(); snap.User != nil {
		logger.Info().Str("user_id", snap.User.ID).Bool("anonymous", snap.User.Anonymous).Msg("session restored")
	} else {
		logger.Info().Msg("no persisted session")
	}

	statsSrv := &http.Server{
		Addr:    cfg.StatsAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.StatsAddr).Msg("serving stats")
		errCh <- statsSrv.ListenAndServe()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info().Str("signal", sig.String()).Msg("received signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("stats server")
	}

	shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := statsSrv.Shutdown(shutDownCtx); err != nil {
		logger.Error().Err(err).Msg("stats server shutdown")
	}

	logger.Info().Msg("shutdown complete")
}
