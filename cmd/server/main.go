package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/internal/config"
	"github.com/jrsteele09/readify/internal/metrics"
	"github.com/jrsteele09/readify/server"
	"github.com/jrsteele09/readify/sessions"
	"github.com/jrsteele09/readify/sessions/filestore"
	"github.com/jrsteele09/readify/sessions/memstore"
	"github.com/jrsteele09/readify/sessions/redisstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx := context.Background()
	storage, closeStorage, err := openStorage(ctx, c)
	if err != nil {
		return err
	}
	defer closeStorage()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := api.New(c.GetAPIBaseURL(),
		api.WithHTTPClient(&http.Client{Timeout: c.GetAPITimeout()}),
		api.WithObserver(m),
	)

	handler, err := server.New(c, server.Deps{
		API:      client,
		Storage:  storage,
		Metrics:  m,
		Gatherer: reg,
	})
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: handler}
	go func() {
		if err := listenAndServe(srv); err != nil {
			log.Err(err).Msg("Listener stopped")
		}
	}()
	waitForStopSignal()
	returnError = shutdown(srv)
	return returnError
}

func setupLogging(c config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if c.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// openStorage builds the browser storage the config asks for, sealed when a credential key is set.
func openStorage(ctx context.Context, c config.Config) (sessions.Repo, func(), error) {
	var (
		repo    sessions.Repo
		closeFn = func() {}
	)

	switch c.GetSessionStore() {
	case config.SessionStoreFile:
		dir := filepath.Join(c.GetDataFolder(), "sessions")
		fileRepo, err := filestore.New(dir, filestore.WithTTL(c.GetMaxSessionAge()))
		if err != nil {
			return nil, nil, fmt.Errorf("filestore.New: %w", err)
		}
		log.Info().Str("dir", dir).Msg("Browser sessions stored on disk")
		repo = fileRepo
	case config.SessionStoreRedis:
		rdb, err := redisstore.Connect(ctx, c.GetRedisURL())
		if err != nil {
			return nil, nil, fmt.Errorf("redisstore.Connect: %w", err)
		}
		log.Info().Str("addr", rdb.Options().Addr).Msg("Browser sessions stored in redis")
		repo = redisstore.New(rdb, redisstore.WithTTL(c.GetMaxSessionAge()))
		closeFn = func() {
			if err := rdb.Close(); err != nil {
				log.Err(err).Msg("Failed to close redis client")
			}
		}
	default:
		log.Warn().Msg("Browser sessions kept in memory, they will not survive a restart")
		repo = memstore.New(memstore.WithTTL(c.GetMaxSessionAge()))
	}

	if hexKey := c.GetCredentialKey(); hexKey != "" {
		key, err := sessions.KeyFromHex(hexKey)
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("CREDENTIAL_KEY: %w", err)
		}
		if repo, err = sessions.Sealed(repo, key); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("sessions.Sealed: %w", err)
		}
	}
	return repo, closeFn, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
