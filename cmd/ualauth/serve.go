package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/layer-3/ualauth"
	"github.com/layer-3/ualauth/adapters/events"
	"github.com/layer-3/ualauth/adapters/store"
	"github.com/layer-3/ualauth/adapters/tokenizer"
	"github.com/layer-3/ualauth/config"
	"github.com/layer-3/ualauth/service"
	transport "github.com/layer-3/ualauth/transport/http"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "run the HTTP surface over one authenticator",
	Action: serve,
}

var checkCommand = &cli.Command{
	Name:   "check",
	Usage:  "run detection once and report availability",
	Action: check,
}

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return err
	}
	log := newLogger(c, cfg.Mode == config.LocalMode)

	if cfg.Mode == config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	auth, cleanup, err := build(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	auth.Reset(ctx)

	server := &http.Server{
		Addr:              cfg.Service.Listen,
		Handler:           transport.SetupRouter(auth, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", cfg.Service.Listen).Str("profile", auth.Profile().Name).Msg("serving")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := auth.Logout(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("failed to log out on shutdown")
	}
	return server.Shutdown(shutdownCtx)
}

func check(c *cli.Context) error {
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return err
	}
	log := newLogger(c, true)

	auth, cleanup, err := build(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	auth.Init(c.Context)

	fmt.Printf("authenticator:  %s\n", auth.Profile().Name)
	fmt.Printf("should render:  %t\n", auth.ShouldRender())
	fmt.Printf("available:      %t\n", !auth.IsErrored())
	if err := auth.Err(); err != nil {
		fmt.Printf("error:          %v\n", err)
		return cli.Exit("authenticator unavailable", 1)
	}
	return nil
}

// build wires the authenticator from cfg. The returned cleanup closes the
// redis client and the event publisher.
func build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*service.Authenticator, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn().Err(err).Msg("cleanup failed")
			}
		}
	}

	acfg := ualauth.Config{
		Chains:         cfg.Chains,
		Options:        cfg.Options(),
		DeclaredDomain: cfg.Authenticator.DeclaredDomain,
		ReturnURL:      cfg.Authenticator.ReturnURL,
		BridgeURL:      cfg.Authenticator.BridgeURL,
		LocalKeys:      cfg.Signer.LocalKeys,
		RequestTimeout: cfg.Signer.RequestTimeout,
		KeyTTL:         cfg.Signer.KeyTTL,
		Logger:         &log,
	}

	if cfg.Signer.EnvelopeKeyFile != "" {
		pem, err := os.ReadFile(cfg.Signer.EnvelopeKeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read envelope key: %w", err)
		}
		key, err := jwt.ParseECPrivateKeyFromPEM(pem)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse envelope key: %w", err)
		}
		acfg.Tokenizer = tokenizer.NewJWTTokenizer(key)
	}

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		redisClient := redis.NewClient(opts)
		closers = append(closers, redisClient.Close)

		if err := redisClient.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		acfg.KeyCache = store.NewRedisStore(redisClient)

		if cfg.Events.Enabled {
			publisher, err := redisstream.NewPublisher(
				redisstream.PublisherConfig{
					Client: redisClient,
				},
				watermill.NewStdLogger(false, false),
			)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("failed to create redis publisher: %w", err)
			}
			closers = append(closers, publisher.Close)
			acfg.Publisher = events.NewWatermillPublisher(publisher)
		}
	} else if cfg.Events.Enabled {
		log.Warn().Msg("events enabled without redis; not publishing")
	}

	auth, err := ualauth.New(cfg.Profile(), acfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return auth, cleanup, nil
}
