// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/tabletop/internal/auth"
	"github.com/jason-s-yu/tabletop/internal/cache"
	"github.com/jason-s-yu/tabletop/internal/catalog"
	"github.com/jason-s-yu/tabletop/internal/config"
	"github.com/jason-s-yu/tabletop/internal/database"
	"github.com/jason-s-yu/tabletop/internal/game"
	"github.com/jason-s-yu/tabletop/internal/handlers"
	"github.com/jason-s-yu/tabletop/internal/images"
	"github.com/jason-s-yu/tabletop/internal/lobby"
	"github.com/jason-s-yu/tabletop/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// repositories groups the three persistence ports for one backend.
type repositories struct {
	cards game.CardRepository
	decks game.DeckRepository
	games game.GameRepository
	close func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	defer repos.close()

	hub := handlers.NewHub(logger)
	sinks := game.MultiSink{hub}
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		sinks = append(sinks, cache.NewActionPublisher(rdb, cfg.QueueName, logger))
		logger.WithField("queue", cfg.QueueName).Info("publishing game actions to redis")
	}

	imgs, err := images.NewLocalStorage(cfg.ImageDir)
	if err != nil {
		logger.Fatalf("images: %v", err)
	}
	client := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout, cfg.CatalogRequestDelay, logger)

	cards := game.NewCardInteractor(repos.cards, client, imgs, logger)
	decks := game.NewDeckInteractor(repos.decks, cards, client, logger)
	encounters := game.NewEncounterInteractor(repos.decks, client, logger)
	games := game.NewGameInteractor(repos.games, repos.decks, logger,
		game.WithEventSink(sinks),
		game.WithCounterPolicy(cfg.CounterPolicy()),
	)
	lobbies := lobby.NewLobbyManager(lobby.NewLobbyStore(), games, hub, logger)

	signer, err := newSigner(cfg)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	srv := handlers.NewServer(handlers.Deps{
		Cards:      cards,
		Decks:      decks,
		Encounters: encounters,
		Games:      games,
		Lobbies:    lobbies,
		Signer:     signer,
		Hub:        hub,
		Origin:     cfg.ClientOrigin,
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", httpServer.Addr)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("failed to serve: %v", err)
		}
	case <-ctx.Done():
		logger.Info("terminating")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}

func openRepositories(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (repositories, error) {
	if cfg.StoreBackend != "postgres" {
		mem := store.NewMemory()
		logger.Info("using in-memory store")
		return repositories{cards: mem.Cards, decks: mem.Decks, games: mem.Games, close: func() {}}, nil
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return repositories{}, err
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return repositories{}, err
	}
	return repositories{
		cards: database.NewCardRepo(pool),
		decks: database.NewDeckRepo(pool),
		games: database.NewGameRepo(pool),
		close: pool.Close,
	}, nil
}

func newSigner(cfg config.Config) (*auth.Signer, error) {
	ttl, err := auth.ParseTokenTTL(cfg.TokenExpireTime)
	if err != nil {
		return nil, err
	}
	if cfg.SeatPrivateKeyFile != "" {
		return auth.NewSignerFromFiles(cfg.SeatPrivateKeyFile, cfg.SeatPublicKeyFile, ttl)
	}
	return auth.NewSigner(ttl)
}
