package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/chain-pair/chain_pair/internal/alerts"
	"github.com/chain-pair/chain_pair/internal/analytics"
	"github.com/chain-pair/chain_pair/internal/auth"
	"github.com/chain-pair/chain_pair/internal/chain"
	"github.com/chain-pair/chain_pair/internal/channel"
	"github.com/chain-pair/chain_pair/internal/config"
	"github.com/chain-pair/chain_pair/internal/infra"
	"github.com/chain-pair/chain_pair/internal/logging"
	"github.com/chain-pair/chain_pair/internal/relay"
	"github.com/chain-pair/chain_pair/internal/router"
	"github.com/chain-pair/chain_pair/internal/securechannel"
	"github.com/chain-pair/chain_pair/internal/server"
	"github.com/chain-pair/chain_pair/internal/settings"
	"github.com/chain-pair/chain_pair/internal/walletapi"
)

const (
	reconnectMinDelay = time.Second
	reconnectMaxDelay = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	}

	// Pairings survive restarts only with Redis behind the identity store.
	var channelRepo channel.Repository
	var blockStore chain.BlockStore
	if cache != nil {
		channelRepo = channel.NewRedisRepository(cache)
		blockStore = chain.NewRedisBlockStore(cache)
	} else {
		logger.Warn("no redis configured, channel identity will not survive restarts")
		channelRepo = channel.NewMemoryRepository()
		blockStore = chain.NewMemoryBlockStore()
	}

	var sink analytics.Sink
	if db != nil {
		sink = analytics.NewPostgresSink(db)
	} else {
		sink = analytics.NewLoggerSink(logger)
	}

	wallet := walletapi.New(cfg.WalletAPIURL)
	notifier := alerts.NewLoggerNotifier(logger)
	channels := channel.NewService(channelRepo)
	sender := relay.NewSwitch()

	secure := securechannel.NewService(
		channels,
		sender,
		wallet,
		auth.NewLoggerSink(logger),
		notifier,
		sink,
		logger,
		securechannel.Config{
			Product:   securechannel.Product(cfg.Product),
			LogoutGap: cfg.LogoutGap,
		},
	)

	refresher := chain.RefresherFunc(func(ctx context.Context, coin string) error {
		logger.Info("refresh requested", "coin", coin)
		return nil
	})
	chains := chain.NewService(wallet, blockStore, notifier, refresher, logger)

	dispatcher := router.New(secure, chains, settings.NewLoggerStore(logger), notifier, logger)

	srv, err := server.New(cfg, db, cache, logger, secure, channels)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		runRelay(ctx, cfg, logger, sender, secure, channels, dispatcher)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	cancel()
	<-relayDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("agent exited cleanly")
}

// runRelay keeps one relay connection alive at a time. Each connection
// replays the subscriptions from scratch: the persisted channel identity
// makes the handshake resumable, the connection itself is disposable.
func runRelay(ctx context.Context, cfg config.Config, logger *slog.Logger, sender *relay.Switch, secure *securechannel.Service, channels *channel.Service, dispatcher *router.Router) {
	delay := reconnectMinDelay
	for {
		if ctx.Err() != nil {
			return
		}

		client, err := relay.Dial(ctx, cfg.RelayURL, logger)
		if err != nil {
			logger.Error("dial relay", "error", err, "retry_in", delay.String())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			delay = min(delay*2, reconnectMaxDelay)
			continue
		}
		delay = reconnectMinDelay

		sender.Set(client)
		if err := openSession(ctx, logger, sender, secure, channels); err != nil {
			logger.Error("open relay session", "error", err)
		}

		frames := make(chan []byte, 64)
		go client.Listen(ctx, frames)
		dispatcher.Run(ctx, frames)

		sender.Set(nil)
		secure.OnClose(time.Now())
		if err := client.Close(); err != nil {
			logger.Debug("close relay", "error", err)
		}
	}
}

// openSession replays all subscriptions on a fresh connection.
func openSession(ctx context.Context, logger *slog.Logger, sender relay.Sender, secure *securechannel.Service, channels *channel.Service) error {
	if err := secure.OnOpen(ctx); err != nil {
		return err
	}

	for _, coin := range []string{"btc", "bch", "eth"} {
		if err := sender.Send(ctx, relay.SubscribeHeader(coin)); err != nil {
			return fmt.Errorf("subscribe %s headers: %w", coin, err)
		}
	}

	identity, err := channels.Snapshot(ctx)
	if err != nil {
		return err
	}
	if identity.LastGUID != "" {
		if err := sender.Send(ctx, relay.SubscribeWallet(identity.LastGUID)); err != nil {
			return fmt.Errorf("subscribe wallet: %w", err)
		}
	}

	logger.Info("relay session established", "channel_id", identity.ChannelID)
	return nil
}
