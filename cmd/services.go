package cmd

import (
	"context"
	"fmt"

	"sjsage522/leadworker/config"
	"sjsage522/leadworker/internal/browser"
	"sjsage522/leadworker/internal/discovery"
	"sjsage522/leadworker/logger"
	"sjsage522/leadworker/services/cache"
	"sjsage522/leadworker/services/publisher"
	"sjsage522/leadworker/services/store"
)

// Services holds all the initialized services
type Services struct {
	Store     store.Store
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			logger.LogError("store", err, "Failed to close lead store")
		}
	}
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			logger.LogError("publisher", err, "Failed to close publisher")
		}
	}
}

// initializeServices builds the lead store stack: the configured backend,
// optionally fronted by memcache and followed by stream publishing.
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	base, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var s store.Store = base

	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			logger.Warn("Memcache at %s unavailable, running without exists cache: %v", cfg.MemcacheAddr, err)
		} else {
			s = store.NewCachedStore(s, mc, cfg.ExistsCacheTTL)
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		pub := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		if err := pub.Ping(ctx); err != nil {
			pub.Close()
			base.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		services.Publisher = pub
		s = store.NewPublishingStore(s, pub)
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	services.Store = s
	return services, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSupabase:
		logger.Info("Using Supabase table %s", cfg.SupabaseTable)
		s, err := store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseTable)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendSQLite:
		logger.Info("Using SQLite database %s", cfg.SQLitePath)
		s, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// newLauncher picks the browser engine
func newLauncher(engine string) (browser.Launcher, error) {
	switch engine {
	case config.EngineChromedp:
		return browser.NewChromedpLauncher(), nil
	case config.EngineRod:
		return browser.NewRodLauncher(), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", engine)
	}
}

// discoveryOptions maps configuration onto crawl options
func discoveryOptions(cfg *config.Config) discovery.Options {
	opts := discovery.DefaultOptions()
	opts.SearchURL = cfg.SearchURL
	opts.Headless = cfg.Headless
	opts.ChromePath = cfg.ChromePath
	opts.NavigationTimeout = cfg.NavigationTimeout
	opts.FeedTimeout = cfg.FeedTimeout
	opts.ElementTimeout = cfg.ElementTimeout
	opts.ScrollDelay = discovery.RandomDelay{Min: cfg.ScrollDelayMin, Max: cfg.ScrollDelayMax}
	opts.MaxStaleScrolls = cfg.MaxStaleScrolls
	opts.ScreenshotPath = cfg.ScreenshotPath
	return opts
}

// newCrawler wires a crawler for the configured engine onto the store
func newCrawler(cfg *config.Config, s store.Store) (*discovery.Crawler, error) {
	launcher, err := newLauncher(cfg.BrowserEngine)
	if err != nil {
		return nil, err
	}
	return discovery.NewCrawler(launcher, s, discoveryOptions(cfg)), nil
}
