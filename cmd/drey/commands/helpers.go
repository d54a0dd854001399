package commands

import (
	"github.com/redis/go-redis/v9"

	"github.com/dyluth/drey/internal/config"
	"github.com/dyluth/drey/internal/store"
)

// loadConfig loads drey.yml from --config or the default path.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath
	}
	return config.Load(path)
}

// openStore builds the configured store backend. The returned closer is a
// no-op for the file backend and closes the connection for Redis.
func openStore(cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.Store.Backend {
	case "redis":
		rs, err := store.NewRedisStore(&redis.Options{
			Addr: cfg.Store.Redis.Addr,
			DB:   cfg.Store.Redis.DB,
		}, cfg.Pool)
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil

	default:
		fs, err := store.NewFileStore(cfg.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() error { return nil }, nil
	}
}
