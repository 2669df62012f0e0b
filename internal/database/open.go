package database

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/config"
)

// Open builds the repository selected by DB_TYPE
func Open(cfg *config.Config, logger *zap.Logger) (Repository, error) {
	switch cfg.DBType {
	case config.DBSQLite:
		db, err := Connect(DriverSQLite, cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return NewSQLRepository(db, logger), nil
	case config.DBPostgres:
		db, err := Connect(DriverPostgres, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewSQLRepository(db, logger), nil
	case config.DBRedis:
		client, err := NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedisRepository(client, DefaultRedisPrefix, logger), nil
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.DBType)
	}
}
