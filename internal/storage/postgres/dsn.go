package postgres

import (
	"fmt"

	"github.com/reloop-app/reloop-backend/config"
)

// DSN returns the configured DB_DSN, or a keyword DSN assembled from the
// individual DB_* settings.
func DSN(cfg *config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name,
	)
}
