package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/persistence/file"
	"github.com/caredesk/slaflow/pkg/persistence/memory"
	"github.com/caredesk/slaflow/pkg/persistence/postgresql"
)

// NewPersistence selects the store implementation from the database
// URL scheme. file:// paths and bare paths use the file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return store
	case "memory":
		return memory.NewPersistence()
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.SplitN(databaseURL, "://", 2)
	if len(parts) < 2 {
		return "file"
	}

	return parts[0]
}
