package pipeline

import (
	"github.com/queryforge/core/internal/cache"
	"github.com/queryforge/core/internal/config"
	"github.com/queryforge/core/internal/connection"
	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/embedder"
	"github.com/queryforge/core/internal/history"
	"github.com/queryforge/core/internal/modelclient"
	"github.com/queryforge/core/internal/registry"
)

// Deps bundles every collaborator a node may need. One Deps is shared by
// every goroutine-per-run pipeline instance in a worker process; every
// field is itself concurrency-safe for shared use (sync.Map registry, a
// pooled *sql.DB, a resty client).
type Deps struct {
	DB          *database.DB
	Registry    *registry.Registry
	Pool        *connection.Pool
	Cache       *cache.Cache
	History     *history.Store
	ModelClient *modelclient.Client
	Embedder    *embedder.Embedder
	Config      *config.Config
}
