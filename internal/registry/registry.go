// Package registry holds the non-serialisable, process-local objects that
// a pipeline run needs but that cannot cross a job broker: engine handles,
// agent bundles, and run-scoped history service handles. The pipeline
// State (internal/pipeline) only ever carries opaque string ids into these
// categories.
package registry

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Category namespaces an id so the same uuid string can never be looked up
// under the wrong kind of object by accident.
type Category string

const (
	CategoryEngine         Category = "engine"
	CategoryAgentBundle    Category = "agent_bundle"
	CategoryHistoryService Category = "history_service"
)

type entry struct {
	category Category
	value    interface{}
}

// Registry is a process-local, concurrency-safe object store. Workers
// across machines each own their own Registry; nothing here is shared or
// replicated.
type Registry struct {
	objects sync.Map // map[string]entry
}

func New() *Registry {
	return &Registry{}
}

// Put stores obj under category and returns a freshly generated opaque id.
func (r *Registry) Put(category Category, obj interface{}) string {
	id := uuid.New().String()
	r.objects.Store(id, entry{category: category, value: obj})
	return id
}

// Get resolves id within category. It returns an ErrNotFound if the id is
// absent or was stored under a different category.
func (r *Registry) Get(category Category, id string) (interface{}, error) {
	raw, ok := r.objects.Load(id)
	if !ok {
		return nil, ErrNotFound{Category: category, ID: id}
	}
	e := raw.(entry)
	if e.category != category {
		return nil, ErrNotFound{Category: category, ID: id}
	}
	return e.value, nil
}

// Drop removes id, regardless of category. Dropping an absent id is a
// no-op: callers use Drop in guaranteed-release steps where the object may
// already be gone.
func (r *Registry) Drop(id string) {
	r.objects.Delete(id)
}

// ErrNotFound is returned by Get when the id is absent or mismatched.
type ErrNotFound struct {
	Category Category
	ID       string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("registry: %s %q not found", e.Category, e.ID)
}
