// Package store persists the material registry and the knowledge store.
// Both collections are append-only and fragment IDs strictly increase.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/tutorkb/internal/knowledge"
)

// Repository is the storage contract used by ingestion and retrieval.
type Repository interface {
	// AddMaterial registers m, assigning ID and RegisteredAt when unset.
	AddMaterial(ctx context.Context, m knowledge.Material) (knowledge.Material, error)
	// AddFragments appends frags in order, assigning store-wide IDs, and
	// persists them in one write.
	AddFragments(ctx context.Context, frags []knowledge.Fragment) ([]knowledge.Fragment, error)
	// Fragments returns all fragments in store order.
	Fragments(ctx context.Context) ([]knowledge.Fragment, error)
	// ListAll returns both collections.
	ListAll(ctx context.Context) (knowledge.Snapshot, error)
	Close() error
}

// Backend names.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open returns the repository for backend rooted at dir.
func Open(backend, dir string, log *slog.Logger) (Repository, error) {
	switch backend {
	case BackendJSON, "":
		return OpenJSON(dir, log)
	case BackendSQLite:
		return OpenSQLite(dir)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}

func prepareMaterial(m knowledge.Material) knowledge.Material {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.RegisteredAt.IsZero() {
		m.RegisteredAt = time.Now().UTC()
	}
	return m
}
