package awsx

import (
	"context"
	"sync"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

// Router dispatches verification, backup, and destroy calls to a per-region
// Actions, creating each region's clients on first use. A report may mix
// regions, so the executor cannot be bound to a single one.
type Router struct {
	mu      sync.Mutex
	actions map[string]*Actions
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{actions: make(map[string]*Actions)}
}

func (r *Router) forRegion(region string) (*Actions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.actions[region]; ok {
		return a, nil
	}
	a, err := NewActions(region)
	if err != nil {
		return nil, err
	}
	r.actions[region] = a
	return a, nil
}

// VerifyDeletable implements the executor's StateVerifier.
func (r *Router) VerifyDeletable(ctx context.Context, rec models.ResourceRecord) (bool, string, error) {
	a, err := r.forRegion(rec.Region)
	if err != nil {
		return false, "", err
	}
	return a.VerifyDeletable(ctx, rec)
}

// SupportsBackup implements the executor's BackupCreator.
func (r *Router) SupportsBackup(kind models.ResourceKind) bool {
	return (&Actions{}).SupportsBackup(kind)
}

// CreateBackup implements the executor's BackupCreator.
func (r *Router) CreateBackup(ctx context.Context, rec models.ResourceRecord) (string, error) {
	a, err := r.forRegion(rec.Region)
	if err != nil {
		return "", err
	}
	return a.CreateBackup(ctx, rec)
}

// Destroy implements the executor's Destroyer.
func (r *Router) Destroy(ctx context.Context, rec models.ResourceRecord) (string, error) {
	a, err := r.forRegion(rec.Region)
	if err != nil {
		return "", err
	}
	return a.Destroy(ctx, rec)
}
