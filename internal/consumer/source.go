package consumer

import (
	"context"

	"github.com/mkrencik/droppit/internal/domain"
	"github.com/mkrencik/droppit/internal/store"
)

// StoreSource adapts a shared-store client to the Source contract,
// reading the append-only spawn log.
type StoreSource struct {
	client *store.Client
}

// NewStoreSource creates a Source backed by client.
func NewStoreSource(client *store.Client) *StoreSource {
	return &StoreSource{client: client}
}

func (s *StoreSource) Snapshot(ctx context.Context) (map[string]domain.SpawnEvent, error) {
	snapshot := make(map[string]domain.SpawnEvent)
	if _, err := s.client.GetInto(ctx, store.PathEvents, &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *StoreSource) Stream(ctx context.Context, onChange func(store.Change)) error {
	return s.client.Stream(ctx, store.PathEvents, onChange)
}
