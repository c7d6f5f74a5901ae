package catalog

import (
	"context"
	"fmt"
	"time"

	"espotifai/model"
	"espotifai/repository"
)

// Snapshot is a point-in-time copy of the whole catalog.
type Snapshot struct {
	TakenAt time.Time       `json:"taken_at"`
	Artists []*model.Artist `json:"artists"`
	Albums  []*model.Album  `json:"albums"`
	Tracks  []*model.Track  `json:"tracks"`
}

// Snapshot reads every entity inside one transaction. Unlike the list
// operations an empty catalog is not an error.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{TakenAt: s.now().UTC()}
	err := s.repo.InTx(ctx, func(tx repository.CatalogRepository) error {
		var err error
		if snap.Artists, err = tx.ListArtists(ctx); err != nil {
			return err
		}
		if snap.Albums, err = tx.ListAlbums(ctx); err != nil {
			return err
		}
		snap.Tracks, err = tx.ListTracks(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot catalog: %w", err)
	}
	return snap, nil
}
