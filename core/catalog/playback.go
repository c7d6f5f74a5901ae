package catalog

import (
	"context"
	"errors"
	"fmt"

	"espotifai/events"
	"espotifai/logger"
	"espotifai/metrics"
	"espotifai/model"
	"espotifai/repository"
)

// PlayTrack increments the play count of one track.
func (s *Service) PlayTrack(ctx context.Context, id string) (int, error) {
	return s.play(ctx, entityTrack, id, func(tx repository.CatalogRepository) ([]*model.Track, error) {
		track, err := tx.GetTrack(ctx, id)
		if err != nil || track == nil {
			return nil, err
		}
		return []*model.Track{track}, nil
	})
}

// PlayAlbum increments every track of the album in a single transaction.
func (s *Service) PlayAlbum(ctx context.Context, albumID string) (int, error) {
	return s.play(ctx, entityAlbum, albumID, func(tx repository.CatalogRepository) ([]*model.Track, error) {
		return tx.ListTracksByAlbum(ctx, albumID)
	})
}

// PlayArtist increments every track on every album of the artist in a single transaction.
func (s *Service) PlayArtist(ctx context.Context, artistID string) (int, error) {
	return s.play(ctx, entityArtist, artistID, func(tx repository.CatalogRepository) ([]*model.Track, error) {
		return tx.ListTracksByArtist(ctx, artistID)
	})
}

// play resolves the track set, increments it and commits once. Nothing is
// persisted when the set is empty or the commit fails.
func (s *Service) play(ctx context.Context, scope, id string, resolve func(tx repository.CatalogRepository) ([]*model.Track, error)) (int, error) {
	var played []*model.Track
	err := s.repo.InTx(ctx, func(tx repository.CatalogRepository) error {
		tracks, err := resolve(tx)
		if err != nil {
			return err
		}
		if len(tracks) == 0 {
			return fmt.Errorf("%w: no tracks for %s %s", ErrNotFound, scope, id)
		}

		ids := make([]string, len(tracks))
		for i, t := range tracks {
			ids[i] = t.ID
		}
		affected, err := tx.IncrementPlays(ctx, ids)
		if err != nil {
			return err
		}
		// 读取之后被并发删除
		if affected == 0 {
			return fmt.Errorf("%w: %s %s removed before play", ErrNotFound, scope, id)
		}
		played, err = tx.ListTracksByIDs(ctx, ids)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("play %s %s: %w", scope, id, err)
	}

	metrics.RecordPlays(len(played))
	s.publishPlays(ctx, played)
	return len(played), nil
}

// publishPlays is best effort, the counts are already committed.
func (s *Service) publishPlays(ctx context.Context, tracks []*model.Track) {
	now := s.now().UTC()
	plays := make([]events.Play, len(tracks))
	for i, t := range tracks {
		plays[i] = events.Play{
			TrackID:     t.ID,
			AlbumID:     t.AlbumID,
			ArtistID:    t.ArtistID,
			TimesPlayed: t.TimesPlayed,
			PlayedAt:    now,
		}
	}
	if err := s.publisher.PublishPlays(ctx, plays); err != nil {
		logger.Warn("Failed to publish play events",
			logger.Int("count", len(plays)),
			logger.ErrorField(err),
		)
	}
}
