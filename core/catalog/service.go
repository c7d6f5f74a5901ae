// Package catalog implements the artist/album/track resource operations:
// create with conflict resolution, reads, cascading deletes and play counts.
package catalog

import (
	"context"
	"fmt"
	"time"

	"espotifai/events"
	"espotifai/model"
	"espotifai/repository"

	"github.com/go-playground/validator/v10"
)

const (
	entityArtist = "artist"
	entityAlbum  = "album"
	entityTrack  = "track"
)

// Service is the entry point used by the HTTP layer and the CLI.
type Service struct {
	repo      repository.CatalogRepository
	links     Links
	validate  *validator.Validate
	publisher events.Publisher
	now       func() time.Time
}

// NewService wires a service. A nil publisher disables play events.
func NewService(repo repository.CatalogRepository, baseURL string, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		links:     NewLinks(baseURL),
		validate:  validator.New(),
		publisher: publisher,
		now:       time.Now,
	}
}

// ========== 查询 ==========

func (s *Service) GetArtist(ctx context.Context, id string) (*model.Artist, error) {
	artist, err := s.repo.GetArtist(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get artist %s: %w", id, err)
	}
	if artist == nil {
		return nil, notFound(entityArtist, id)
	}
	return artist, nil
}

func (s *Service) GetAlbum(ctx context.Context, id string) (*model.Album, error) {
	album, err := s.repo.GetAlbum(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get album %s: %w", id, err)
	}
	if album == nil {
		return nil, notFound(entityAlbum, id)
	}
	return album, nil
}

func (s *Service) GetTrack(ctx context.Context, id string) (*model.Track, error) {
	track, err := s.repo.GetTrack(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get track %s: %w", id, err)
	}
	if track == nil {
		return nil, notFound(entityTrack, id)
	}
	return track, nil
}

// Collections answer ErrNotFound when empty, including scoped lists whose parent does not exist.

func (s *Service) ListArtists(ctx context.Context) ([]*model.Artist, error) {
	artists, err := s.repo.ListArtists(ctx)
	if err := checkList("artists", len(artists), err); err != nil {
		return nil, err
	}
	return artists, nil
}

func (s *Service) ListAlbums(ctx context.Context) ([]*model.Album, error) {
	albums, err := s.repo.ListAlbums(ctx)
	if err := checkList("albums", len(albums), err); err != nil {
		return nil, err
	}
	return albums, nil
}

func (s *Service) ListTracks(ctx context.Context) ([]*model.Track, error) {
	tracks, err := s.repo.ListTracks(ctx)
	if err := checkList("tracks", len(tracks), err); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (s *Service) ListArtistAlbums(ctx context.Context, artistID string) ([]*model.Album, error) {
	albums, err := s.repo.ListAlbumsByArtist(ctx, artistID)
	if err := checkList("albums of artist "+artistID, len(albums), err); err != nil {
		return nil, err
	}
	return albums, nil
}

func (s *Service) ListArtistTracks(ctx context.Context, artistID string) ([]*model.Track, error) {
	tracks, err := s.repo.ListTracksByArtist(ctx, artistID)
	if err := checkList("tracks of artist "+artistID, len(tracks), err); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (s *Service) ListAlbumTracks(ctx context.Context, albumID string) ([]*model.Track, error) {
	tracks, err := s.repo.ListTracksByAlbum(ctx, albumID)
	if err := checkList("tracks of album "+albumID, len(tracks), err); err != nil {
		return nil, err
	}
	return tracks, nil
}

func checkList(what string, n int, err error) error {
	if err != nil {
		return fmt.Errorf("list %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: no %s", ErrNotFound, what)
	}
	return nil
}

// ========== 删除 ==========

// DeleteArtist removes the artist with all of its albums and tracks.
func (s *Service) DeleteArtist(ctx context.Context, id string) error {
	existed, err := s.repo.DeleteArtist(ctx, id)
	return checkDelete(entityArtist, id, existed, err)
}

// DeleteAlbum removes the album and its tracks.
func (s *Service) DeleteAlbum(ctx context.Context, id string) error {
	existed, err := s.repo.DeleteAlbum(ctx, id)
	return checkDelete(entityAlbum, id, existed, err)
}

func (s *Service) DeleteTrack(ctx context.Context, id string) error {
	existed, err := s.repo.DeleteTrack(ctx, id)
	return checkDelete(entityTrack, id, existed, err)
}

func checkDelete(entity, id string, existed bool, err error) error {
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", entity, id, err)
	}
	if !existed {
		return notFound(entity, id)
	}
	return nil
}
