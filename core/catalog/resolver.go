package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"espotifai/core/ident"
	"espotifai/logger"
	"espotifai/metrics"
	"espotifai/model"
	"espotifai/repository"

	"github.com/go-playground/validator/v10"
)

// ArtistParams are the raw create parameters for an artist.
type ArtistParams struct {
	Name string `validate:"required"`
	Age  string `validate:"required"`
}

// AlbumParams are the raw create parameters for an album under ArtistID.
type AlbumParams struct {
	ArtistID string `validate:"required"`
	Name     string `validate:"required"`
	Genre    string `validate:"required"`
}

// TrackParams are the raw create parameters for a track under AlbumID.
type TrackParams struct {
	AlbumID  string `validate:"required"`
	Name     string `validate:"required"`
	Duration string `validate:"required"`
}

// CreateArtist inserts a new artist. When an artist with the same name already
// exists the stored one is returned inside a *ConflictError.
func (s *Service) CreateArtist(ctx context.Context, p ArtistParams) (*model.Artist, error) {
	if err := s.check(entityArtist, p); err != nil {
		return nil, err
	}
	age, err := strconv.Atoi(p.Age)
	if err != nil || age < 0 {
		metrics.RecordCreate(entityArtist, metrics.OutcomeInvalid)
		return nil, invalid("age %q is not a non-negative integer", p.Age)
	}

	id := ident.Artist(p.Name)
	artist := &model.Artist{
		ID:        id,
		Name:      p.Name,
		Age:       age,
		AlbumsURL: s.links.ArtistAlbums(id),
		TracksURL: s.links.ArtistTracks(id),
		SelfURL:   s.links.Artist(id),
	}

	err = s.repo.InTx(ctx, func(tx repository.CatalogRepository) error {
		return tx.CreateArtist(ctx, artist)
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, s.conflict(ctx, entityArtist, id, func(ctx context.Context) (interface{}, bool, error) {
			existing, err := s.repo.GetArtist(ctx, id)
			return existing, existing != nil, err
		})
	}
	if err != nil {
		return nil, s.failed(entityArtist, id, err)
	}

	metrics.RecordCreate(entityArtist, metrics.OutcomeCreated)
	logger.Info("Artist created", logger.String("artistId", id), logger.String("name", p.Name))
	return artist, nil
}

// CreateAlbum inserts a new album for an existing artist.
func (s *Service) CreateAlbum(ctx context.Context, p AlbumParams) (*model.Album, error) {
	if err := s.check(entityAlbum, p); err != nil {
		return nil, err
	}

	id := ident.Album(p.Name, p.ArtistID)
	album := &model.Album{
		ID:        id,
		ArtistID:  p.ArtistID,
		Name:      p.Name,
		Genre:     p.Genre,
		ArtistURL: s.links.Artist(p.ArtistID),
		TracksURL: s.links.AlbumTracks(id),
		SelfURL:   s.links.Album(id),
	}

	// 艺术家是否存在由外键约束判断
	err := s.repo.InTx(ctx, func(tx repository.CatalogRepository) error {
		return tx.CreateAlbum(ctx, album)
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, s.conflict(ctx, entityAlbum, id, func(ctx context.Context) (interface{}, bool, error) {
			existing, err := s.repo.GetAlbum(ctx, id)
			return existing, existing != nil, err
		})
	}
	if err != nil {
		return nil, s.failed(entityAlbum, id, err)
	}

	metrics.RecordCreate(entityAlbum, metrics.OutcomeCreated)
	logger.Info("Album created",
		logger.String("albumId", id),
		logger.String("artistId", p.ArtistID),
		logger.String("name", p.Name),
	)
	return album, nil
}

// CreateTrack inserts a new track. The owning artist is taken from the album
// inside the same transaction.
func (s *Service) CreateTrack(ctx context.Context, p TrackParams) (*model.Track, error) {
	if err := s.check(entityTrack, p); err != nil {
		return nil, err
	}
	duration, err := strconv.ParseFloat(p.Duration, 64)
	if err != nil || math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		metrics.RecordCreate(entityTrack, metrics.OutcomeInvalid)
		return nil, invalid("duration %q is not a positive number", p.Duration)
	}

	id := ident.Track(p.Name, p.AlbumID)
	track := &model.Track{
		ID:       id,
		AlbumID:  p.AlbumID,
		Name:     p.Name,
		Duration: duration,
		AlbumURL: s.links.Album(p.AlbumID),
		SelfURL:  s.links.Track(id),
	}

	err = s.repo.InTx(ctx, func(tx repository.CatalogRepository) error {
		album, err := tx.GetAlbum(ctx, p.AlbumID)
		if err != nil {
			return err
		}
		if album == nil {
			return fmt.Errorf("%w: album %s", ErrReferential, p.AlbumID)
		}
		track.ArtistID = album.ArtistID
		track.ArtistURL = s.links.Artist(album.ArtistID)
		return tx.CreateTrack(ctx, track)
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, s.conflict(ctx, entityTrack, id, func(ctx context.Context) (interface{}, bool, error) {
			existing, err := s.repo.GetTrack(ctx, id)
			return existing, existing != nil, err
		})
	}
	if err != nil {
		return nil, s.failed(entityTrack, id, err)
	}

	metrics.RecordCreate(entityTrack, metrics.OutcomeCreated)
	logger.Info("Track created",
		logger.String("trackId", id),
		logger.String("albumId", p.AlbumID),
		logger.String("artistId", track.ArtistID),
	)
	return track, nil
}

// check reports every missing field at once. Numeric coercion happens afterwards with strconv.
func (s *Service) check(entity string, params interface{}) error {
	err := s.validate.Struct(params)
	if err == nil {
		return nil
	}
	metrics.RecordCreate(entity, metrics.OutcomeInvalid)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalid("%v", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+" is required")
	}
	return invalid("%s %s", entity, strings.Join(fields, ", "))
}

// conflict loads the entity that won the unique constraint. The insert
// transaction has already been rolled back at this point.
func (s *Service) conflict(ctx context.Context, entity, id string, load func(context.Context) (interface{}, bool, error)) error {
	existing, found, err := load(ctx)
	if err != nil {
		metrics.RecordCreate(entity, metrics.OutcomeError)
		return fmt.Errorf("load existing %s %s: %w", entity, id, err)
	}
	if !found {
		// 唯一约束冲突但记录已被并发删除
		metrics.RecordCreate(entity, metrics.OutcomeError)
		return fmt.Errorf("%s %s rejected as duplicate but no longer exists", entity, id)
	}

	metrics.RecordCreate(entity, metrics.OutcomeConflict)
	logger.Debug("Create conflicts with existing entity", logger.String("entity", entity), logger.String("id", id))
	return &ConflictError{Entity: entity, ID: id, Existing: existing}
}

// failed maps a rejected insert that is not a duplicate.
func (s *Service) failed(entity, id string, err error) error {
	switch {
	case errors.Is(err, ErrReferential):
		metrics.RecordCreate(entity, metrics.OutcomeUnprocessable)
		return err
	case errors.Is(err, repository.ErrForeignKey):
		metrics.RecordCreate(entity, metrics.OutcomeUnprocessable)
		return fmt.Errorf("%w: %s %s: %v", ErrReferential, entity, id, err)
	default:
		metrics.RecordCreate(entity, metrics.OutcomeError)
		logger.Error("Failed to create entity",
			logger.String("entity", entity),
			logger.String("id", id),
			logger.ErrorField(err),
		)
		return fmt.Errorf("create %s %s: %w", entity, id, err)
	}
}
