package repository

import (
	"context"
	"errors"

	"espotifai/model"

	"gorm.io/gorm"
)

// CatalogRepository 艺术家/专辑/歌曲数据访问接口.
// Get 系列方法在记录不存在时返回 nil, nil.
type CatalogRepository interface {
	// InTx 在单个事务中执行 fn, 返回的错误已经过 Classify
	InTx(ctx context.Context, fn func(tx CatalogRepository) error) error

	// 艺术家
	CreateArtist(ctx context.Context, artist *model.Artist) error
	GetArtist(ctx context.Context, id string) (*model.Artist, error)
	ListArtists(ctx context.Context) ([]*model.Artist, error)
	DeleteArtist(ctx context.Context, id string) (bool, error)

	// 专辑
	CreateAlbum(ctx context.Context, album *model.Album) error
	GetAlbum(ctx context.Context, id string) (*model.Album, error)
	ListAlbums(ctx context.Context) ([]*model.Album, error)
	ListAlbumsByArtist(ctx context.Context, artistID string) ([]*model.Album, error)
	DeleteAlbum(ctx context.Context, id string) (bool, error)

	// 歌曲
	CreateTrack(ctx context.Context, track *model.Track) error
	GetTrack(ctx context.Context, id string) (*model.Track, error)
	ListTracks(ctx context.Context) ([]*model.Track, error)
	ListTracksByArtist(ctx context.Context, artistID string) ([]*model.Track, error)
	ListTracksByAlbum(ctx context.Context, albumID string) ([]*model.Track, error)
	ListTracksByIDs(ctx context.Context, ids []string) ([]*model.Track, error)
	DeleteTrack(ctx context.Context, id string) (bool, error)

	// IncrementPlays 将指定歌曲的播放次数加一, 返回受影响的行数
	IncrementPlays(ctx context.Context, ids []string) (int64, error)
}

// gormCatalogRepository GORM 实现
type gormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository 创建 GORM 目录仓库
func NewGormCatalogRepository(db *gorm.DB) CatalogRepository {
	return &gormCatalogRepository{db: db}
}

// InTx 开启事务, fn 返回错误时回滚
func (r *gormCatalogRepository) InTx(ctx context.Context, fn func(tx CatalogRepository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormCatalogRepository{db: tx})
	})
	return Classify(err)
}

// ========== 艺术家 ==========

// CreateArtist 插入艺术家
func (r *gormCatalogRepository) CreateArtist(ctx context.Context, artist *model.Artist) error {
	return Classify(r.db.WithContext(ctx).Create(artist).Error)
}

// GetArtist 根据ID获取艺术家
func (r *gormCatalogRepository) GetArtist(ctx context.Context, id string) (*model.Artist, error) {
	var artist model.Artist
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&artist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &artist, nil
}

// ListArtists 获取全部艺术家
func (r *gormCatalogRepository) ListArtists(ctx context.Context) ([]*model.Artist, error) {
	var artists []*model.Artist
	err := r.db.WithContext(ctx).Find(&artists).Error
	return artists, err
}

// DeleteArtist 删除艺术家, 专辑和歌曲由外键级联删除
func (r *gormCatalogRepository) DeleteArtist(ctx context.Context, id string) (bool, error) {
	return r.deleteByID(ctx, &model.Artist{}, id)
}

// ========== 专辑 ==========

// CreateAlbum 插入专辑
func (r *gormCatalogRepository) CreateAlbum(ctx context.Context, album *model.Album) error {
	return Classify(r.db.WithContext(ctx).Create(album).Error)
}

// GetAlbum 根据ID获取专辑
func (r *gormCatalogRepository) GetAlbum(ctx context.Context, id string) (*model.Album, error) {
	var album model.Album
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&album).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &album, nil
}

// ListAlbums 获取全部专辑
func (r *gormCatalogRepository) ListAlbums(ctx context.Context) ([]*model.Album, error) {
	var albums []*model.Album
	err := r.db.WithContext(ctx).Find(&albums).Error
	return albums, err
}

// ListAlbumsByArtist 获取艺术家的全部专辑
func (r *gormCatalogRepository) ListAlbumsByArtist(ctx context.Context, artistID string) ([]*model.Album, error) {
	var albums []*model.Album
	err := r.db.WithContext(ctx).Where("artist_id = ?", artistID).Find(&albums).Error
	return albums, err
}

// DeleteAlbum 删除专辑, 歌曲由外键级联删除
func (r *gormCatalogRepository) DeleteAlbum(ctx context.Context, id string) (bool, error) {
	return r.deleteByID(ctx, &model.Album{}, id)
}

// ========== 歌曲 ==========

// CreateTrack 插入歌曲, 调用方负责填写 ArtistID
func (r *gormCatalogRepository) CreateTrack(ctx context.Context, track *model.Track) error {
	return Classify(r.db.WithContext(ctx).Create(track).Error)
}

// GetTrack 根据ID获取歌曲
func (r *gormCatalogRepository) GetTrack(ctx context.Context, id string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// ListTracks 获取全部歌曲
func (r *gormCatalogRepository) ListTracks(ctx context.Context) ([]*model.Track, error) {
	var tracks []*model.Track
	err := r.db.WithContext(ctx).Find(&tracks).Error
	return tracks, err
}

// ListTracksByArtist 获取艺术家的全部歌曲
func (r *gormCatalogRepository) ListTracksByArtist(ctx context.Context, artistID string) ([]*model.Track, error) {
	var tracks []*model.Track
	err := r.db.WithContext(ctx).Where("artist_id = ?", artistID).Find(&tracks).Error
	return tracks, err
}

// ListTracksByAlbum 获取专辑的全部歌曲
func (r *gormCatalogRepository) ListTracksByAlbum(ctx context.Context, albumID string) ([]*model.Track, error) {
	var tracks []*model.Track
	err := r.db.WithContext(ctx).Where("album_id = ?", albumID).Find(&tracks).Error
	return tracks, err
}

// ListTracksByIDs 批量获取歌曲
func (r *gormCatalogRepository) ListTracksByIDs(ctx context.Context, ids []string) ([]*model.Track, error) {
	var tracks []*model.Track
	if len(ids) == 0 {
		return tracks, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tracks).Error
	return tracks, err
}

// DeleteTrack 删除歌曲
func (r *gormCatalogRepository) DeleteTrack(ctx context.Context, id string) (bool, error) {
	return r.deleteByID(ctx, &model.Track{}, id)
}

// IncrementPlays 播放次数加一
func (r *gormCatalogRepository) IncrementPlays(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&model.Track{}).
		Where("id IN ?", ids).
		UpdateColumn("times_played", gorm.Expr("times_played + ?", 1))
	return result.RowsAffected, result.Error
}

func (r *gormCatalogRepository) deleteByID(ctx context.Context, value interface{}, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(value)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
