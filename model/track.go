package model

// Track represents a single song on an album.
// ArtistID is copied from the album when the track is created and is not part of the API payload.
type Track struct {
	ID          string  `gorm:"primaryKey;type:varchar(22)" json:"id"`
	AlbumID     string  `gorm:"type:varchar(22);not null;index" json:"album_id"`
	ArtistID    string  `gorm:"type:varchar(22);not null;index" json:"-"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Duration    float64 `gorm:"not null" json:"duration"` // seconds
	TimesPlayed int     `gorm:"not null;default:0" json:"times_played"`
	ArtistURL   string  `gorm:"column:artist_url;type:varchar(512);not null" json:"artist"`
	AlbumURL    string  `gorm:"column:album_url;type:varchar(512);not null" json:"album"`
	SelfURL     string  `gorm:"column:self_url;type:varchar(512);not null;uniqueIndex" json:"self"`
}

// TableName returns the table backing Track.
func (Track) TableName() string {
	return "tracks"
}

// Models lists every catalog model in dependency order, for migrations.
func Models() []interface{} {
	return []interface{}{&Artist{}, &Album{}, &Track{}}
}
