package model

// Album 表示一张专辑
type Album struct {
	ID        string `gorm:"primaryKey;type:varchar(22)" json:"id"`
	ArtistID  string `gorm:"type:varchar(22);not null;index" json:"artist_id"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	Genre     string `gorm:"type:varchar(255);not null" json:"genre"`
	ArtistURL string `gorm:"column:artist_url;type:varchar(512);not null" json:"artist"`
	TracksURL string `gorm:"column:tracks_url;type:varchar(512);not null" json:"tracks"`
	SelfURL   string `gorm:"column:self_url;type:varchar(512);not null;uniqueIndex" json:"self"`

	Tracks []Track `gorm:"foreignKey:AlbumID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (Album) TableName() string {
	return "albums"
}
