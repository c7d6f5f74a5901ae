package model

// Artist 表示一位艺术家
type Artist struct {
	ID        string `gorm:"primaryKey;type:varchar(22)" json:"id"`
	Name      string `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Age       int    `gorm:"not null" json:"age"`
	AlbumsURL string `gorm:"column:albums_url;type:varchar(512);not null" json:"albums"`
	TracksURL string `gorm:"column:tracks_url;type:varchar(512);not null" json:"tracks"`
	SelfURL   string `gorm:"column:self_url;type:varchar(512);not null;uniqueIndex" json:"self"`

	// 删除艺术家时由数据库级联删除其专辑和歌曲
	Albums []Album `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE" json:"-"`
	Tracks []Track `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (Artist) TableName() string {
	return "artists"
}
