package models

// DefaultTagColor 不透明黑色 0xFF000000
const DefaultTagColor int64 = 4278190080

// Tag 标签模型，(ab_guid, name) 唯一；Color 为 32 位 ARGB
type Tag struct {
	ID     uint   `gorm:"primarykey"`
	ABGuid string `gorm:"column:ab_guid;not null;size:36;uniqueIndex:idx_tags_ab_name"`
	Name   string `gorm:"not null;size:255;uniqueIndex:idx_tags_ab_name"`
	Color  int64  `gorm:"not null"`
}

func (Tag) TableName() string {
	return "tags"
}
