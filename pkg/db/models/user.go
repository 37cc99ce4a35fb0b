package models

import "time"

// User mirrors a platform viewer with a points balance. Identity comes from
// the upstream chat platform, so the primary key is not autoincremented.
type User struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	Username     string    `gorm:"column:username;type:text;not null;uniqueIndex"`
	DisplayName  string    `gorm:"column:display_name;type:text;not null"`
	IsSubscriber bool      `gorm:"column:is_subscriber;not null;default:false"`
	Points       int64     `gorm:"column:points;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
