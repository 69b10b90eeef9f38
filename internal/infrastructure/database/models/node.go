package models

import (
	"time"
)

type Node struct {
	Address     string    `json:"address" gorm:"primaryKey;type:text"`
	URL         string    `json:"url" gorm:"type:text;uniqueIndex;not null"`
	Title       string    `json:"title" gorm:"type:text"`
	Description string    `json:"description" gorm:"type:text"`
	IsSelf      bool      `json:"isSelf" gorm:"not null;default:false"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate       time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

type Connection struct {
	Follower  string    `json:"follower" gorm:"primaryKey;type:text"`
	Followee  string    `json:"followee" gorm:"primaryKey;type:text"`
	Signature []byte    `json:"signature" gorm:"type:bytea"`
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
