package models

import (
	"time"

	"github.com/lib/pq"
)

type Content struct {
	ContentHash string    `json:"contentHash" gorm:"primaryKey;type:text"`
	Type        string    `json:"type" gorm:"type:text;not null"`
	Body        string    `json:"body" gorm:"type:text"`
	Filename    string    `json:"filename" gorm:"type:text"`
	MimeType    string    `json:"mimeType" gorm:"type:text"`
	Size        int64     `json:"size"`
	LocalPath   string    `json:"-" gorm:"type:text"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Publication struct {
	ID          int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	ContentHash string         `json:"contentHash" gorm:"type:text;uniqueIndex"`
	Content     Content        `json:"content" gorm:"foreignKey:ContentHash;references:ContentHash;constraint:OnDelete:CASCADE;"`
	Author      string         `json:"author" gorm:"type:text;index"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`
	Signature   []byte         `json:"signature" gorm:"type:bytea"`
	CDate       time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate       time.Time      `json:"mdate" gorm:"autoUpdateTime"`
}

type Comment struct {
	ID            int64       `json:"id" gorm:"primaryKey;autoIncrement"`
	PublicationID int64       `json:"publicationId" gorm:"index;not null"`
	Publication   Publication `json:"-" gorm:"foreignKey:PublicationID;references:ID;constraint:OnDelete:CASCADE;"`
	Body          string      `json:"body" gorm:"type:text;not null"`
	Status        string      `json:"status" gorm:"type:text;not null;index"`
	AuthType      string      `json:"authType" gorm:"type:text;not null"`
	AuthorName    string      `json:"authorName" gorm:"type:text"`
	AuthorID      string      `json:"authorId" gorm:"type:text;not null"`
	Credential    []byte      `json:"-" gorm:"type:bytea"`
	CDate         time.Time   `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
