package kb

import "gorm.io/gorm"

// Article represents an ingested help-center article persisted in the database.
// Body holds the cleaned plain-text rendering; RawBody keeps the original HTML
// for reference. Remote timestamps are stored as the endpoint returned them.
type Article struct {
	gorm.Model
	RemoteID        string `gorm:"size:64;uniqueIndex:idx_articles_remote_id;not null"`
	Title           string `gorm:"size:512"`
	Body            string `gorm:"type:text"`
	RawBody         string `gorm:"type:text"`
	HTMLURL         string `gorm:"size:1024"`
	SectionID       string `gorm:"size:64"`
	RemoteCreatedAt string `gorm:"size:64"`
	RemoteUpdatedAt string `gorm:"size:64"`
}

// TableName defines the table name for the Article model.
func (Article) TableName() string {
	return "articles"
}
