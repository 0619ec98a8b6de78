package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const credentialKey = "session_token"

// Credential is the single-row table holding the bearer token.
type Credential struct {
	Key       string    `gorm:"primaryKey"`
	Token     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Credential) TableName() string { return "session_credentials" }

// GormStore implements Store over a GORM database so the credential
// survives process restarts.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by gorm.DB.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the credential table when missing.
func (store *GormStore) Migrate() error {
	return store.db.AutoMigrate(&Credential{})
}

// Save upserts the credential under the fixed key.
func (store *GormStore) Save(ctx context.Context, token string) error {
	credential := Credential{Key: credentialKey, Token: token, UpdatedAt: time.Now().UTC()}
	return store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
		}).
		Create(&credential).Error
}

// Read returns the stored credential. Storage failures read as absent so
// callers never have to distinguish "missing" from "unreadable".
func (store *GormStore) Read(ctx context.Context) (string, bool) {
	var credential Credential
	err := store.db.WithContext(ctx).
		Where("key = ?", credentialKey).
		First(&credential).Error
	if err != nil {
		return "", false
	}
	if credential.Token == "" {
		return "", false
	}
	return credential.Token, true
}

// Clear deletes the credential row. Deleting a missing row is not an error.
func (store *GormStore) Clear(ctx context.Context) error {
	err := store.db.WithContext(ctx).
		Where("key = ?", credentialKey).
		Delete(&Credential{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
