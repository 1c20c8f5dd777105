package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// artifactRow is one stored artifact.
type artifactRow struct {
	Key       string `gorm:"column:artifact_key;primaryKey;size:255"`
	Data      []byte `gorm:"column:data;not null"`
	UpdatedAt time.Time
}

func (artifactRow) TableName() string {
	return "environment_artifacts"
}

// SQLiteStore keeps artifacts in a SQLite table.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (creating if needed) the SQLite database at path and
// migrates the artifact table. An empty path opens an in-memory database.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite artifact db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("accessing sql interface: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&artifactRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating artifact table: %w", err)
	}

	logger.Info("artifact database opened", "backend", BackendSQLite, "path", dsn)
	return &SQLiteStore{db: db}, nil
}

// Load returns the artifact stored under key.
func (s *SQLiteStore) Load(ctx context.Context, key string) ([]byte, error) {
	var row artifactRow
	err := s.db.WithContext(ctx).Where("artifact_key = ?", key).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("querying artifact: %w", err)
	}
	return row.Data, nil
}

// Save inserts or replaces the artifact stored under key.
func (s *SQLiteStore) Save(ctx context.Context, key string, data []byte) error {
	row := artifactRow{Key: key, Data: data, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "artifact_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upserting artifact: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
