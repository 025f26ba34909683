package prefs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/logger"
)

// Preference is one stored key-value row.
type Preference struct {
	Key       string `gorm:"primaryKey;column:pref_key;size:128"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// SQLiteStore persists preferences in a SQLite file through GORM.
type SQLiteStore struct {
	db   *gorm.DB
	path string
	log  logger.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(path string, debug bool, log logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.Global().Module("preferences")
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.New(err).
				Component("preferences").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	logLevel := gormlogger.Silent
	if debug {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, errors.New(err).
			Component("preferences").
			Category(errors.CategoryDatabase).
			Context("operation", "open").
			Context("path", path).
			Build()
	}

	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := db.AutoMigrate(&Preference{}); err != nil {
		return nil, errors.New(err).
			Component("preferences").
			Category(errors.CategoryDatabase).
			Context("operation", "migrate").
			Build()
	}

	log.Debug("Preference store opened", logger.String("backend", "sqlite"), logger.String("path", path))
	return &SQLiteStore{db: db, path: path, log: log}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}

	var rows []Preference
	if err := s.db.WithContext(ctx).Where("pref_key = ?", key).Limit(1).Find(&rows).Error; err != nil {
		return "", false, s.dbError(err, "get", key)
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].Value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	row := Preference{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pref_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return s.dbError(err, "set", key)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("pref_key = ?", key).Delete(&Preference{}).Error; err != nil {
		return s.dbError(err, "delete", key)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) dbError(err error, operation, key string) error {
	s.log.Warn("Preference store operation failed",
		logger.String("operation", operation),
		logger.String("key", key),
		logger.Error(err))
	return errors.New(err).
		Component("preferences").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("key", key).
		Build()
}
