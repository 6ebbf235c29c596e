package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"minishop/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type sqliteEntry struct {
	Namespace string `gorm:"column:namespace;primaryKey"`
	Key       string `gorm:"column:entry_key;primaryKey"`
	Value     string `gorm:"column:value;not null"`
	UpdatedAt time.Time
}

func (sqliteEntry) TableName() string { return "kv_entries" }

type sqliteRepo struct {
	db *gorm.DB
}

// NewSQLite opens (or creates) a single-file store at path.
func NewSQLite(path string) (Repository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&sqliteEntry{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &sqliteRepo{db: db}, nil
}

func (r *sqliteRepo) Get(ctx context.Context, namespace, key string) (string, error) {
	var e sqliteEntry
	err := r.db.WithContext(ctx).
		Where("namespace = ? AND entry_key = ?", namespace, key).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

func (r *sqliteRepo) Set(ctx context.Context, namespace, key, value string) error {
	e := sqliteEntry{Namespace: namespace, Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

func (r *sqliteRepo) Delete(ctx context.Context, namespace, key string) error {
	return r.db.WithContext(ctx).
		Where("namespace = ? AND entry_key = ?", namespace, key).
		Delete(&sqliteEntry{}).Error
}

func (r *sqliteRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *sqliteRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
