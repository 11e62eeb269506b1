package repository

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
)

// Open connects to postgres with duplicate-key errors translated to
// gorm.ErrDuplicatedKey.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("connected to database")
	return db, nil
}

// Migrate creates or updates the tables a service role owns.
func Migrate(db *gorm.DB, models ...any) error {
	if len(models) == 0 {
		models = []any{&model.Hotel{}, &model.Reservation{}, &model.OutboxEvent{}, &model.Payment{}}
	}
	return db.AutoMigrate(models...)
}
