/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package store persists finished matches. Persistence is optional: with no
// database configured the server records nothing and plays on.
package store

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MatchRecord is one finished session from one peer's point of view. Both
// peers of a room write their own row; the room code ties them together.
type MatchRecord struct {
	ID          string `gorm:"primaryKey;type:uuid"`
	RoomCode    string `gorm:"index;not null"`
	GameType    string `gorm:"not null"`
	PlayerID    string `gorm:"not null"`
	Role        string `gorm:"not null"`
	Outcome     string `gorm:"not null"`
	SecondsLeft int
	CreatedAt   time.Time
}

// Store records match outcomes.
type Store interface {
	RecordMatch(rec MatchRecord) error
	Close() error
}

// Postgres is the gorm-backed store.
type Postgres struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// OpenPostgres connects with the given DSN, migrates the schema and
// returns the store.
func OpenPostgres(dsn string, log *zap.SugaredLogger) (*Postgres, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetMaxOpenConns(16)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&MatchRecord{}); err != nil {
		return nil, err
	}

	return &Postgres{db: db, log: log}, nil
}

// RecordMatch inserts one finished session.
func (p *Postgres) RecordMatch(rec MatchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := p.db.Create(&rec).Error; err != nil {
		return err
	}
	p.log.Debugw("match recorded", "room", rec.RoomCode, "game", rec.GameType, "outcome", rec.Outcome)
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Discard is the store used when no database is configured.
type Discard struct{}

func (Discard) RecordMatch(MatchRecord) error { return nil }
func (Discard) Close() error                  { return nil }
