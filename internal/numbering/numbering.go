// Package numbering issues reservation numbers from a per-year sequence.
package numbering

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const format = "Ref - %07d/%d"

type Sequence struct {
	Year      int   `gorm:"primaryKey;autoIncrement:false"`
	Value     int64 `gorm:"not null"`
	UpdatedAt time.Time
}

func (Sequence) TableName() string { return "sequences" }

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects with the named driver ("sqlite" or "postgres") and migrates
// the sequences table.
func Open(driver, dsn string) (*Service, error) {
	var dial gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		dial = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dial = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported numbering driver %q", driver)
	}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open numbering db: %w", err)
	}
	return New(db)
}

func New(db *gorm.DB) (*Service, error) {
	if err := db.AutoMigrate(&Sequence{}); err != nil {
		return nil, fmt.Errorf("migrate sequences: %w", err)
	}
	return &Service{db: db, now: time.Now}, nil
}

// WithClock overrides the source of the current year.
func (s *Service) WithClock(now func() time.Time) *Service {
	c := *s
	c.now = now
	return &c
}

// Next increments this year's sequence and returns the formatted number.
func (s *Service) Next(ctx context.Context) (string, error) {
	year := s.now().Year()
	var value int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Sequence
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("year = ?", year).
			Limit(1).
			Find(&row).Error; err != nil {
			return err
		}
		if row.Year == 0 {
			value = 1
			return tx.Create(&Sequence{Year: year, Value: value}).Error
		}
		value = row.Value + 1
		return tx.Model(&Sequence{}).
			Where("year = ?", year).
			Updates(map[string]interface{}{"value": value, "updated_at": s.now().UTC()}).Error
	})
	if err != nil {
		return "", fmt.Errorf("next reservation number: %w", err)
	}
	return fmt.Sprintf(format, value, year), nil
}

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
