package store

import (
	"context"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pixelbattle/pixel-battle-backend/internal/canvas"
)

var ErrNotFound = errors.New("not found")
var ErrAlreadyExists = errors.New("already exists")

// User is one row per identity. Team is write-once: nothing after
// CreateUser ever changes it. LastPlaced only moves forward, and only
// via RecordPlacement.
type User struct {
	Identity   string      `gorm:"primaryKey" json:"identity"`
	Team       canvas.Team `json:"team"`
	LastPlaced int64       `json:"last_placed"`
}

// Pixel is one entry in the append-only placement log. Rows are never
// updated or deleted; the current color of a cell is the latest row for
// that (x, y).
type Pixel struct {
	ID       uint        `gorm:"primaryKey" json:"id"`
	Identity string      `gorm:"index" json:"identity"`
	Team     canvas.Team `json:"team"`
	X        int         `json:"x"`
	Y        int         `json:"y"`
	Color    canvas.Team `json:"color"`
	PlacedAt int64       `json:"placed_at"`
}

type TeamCount struct {
	Team       canvas.Team `json:"team"`
	PixelCount int64       `json:"pixel_count"`
}

type Store struct {
	db *gorm.DB
}

// Open connects to postgres and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return New(db)
}

// New wraps an already-open gorm DB (tests hand in sqlite here).
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&User{}, &Pixel{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) GetUser(ctx context.Context, identity string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "identity = ?", identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts the row for a first-time identity with LastPlaced=0.
// Returns ErrAlreadyExists if the identity already has a row; the caller
// treats that as idempotent success using the existing team.
func (s *Store) CreateUser(ctx context.Context, identity string, team canvas.Team) (*User, error) {
	u := User{Identity: identity, Team: team, LastPlaced: 0}
	err := s.db.WithContext(ctx).Create(&u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RecordPlacement appends a pixel row and bumps the user's LastPlaced in
// one transaction, so no reader sees one write without the other.
func (s *Store) RecordPlacement(ctx context.Context, identity string, team canvas.Team, x, y int, color canvas.Team, ts int64) (*Pixel, error) {
	p := Pixel{Identity: identity, Team: team, X: x, Y: y, Color: color, PlacedAt: ts}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return tx.Model(&User{}).Where("identity = ?", identity).
			Update("last_placed", ts).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPixels returns the full log in insertion order.
func (s *Store) ListPixels(ctx context.Context) ([]Pixel, error) {
	var pixels []Pixel
	if err := s.db.WithContext(ctx).Order("id asc").Find(&pixels).Error; err != nil {
		return nil, err
	}
	return pixels, nil
}

// ListPixelsDesc returns the full log most-recent-first (admin view).
func (s *Store) ListPixelsDesc(ctx context.Context) ([]Pixel, error) {
	var pixels []Pixel
	err := s.db.WithContext(ctx).Order("placed_at desc, id desc").Find(&pixels).Error
	if err != nil {
		return nil, err
	}
	return pixels, nil
}

// TeamCounts groups the placement log by team.
func (s *Store) TeamCounts(ctx context.Context) ([]TeamCount, error) {
	var counts []TeamCount
	err := s.db.WithContext(ctx).Model(&Pixel{}).
		Select("team, count(*) as pixel_count").
		Group("team").
		Order("team asc").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
