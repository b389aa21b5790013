package server

import (
	"context"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/orthodoxmetrics/logdeck/internal/model"
)

// LogEntry is the persisted log row.
type LogEntry struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Timestamp       time.Time `gorm:"index" json:"timestamp"`
	Level           string    `gorm:"size:16;index" json:"level"`
	Source          string    `gorm:"size:16;index" json:"source"`
	Message         string    `gorm:"type:text" json:"message"`
	Details         string    `gorm:"type:text" json:"-"`
	SourceComponent string    `gorm:"size:128" json:"source_component,omitempty"`
	Hash            string    `gorm:"size:64;index" json:"hash,omitempty"`
	CreatedAt       time.Time `json:"-"`
}

// TrackedIssue records one escalated error hash and its tracker issue.
type TrackedIssue struct {
	ErrorHash       string    `gorm:"primaryKey;size:64"`
	IssueURL        string    `gorm:"size:255"`
	IssueNumber     int
	OccurrenceCount int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Filters narrows a log query.
type Filters struct {
	Level     string
	Source    string
	StartDate time.Time
	EndDate   time.Time
	Search    string
	Limit     int
	Sort      string // "asc" or "desc"
}

// Store is the persistence contract the HTTP surface depends on.
type Store interface {
	InsertLog(ctx context.Context, entry *LogEntry) error
	QueryLogs(ctx context.Context, f Filters) ([]LogEntry, error)
	FindIssue(ctx context.Context, hash string) (*TrackedIssue, error)
	SaveIssue(ctx context.Context, issue *TrackedIssue) error
	BumpIssue(ctx context.Context, hash string) error
	Ping(ctx context.Context) error
}

// MySQLStore implements Store on gorm/MySQL.
type MySQLStore struct {
	db *gorm.DB
}

// OpenMySQL connects and migrates the schema.
func OpenMySQL(dsn string) (*MySQLStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&LogEntry{}, &TrackedIssue{}); err != nil {
		return nil, err
	}
	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) InsertLog(ctx context.Context, entry *LogEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *MySQLStore) QueryLogs(ctx context.Context, f Filters) ([]LogEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = model.DefaultQueryLimit
	}
	if limit > model.MaxQueryLimit {
		limit = model.MaxQueryLimit
	}

	q := s.db.WithContext(ctx).Model(&LogEntry{})
	if f.Level != "" && !strings.EqualFold(f.Level, "ALL") {
		q = q.Where("level = ?", strings.ToUpper(f.Level))
	}
	if f.Source != "" {
		q = q.Where("source = ?", strings.ToLower(f.Source))
	}
	if !f.StartDate.IsZero() {
		q = q.Where("timestamp >= ?", f.StartDate)
	}
	if !f.EndDate.IsZero() {
		q = q.Where("timestamp < ?", f.EndDate)
	}
	if f.Search != "" {
		needle := "%" + f.Search + "%"
		q = q.Where("message LIKE ? OR source_component LIKE ?", needle, needle)
	}

	order := "timestamp DESC"
	if f.Sort == "asc" {
		order = "timestamp ASC"
	}

	var entries []LogEntry
	err := q.Order(order).Limit(limit).Find(&entries).Error
	return entries, err
}

func (s *MySQLStore) FindIssue(ctx context.Context, hash string) (*TrackedIssue, error) {
	var issue TrackedIssue
	err := s.db.WithContext(ctx).First(&issue, "error_hash = ?", hash).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (s *MySQLStore) SaveIssue(ctx context.Context, issue *TrackedIssue) error {
	return s.db.WithContext(ctx).Create(issue).Error
}

func (s *MySQLStore) BumpIssue(ctx context.Context, hash string) error {
	return s.db.WithContext(ctx).
		Model(&TrackedIssue{}).
		Where("error_hash = ?", hash).
		UpdateColumn("occurrence_count", gorm.Expr("occurrence_count + 1")).Error
}

func (s *MySQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
