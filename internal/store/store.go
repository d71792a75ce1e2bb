// Package store persists logged sets in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alkime/liftlog/internal/workout"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("set not found")

// Config locates the database and scopes every query to one user.
type Config struct {
	Path   string
	UserID string
}

// Store wraps a SQLite-backed set log.
type Store struct {
	db     *sql.DB
	userID string
	log    *slog.Logger
	clock  func() time.Time
}

// Open creates the database file and schema if needed.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path cannot be empty")
	}
	if log == nil {
		log = slog.Default()
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, userID: cfg.UserID, log: log, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS sets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    date TEXT NOT NULL,
    exercise_name TEXT NOT NULL,
    weight REAL NOT NULL,
    reps INTEGER NOT NULL,
    set_number INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sets_user_date ON sets(user_id, date);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// LogSet writes a set. The input's UserID wins over the store's default.
func (s *Store) LogSet(ctx context.Context, in workout.LogInput) (workout.LoggedSet, error) {
	userID := in.UserID
	if userID == "" {
		userID = s.userID
	}
	if strings.TrimSpace(in.Date) == "" {
		return workout.LoggedSet{}, errors.New("log set: date is required")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sets(user_id, date, exercise_name, weight, reps, set_number, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		userID, in.Date, in.ExerciseName, in.Weight, in.Reps, in.SetNumber, s.clock().UTC())
	if err != nil {
		return workout.LoggedSet{}, fmt.Errorf("log set: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return workout.LoggedSet{}, fmt.Errorf("log set: %w", err)
	}

	s.log.Debug("set logged", "id", id, "exercise", in.ExerciseName, "setNumber", in.SetNumber)
	return workout.LoggedSet{
		ID:           id,
		Date:         in.Date,
		ExerciseName: in.ExerciseName,
		Weight:       in.Weight,
		Reps:         in.Reps,
		SetNumber:    in.SetNumber,
		UserID:       userID,
	}, nil
}

// SetsByDate returns the day's sets in the order they were logged.
func (s *Store) SetsByDate(ctx context.Context, date string) ([]workout.LoggedSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, exercise_name, weight, reps, set_number, user_id
		 FROM sets WHERE user_id = ? AND date = ? ORDER BY id ASC`,
		s.userID, date)
	if err != nil {
		return nil, fmt.Errorf("sets by date: %w", err)
	}
	defer rows.Close()

	var sets []workout.LoggedSet
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("sets by date: %w", err)
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sets by date: %w", err)
	}
	return sets, nil
}

// SetByID returns one set or ErrNotFound.
func (s *Store) SetByID(ctx context.Context, id int64) (workout.LoggedSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, exercise_name, weight, reps, set_number, user_id
		 FROM sets WHERE user_id = ? AND id = ?`,
		s.userID, id)
	set, err := scanSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return workout.LoggedSet{}, ErrNotFound
	}
	if err != nil {
		return workout.LoggedSet{}, fmt.Errorf("set by id: %w", err)
	}
	return set, nil
}

// MostRecentDateBefore finds the latest workout day strictly before date.
func (s *Store) MostRecentDateBefore(ctx context.Context, date string) (string, bool, error) {
	var prev sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(date) FROM sets WHERE user_id = ? AND date < ?`,
		s.userID, date).Scan(&prev)
	if err != nil {
		return "", false, fmt.Errorf("most recent date: %w", err)
	}
	if !prev.Valid {
		return "", false, nil
	}
	return prev.String, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSet(row scanner) (workout.LoggedSet, error) {
	var set workout.LoggedSet
	err := row.Scan(&set.ID, &set.Date, &set.ExerciseName, &set.Weight, &set.Reps, &set.SetNumber, &set.UserID)
	return set, err
}
