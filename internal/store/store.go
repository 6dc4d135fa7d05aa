// Package store persists synthesized keyframes in SQLite
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ivlev/camwork/internal/motion"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a keyframe store backed by a single SQLite file
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens (and migrates) the database at dbPath
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	s := &Store{conn: conn, logger: logger}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}

		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}

		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}

		if s.logger != nil {
			s.logger.Info("applied migration", "name", name)
		}
	}

	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Clip is one clip's synthesized keyframes together with the rule that produced them
type Clip struct {
	ID          string
	RuleApplied string
	Keyframes   []motion.Keyframe
}

// SaveClip replaces every keyframe of clipID in a single transaction.
// Rows are unique per (clip_id, property, offset).
func (s *Store) SaveClip(ctx context.Context, timelineID, clipID, ruleApplied string, keyframes []motion.Keyframe) error {
	return s.SaveTimeline(ctx, timelineID, []Clip{{ID: clipID, RuleApplied: ruleApplied, Keyframes: keyframes}})
}

// SaveTimeline replaces the keyframes of every clip in one transaction.
// A failure on any clip leaves the store as it was.
func (s *Store) SaveTimeline(ctx context.Context, timelineID string, clips []Clip) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin timeline %s: %w", timelineID, err)
	}
	defer tx.Rollback()

	updatedAt := time.Now().UTC().Format(time.RFC3339)
	for _, clip := range clips {
		if err := saveClip(ctx, tx, timelineID, clip, updatedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit timeline %s: %w", timelineID, err)
	}
	if s.logger != nil {
		s.logger.Debug("saved timeline", "timeline_id", timelineID, "clips", len(clips))
	}
	return nil
}

func saveClip(ctx context.Context, tx *sql.Tx, timelineID string, clip Clip, updatedAt string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM keyframes WHERE clip_id = ?`, clip.ID); err != nil {
		return fmt.Errorf("clear clip %s: %w", clip.ID, err)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO clips (clip_id, timeline_id, rule_applied, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(clip_id) DO UPDATE SET
			timeline_id = excluded.timeline_id,
			rule_applied = excluded.rule_applied,
			updated_at = excluded.updated_at
	`, clip.ID, timelineID, clip.RuleApplied, updatedAt)
	if err != nil {
		return fmt.Errorf("upsert clip %s: %w", clip.ID, err)
	}

	for _, kf := range clip.Keyframes {
		value, err := json.Marshal(kf.Value)
		if err != nil {
			return fmt.Errorf("encode %s keyframe of %s: %w", kf.Property, clip.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO keyframes (id, clip_id, property, time_offset, time_ms, value, easing)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), clip.ID, string(kf.Property), kf.Offset, kf.TimeMs, string(value), string(kf.Easing))
		if err != nil {
			return fmt.Errorf("insert %s keyframe of %s: %w", kf.Property, clip.ID, err)
		}
	}
	return nil
}

// ListClip returns a clip's keyframes in timeline order together with the
// rule that produced them. A missing clip yields no keyframes and no error.
func (s *Store) ListClip(ctx context.Context, clipID string) ([]motion.Keyframe, string, error) {
	var ruleApplied string
	err := s.conn.QueryRowContext(ctx, `SELECT rule_applied FROM clips WHERE clip_id = ?`, clipID).Scan(&ruleApplied)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT property, time_offset, time_ms, value, easing
		FROM keyframes WHERE clip_id = ?
		ORDER BY CASE property WHEN 'scale' THEN 0 WHEN 'position' THEN 1 ELSE 2 END, time_offset
	`, clipID)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var keyframes []motion.Keyframe
	for rows.Next() {
		var kf motion.Keyframe
		var property, value, easing string
		if err := rows.Scan(&property, &kf.Offset, &kf.TimeMs, &value, &easing); err != nil {
			return nil, "", err
		}
		kf.ClipID = clipID
		kf.Property = motion.Property(property)
		kf.Easing = motion.Easing(easing)
		if kf.Value, err = decodeValue(kf.Property, value); err != nil {
			return nil, "", fmt.Errorf("decode %s keyframe of %s: %w", property, clipID, err)
		}
		keyframes = append(keyframes, kf)
	}
	return keyframes, ruleApplied, rows.Err()
}

// ListTimeline returns the clip ids stored for a timeline, in id order
func (s *Store) ListTimeline(ctx context.Context, timelineID string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT clip_id FROM clips WHERE timeline_id = ? ORDER BY clip_id`, timelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func decodeValue(property motion.Property, raw string) (any, error) {
	if property == motion.PropertyPosition {
		var p motion.Point
		err := json.Unmarshal([]byte(raw), &p)
		return p, err
	}
	var v float64
	err := json.Unmarshal([]byte(raw), &v)
	return v, err
}
