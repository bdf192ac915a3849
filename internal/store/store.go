// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/runrun/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrExists is returned when inserting a record whose ID is already stored.
var ErrExists = errors.New("already exists")

// Times are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps SQLite access for running data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			distance_m REAL NOT NULL,
			duration_s REAL NOT NULL,
			calories REAL,
			avg_hr REAL,
			max_hr REAL,
			min_hr REAL,
			cadence REAL,
			stride_m REAL,
			steps INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS route_samples (
			record_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at TEXT NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			distance_m REAL NOT NULL,
			PRIMARY KEY (record_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS heart_rate_samples (
			record_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at TEXT NOT NULL,
			bpm REAL NOT NULL,
			PRIMARY KEY (record_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS goals (
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			target_m REAL NOT NULL,
			PRIMARY KEY (user_id, type, year, month)
		);`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS friendships (
			user_id TEXT NOT NULL,
			friend_id TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (user_id, friend_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_user_started ON records(user_id, started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_friendships_friend ON friendships(friend_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRecord stores a record with its track and heart-rate samples in one transaction.
func (s *Store) InsertRecord(ctx context.Context, rec model.RunningRecord, track []model.RouteSample, hr []model.HeartRateSample) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO records (id, user_id, started_at, distance_m, duration_s, calories, avg_hr, max_hr, min_hr, cadence, stride_m, steps)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		rec.ID,
		rec.UserID,
		formatTime(rec.Start),
		rec.Distance,
		rec.Duration,
		nullFloat(rec.Calories),
		nullFloat(rec.AvgHeartRate),
		nullFloat(rec.MaxHeartRate),
		nullFloat(rec.MinHeartRate),
		nullFloat(rec.Cadence),
		nullFloat(rec.StrideLength),
		nullInt(rec.StepCount),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = fmt.Errorf("record %s: %w", rec.ID, ErrExists)
		return err
	}

	if err = insertTrack(ctx, tx, rec.ID, track); err != nil {
		return err
	}
	if err = insertHeartRates(ctx, tx, rec.ID, hr); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTrack(ctx context.Context, tx *sql.Tx, id string, track []model.RouteSample) error {
	if len(track) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO route_samples (record_id, seq, at, lat, lon, distance_m) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i, p := range track {
		if _, err := stmt.ExecContext(ctx, id, i, formatTime(p.Time), p.Latitude, p.Longitude, p.Distance); err != nil {
			return fmt.Errorf("failed to insert route sample: %w", err)
		}
	}
	return nil
}

func insertHeartRates(ctx context.Context, tx *sql.Tx, id string, hr []model.HeartRateSample) error {
	if len(hr) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO heart_rate_samples (record_id, seq, at, bpm) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i, s := range hr {
		if _, err := stmt.ExecContext(ctx, id, i, formatTime(s.Time), s.BPM); err != nil {
			return fmt.Errorf("failed to insert heart rate sample: %w", err)
		}
	}
	return nil
}

const recordColumns = `id, user_id, started_at, distance_m, duration_s, calories, avg_hr, max_hr, min_hr, cadence, stride_m, steps`

// ListRecords returns records matching the filter in start order.
func (s *Store) ListRecords(ctx context.Context, filter model.RecordFilter) ([]model.RunningRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, formatTime(*filter.Since))
	}
	if filter.Until != nil {
		clauses = append(clauses, "started_at < ?")
		args = append(args, formatTime(*filter.Until))
	}
	query := fmt.Sprintf(`SELECT %s FROM records WHERE %s ORDER BY started_at ASC, id ASC`,
		recordColumns, strings.Join(clauses, " AND "))
	if filter.Last > 0 {
		query = fmt.Sprintf(`SELECT %s FROM (
			SELECT %s FROM records WHERE %s ORDER BY started_at DESC, id DESC LIMIT ?
		) ORDER BY started_at ASC, id ASC`, recordColumns, recordColumns, strings.Join(clauses, " AND "))
		args = append(args, filter.Last)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.RunningRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// GetRecord returns one record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (model.RunningRecord, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM records WHERE id = ?`, recordColumns), id)
	rec, err := scanRecord(row)
	if isNoRows(err) {
		return model.RunningRecord{}, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return rec, err
}

// GetTrack returns the stored route samples of a record in order.
func (s *Store) GetTrack(ctx context.Context, id string) ([]model.RouteSample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, lat, lon, distance_m FROM route_samples WHERE record_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var track []model.RouteSample
	for rows.Next() {
		var p model.RouteSample
		var at string
		if err := rows.Scan(&at, &p.Latitude, &p.Longitude, &p.Distance); err != nil {
			return nil, err
		}
		if p.Time, err = parseTime(at); err != nil {
			return nil, err
		}
		track = append(track, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return track, nil
}

// GetHeartRates returns the stored heart-rate samples of a record in order.
func (s *Store) GetHeartRates(ctx context.Context, id string) ([]model.HeartRateSample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, bpm FROM heart_rate_samples WHERE record_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var samples []model.HeartRateSample
	for rows.Next() {
		var hs model.HeartRateSample
		var at string
		if err := rows.Scan(&at, &hs.BPM); err != nil {
			return nil, err
		}
		if hs.Time, err = parseTime(at); err != nil {
			return nil, err
		}
		samples = append(samples, hs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// DeleteRecord removes a record with its samples.
func (s *Store) DeleteRecord(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	for _, table := range []string{"route_samples", "heart_rate_samples"} {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE record_id = ?`, table), id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = fmt.Errorf("record %s: %w", id, ErrNotFound)
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (model.RunningRecord, error) {
	var rec model.RunningRecord
	var startedAt string
	var calories, avgHR, maxHR, minHR, cadence, stride sql.NullFloat64
	var steps sql.NullInt64
	if err := row.Scan(&rec.ID, &rec.UserID, &startedAt, &rec.Distance, &rec.Duration,
		&calories, &avgHR, &maxHR, &minHR, &cadence, &stride, &steps); err != nil {
		return model.RunningRecord{}, err
	}
	start, err := parseTime(startedAt)
	if err != nil {
		return model.RunningRecord{}, err
	}
	rec.Start = start
	rec.Calories = floatPtr(calories)
	rec.AvgHeartRate = floatPtr(avgHR)
	rec.MaxHeartRate = floatPtr(maxHR)
	rec.MinHeartRate = floatPtr(minHR)
	rec.Cadence = floatPtr(cadence)
	rec.StrideLength = floatPtr(stride)
	if steps.Valid {
		n := int(steps.Int64)
		rec.StepCount = &n
	}
	return rec, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	out := v.Float64
	return &out
}
