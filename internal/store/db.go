// Package store persists finalized readings and dead-lettered items in
// sqlite. The readings table is append-only: no uniqueness constraint, no
// deduplication; re-persisting an equivalent reading creates a new row.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"telemetry-pipeline/internal/model"
)

// Store wraps the sqlite database holding readings and dead letters. The
// table layout is derived from the schema spec the store was opened with.
type Store struct {
	db     *sql.DB
	schema model.SchemaSpec
}

// Open opens (or creates) the sqlite database at path and ensures the
// tables exist. Use ":memory:" for throwaway stores.
func Open(path string, schema model.SchemaSpec) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	s := &Store{db: db, schema: schema}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing database handle. The caller is responsible
// for the table layout; used by tests injecting failures.
func NewWithDB(db *sql.DB, schema model.SchemaSpec) *Store {
	return &Store{db: db, schema: schema}
}

func (s *Store) init() error {
	var cols strings.Builder
	for _, rule := range s.schema.Rules {
		fmt.Fprintf(&cols, "\t\t%q %s,\n", rule.Name, columnType(rule.Type))
	}

	readingsTable := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		machine_id TEXT,
%s		warning BOOLEAN,
		brand TEXT,
		processed_at DATETIME,
		extras TEXT
	);
	`, cols.String())

	deadLetterTable := `
	CREATE TABLE IF NOT EXISTS dead_letters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT,
		machine_id TEXT,
		stage TEXT,
		reason TEXT,
		payload TEXT,
		created_at DATETIME
	);
	`

	if _, err := s.db.Exec(readingsTable); err != nil {
		return fmt.Errorf("create readings table: %w", err)
	}
	if _, err := s.db.Exec(deadLetterTable); err != nil {
		return fmt.Errorf("create dead_letters table: %w", err)
	}
	return nil
}

// InsertReading appends one finalized reading. Each call checks out its own
// connection and releases it on completion; inserts never share a handle.
func (s *Store) InsertReading(ctx context.Context, r model.Reading) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire store connection: %w", err)
	}
	defer conn.Close()

	columns := []string{"machine_id"}
	args := []interface{}{r.MachineID()}
	for _, rule := range s.schema.Rules {
		columns = append(columns, fmt.Sprintf("%q", rule.Name))
		args = append(args, r[rule.Name])
	}
	columns = append(columns, "warning", "brand", "processed_at", "extras")

	extras, err := marshalExtras(r, s.schema)
	if err != nil {
		return fmt.Errorf("encode extra fields: %w", err)
	}
	args = append(args, r.Warning(), r.Brand(), r.ProcessedAt().UTC(), extras)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf(`INSERT INTO readings (%s) VALUES (%s)`,
		strings.Join(columns, ", "), placeholders)

	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// CountReadings returns the total number of stored readings.
func (s *Store) CountReadings(ctx context.Context) (int, error) {
	return s.countWhere(ctx, "1=1")
}

// CountWarnings returns the number of stored readings flagged by Validate.
func (s *Store) CountWarnings(ctx context.Context) (int, error) {
	return s.countWhere(ctx, "warning = ?", true)
}

func (s *Store) countWhere(ctx context.Context, cond string, args ...interface{}) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings WHERE `+cond, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return n, nil
}

// BrandCounts returns the number of stored readings per brand.
func (s *Store) BrandCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT brand, COUNT(*) FROM readings GROUP BY brand`)
	if err != nil {
		return nil, fmt.Errorf("count brands: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var brand string
		var n int
		if err := rows.Scan(&brand, &n); err != nil {
			return nil, err
		}
		counts[brand] = n
	}
	return counts, rows.Err()
}

// ListReadings returns the most recent readings, newest first.
func (s *Store) ListReadings(ctx context.Context, limit int) ([]model.Reading, error) {
	if limit <= 0 {
		limit = 50
	}
	columns := []string{"machine_id"}
	for _, rule := range s.schema.Rules {
		columns = append(columns, fmt.Sprintf("%q", rule.Name))
	}
	columns = append(columns, "warning", "brand", "processed_at", "extras")

	query := fmt.Sprintf(`SELECT %s FROM readings ORDER BY id DESC LIMIT ?`,
		strings.Join(columns, ", "))
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var out []model.Reading
	for rows.Next() {
		r, err := s.scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) scanReading(rows *sql.Rows) (model.Reading, error) {
	var machineID string
	var warning bool
	var brand string
	var processedAt time.Time
	var extras sql.NullString

	// Scan targets mirror columnType: TEXT rules land in a NullString,
	// numeric ones in a NullFloat64.
	fieldVals := make([]interface{}, len(s.schema.Rules))
	for i, rule := range s.schema.Rules {
		if rule.Type == model.TypeString {
			fieldVals[i] = &sql.NullString{}
		} else {
			fieldVals[i] = &sql.NullFloat64{}
		}
	}

	dest := []interface{}{&machineID}
	dest = append(dest, fieldVals...)
	dest = append(dest, &warning, &brand, &processedAt, &extras)
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan reading: %w", err)
	}

	r := model.Reading{
		model.FieldMachineID:   machineID,
		model.FieldWarning:     warning,
		model.FieldBrand:       brand,
		model.FieldProcessedAt: processedAt,
	}
	for i, rule := range s.schema.Rules {
		switch v := fieldVals[i].(type) {
		case *sql.NullString:
			if v.Valid {
				r[rule.Name] = v.String
			}
		case *sql.NullFloat64:
			if !v.Valid {
				continue
			}
			if rule.Type == model.TypeInt {
				r[rule.Name] = int(v.Float64)
			} else {
				r[rule.Name] = v.Float64
			}
		}
	}
	if extras.Valid && extras.String != "" {
		var extra map[string]interface{}
		if err := json.Unmarshal([]byte(extras.String), &extra); err == nil {
			for k, v := range extra {
				r[k] = v
			}
		}
	}
	return r, nil
}

// InsertDeadLetter records a failed item instead of dropping it.
func (s *Store) InsertDeadLetter(ctx context.Context, dl model.DeadLetter) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dead_letters (task_id, machine_id, stage, reason, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		dl.TaskID, dl.MachineID, dl.Stage, dl.Reason, dl.Payload, dl.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

// ListDeadLetters returns the most recent dead letters, newest first.
func (s *Store) ListDeadLetters(ctx context.Context, limit int) ([]model.DeadLetter, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, machine_id, stage, reason, payload, created_at FROM dead_letters ORDER BY id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	defer rows.Close()

	var out []model.DeadLetter
	for rows.Next() {
		var dl model.DeadLetter
		if err := rows.Scan(&dl.ID, &dl.TaskID, &dl.MachineID, &dl.Stage, &dl.Reason, &dl.Payload, &dl.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, dl)
	}
	return out, rows.Err()
}

// CountDeadLetters returns the number of dead-lettered items.
func (s *Store) CountDeadLetters(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letters`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count dead letters: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func columnType(t model.FieldType) string {
	switch t {
	case model.TypeInt:
		return "INTEGER"
	case model.TypeString:
		return "TEXT"
	default:
		return "REAL"
	}
}

// marshalExtras serializes the fields the schema does not know about.
func marshalExtras(r model.Reading, schema model.SchemaSpec) (string, error) {
	extra := make(map[string]interface{})
	for k, v := range r {
		if !schema.Known(k) {
			extra[k] = v
		}
	}
	if len(extra) == 0 {
		return "", nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
