package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/studentlens/internal/student"
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

const schema = `
	CREATE TABLE IF NOT EXISTS students (
		student_id      INTEGER NOT NULL UNIQUE,
		full_name       TEXT NOT NULL,
		dob             TEXT,
		gender          TEXT NOT NULL,
		major           TEXT NOT NULL,
		class_id        TEXT,
		email           TEXT,
		phone           TEXT,
		gpa             REAL,
		credits         INTEGER,
		height_cm       REAL,
		weight_kg       REAL,
		province        TEXT,
		enrollment_date TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_students_major ON students(major);
`

const selectColumns = `student_id, full_name, dob, gender, major, class_id, email, phone,
	gpa, credits, height_cm, weight_kg, province, enrollment_date`

// SQLite is a Store backed by a single SQLite database file.
type SQLite struct {
	conn   *sql.DB
	logger *slog.Logger
	path   string
}

// OpenSQLite opens or creates the database at path and ensures the schema.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases and busy handling simple.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	logger.Debug("opened student database", "path", path)
	return &SQLite{conn: conn, logger: logger, path: path}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *SQLite) FetchAll(ctx context.Context) (*student.Dataset, error) {
	recs, err := s.query(ctx, "fetch_all", `SELECT `+selectColumns+` FROM students ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	return student.NewDataset(recs)
}

func (s *SQLite) FetchByID(ctx context.Context, id int64) (student.Record, error) {
	recs, err := s.query(ctx, "fetch_by_id", `SELECT `+selectColumns+` FROM students WHERE student_id = ?`, id)
	if err != nil {
		return student.Record{}, err
	}
	if len(recs) == 0 {
		return student.Record{}, ErrNotFound
	}
	return recs[0], nil
}

func (s *SQLite) DeleteByID(ctx context.Context, id int64) (bool, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM students WHERE student_id = ?`, id)
	if err != nil {
		return false, wrap("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("delete", err)
	}
	s.logger.Info("deleted student", "student_id", id, "rows", n)
	return n > 0, nil
}

func (s *SQLite) Insert(ctx context.Context, rec student.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO students (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id) DO NOTHING`,
		rec.ID,
		rec.FullName,
		nullDate(&rec.DOB),
		rec.Gender,
		rec.Major,
		rec.ClassID,
		rec.Email,
		rec.Phone,
		nullFloat(rec.GPA),
		nullInt(rec.Credits),
		nullFloat(rec.HeightCm),
		nullFloat(rec.WeightKg),
		rec.Province,
		nullDate(rec.EnrollmentDate),
	)
	if err != nil {
		return wrap("insert", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("insert", err)
	}
	if n == 0 {
		return ErrConflict
	}
	s.logger.Debug("inserted student", "student_id", rec.ID)
	return nil
}

func (s *SQLite) Update(ctx context.Context, rec student.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	res, err := s.conn.ExecContext(ctx, `
		UPDATE students SET
			full_name = ?, dob = ?, gender = ?, major = ?, class_id = ?, email = ?, phone = ?,
			gpa = ?, credits = ?, height_cm = ?, weight_kg = ?, province = ?, enrollment_date = ?
		WHERE student_id = ?`,
		rec.FullName,
		nullDate(&rec.DOB),
		rec.Gender,
		rec.Major,
		rec.ClassID,
		rec.Email,
		rec.Phone,
		nullFloat(rec.GPA),
		nullInt(rec.Credits),
		nullFloat(rec.HeightCm),
		nullFloat(rec.WeightKg),
		rec.Province,
		nullDate(rec.EnrollmentDate),
		rec.ID,
	)
	if err != nil {
		return wrap("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("update", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.logger.Info("updated student", "student_id", rec.ID)
	return nil
}

// Count returns the number of stored students.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&n); err != nil {
		return 0, wrap("count", err)
	}
	return n, nil
}

// Majors returns the distinct majors in ascending order.
func (s *SQLite) Majors(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT DISTINCT major FROM students ORDER BY major`)
	if err != nil {
		return nil, wrap("majors", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, wrap("majors", err)
		}
		out = append(out, m)
	}
	return out, wrap("majors", rows.Err())
}

// FetchByMajor returns the students of one major in insertion order.
func (s *SQLite) FetchByMajor(ctx context.Context, major string) ([]student.Record, error) {
	return s.query(ctx, "fetch_by_major", `SELECT `+selectColumns+` FROM students WHERE major = ? ORDER BY rowid`, major)
}

// FetchByGender returns the students of one gender in insertion order.
func (s *SQLite) FetchByGender(ctx context.Context, gender string) ([]student.Record, error) {
	return s.query(ctx, "fetch_by_gender", `SELECT `+selectColumns+` FROM students WHERE gender = ? ORDER BY rowid`, gender)
}

// FetchByProvince returns the students from one province in insertion order.
func (s *SQLite) FetchByProvince(ctx context.Context, province string) ([]student.Record, error) {
	return s.query(ctx, "fetch_by_province", `SELECT `+selectColumns+` FROM students WHERE province = ? ORDER BY rowid`, province)
}

// FetchByGPARange returns students with lo <= gpa <= hi, best first.
func (s *SQLite) FetchByGPARange(ctx context.Context, lo, hi float64) ([]student.Record, error) {
	return s.query(ctx, "fetch_by_gpa", `SELECT `+selectColumns+` FROM students
		WHERE gpa >= ? AND gpa <= ? ORDER BY gpa DESC, student_id`, lo, hi)
}

// SearchByName returns students whose full name contains keyword.
func (s *SQLite) SearchByName(ctx context.Context, keyword string) ([]student.Record, error) {
	return s.query(ctx, "search", `SELECT `+selectColumns+` FROM students
		WHERE full_name LIKE ? ORDER BY full_name`, "%"+keyword+"%")
}

func (s *SQLite) query(ctx context.Context, op, q string, args ...any) ([]student.Record, error) {
	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()
	var out []student.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func scanRecord(rows *sql.Rows) (student.Record, error) {
	var (
		r                           student.Record
		dob, enrolled               sql.NullString
		classID, email, phone, prov sql.NullString
		gpa, height, weight         sql.NullFloat64
		credits                     sql.NullInt64
	)
	if err := rows.Scan(&r.ID, &r.FullName, &dob, &r.Gender, &r.Major, &classID, &email, &phone,
		&gpa, &credits, &height, &weight, &prov, &enrolled); err != nil {
		return r, err
	}
	r.ClassID, r.Email, r.Phone, r.Province = classID.String, email.String, phone.String, prov.String
	if dob.Valid && dob.String != "" {
		t, err := time.Parse(dateLayout, dob.String)
		if err != nil {
			return r, fmt.Errorf("student %d: parse dob: %w", r.ID, err)
		}
		r.DOB = t
	}
	if enrolled.Valid && enrolled.String != "" {
		t, err := time.Parse(dateLayout, enrolled.String)
		if err != nil {
			return r, fmt.Errorf("student %d: parse enrollment_date: %w", r.ID, err)
		}
		r.EnrollmentDate = &t
	}
	if gpa.Valid {
		r.GPA = student.Float(gpa.Float64)
	}
	if credits.Valid {
		r.Credits = student.Int(int(credits.Int64))
	}
	if height.Valid {
		r.HeightCm = student.Float(height.Float64)
	}
	if weight.Valid {
		r.WeightKg = student.Float(weight.Float64)
	}
	return r, nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullDate(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}
