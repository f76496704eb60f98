package pgstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"classattend/internal/attendance"
	"classattend/internal/core"
	"classattend/internal/roster"
)

// Store persists the roster and attendance records in Postgres.
type Store struct {
	db *sqlx.DB
}

var (
	_ roster.Repository     = (*Store)(nil)
	_ attendance.Repository = (*Store)(nil)
)

// New creates a store and bootstraps the schema.
func New(ctx context.Context, db *sqlx.DB) (*Store, error) {
	if err := migrate(ctx, db); err != nil {
		return nil, errors.Wrap(err, "migrate")
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS teachers (
		id           TEXT PRIMARY KEY,
		teacher_code TEXT UNIQUE NOT NULL,
		name         TEXT NOT NULL,
		email        TEXT NOT NULL DEFAULT '',
		department   TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS students (
		id           TEXT PRIMARY KEY,
		student_code TEXT UNIQUE NOT NULL,
		name         TEXT NOT NULL,
		email        TEXT NOT NULL DEFAULT '',
		department   TEXT NOT NULL DEFAULT '',
		year         INT  NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS courses (
		id            TEXT PRIMARY KEY,
		course_code   TEXT UNIQUE NOT NULL,
		course_name   TEXT NOT NULL,
		teacher_id    TEXT REFERENCES teachers(id),
		student_ids   JSONB NOT NULL DEFAULT '[]',
		total_classes INT  NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS attendance_records (
		id         TEXT PRIMARY KEY,
		course_id  TEXT NOT NULL REFERENCES courses(id),
		day        DATE NOT NULL,
		students   JSONB NOT NULL DEFAULT '[]',
		marked_by  TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (course_id, day)
	);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func storageErr(op string, err error) error {
	return core.NewStorageError(op, errors.WithStack(err))
}

// stringList is a JSONB array of ids; order is kept for display.
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		l = stringList{}
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *stringList) Scan(src any) error {
	return scanJSON(src, (*[]string)(l))
}

// markDoc is the stored shape of a mark; names are resolved on read, never stored.
type markDoc struct {
	Student string `json:"student"`
	Present bool   `json:"present"`
}

type markList []markDoc

func (l markList) Value() (driver.Value, error) {
	if l == nil {
		l = markList{}
	}
	b, err := json.Marshal([]markDoc(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *markList) Scan(src any) error {
	return scanJSON(src, (*[]markDoc)(l))
}

func toMarkList(marks []attendance.Mark) markList {
	out := make(markList, len(marks))
	for i, m := range marks {
		out[i] = markDoc{Student: m.StudentID, Present: m.Present}
	}
	return out
}

func (l markList) marks() []attendance.Mark {
	out := make([]attendance.Mark, len(l))
	for i, m := range l {
		out[i] = attendance.Mark{StudentID: m.Student, Present: m.Present}
	}
	return out
}

func scanJSON(src any, dst any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return json.Unmarshal([]byte("[]"), dst)
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("pgstore: cannot scan %T into JSON list", src)
	}
	return json.Unmarshal(b, dst)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
