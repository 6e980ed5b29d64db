package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_books",
		SQL: `CREATE TABLE IF NOT EXISTS books (
  id               UUID          PRIMARY KEY DEFAULT uuid_generate_v4(),
  title            TEXT          NOT NULL,
  author           TEXT          NOT NULL,
  isbn             TEXT          NOT NULL DEFAULT '',
  category         TEXT          NOT NULL DEFAULT '',
  price            NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (price >= 0),
  total_copies     INTEGER       NOT NULL CHECK (total_copies >= 0),
  available_copies INTEGER       NOT NULL CHECK (available_copies >= 0 AND available_copies <= total_copies),
  created_at       TIMESTAMPTZ   NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_students",
		SQL: `CREATE TABLE IF NOT EXISTS students (
  id             UUID          PRIMARY KEY DEFAULT uuid_generate_v4(),
  name           TEXT          NOT NULL,
  roll_number    TEXT          NOT NULL,
  grade          TEXT          NOT NULL DEFAULT '',
  contact_number TEXT          NOT NULL DEFAULT '',
  address        TEXT          NOT NULL DEFAULT '',
  borrowed_books INTEGER       NOT NULL DEFAULT 0 CHECK (borrowed_books >= 0),
  fines_due      NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (fines_due >= 0),
  created_at     TIMESTAMPTZ   NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_loans",
		SQL: `CREATE TABLE IF NOT EXISTS loans (
  id          UUID          PRIMARY KEY DEFAULT uuid_generate_v4(),
  book_id     UUID          NOT NULL REFERENCES books (id),
  student_id  UUID          NOT NULL REFERENCES students (id),
  borrow_date TIMESTAMPTZ   NOT NULL,
  due_date    TIMESTAMPTZ   NOT NULL,
  return_date TIMESTAMPTZ,
  status      TEXT          NOT NULL CHECK (status IN ('Borrowed', 'Overdue', 'Returned', 'Lost')),
  fine_amount  NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (fine_amount >= 0),
  fine_settled NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (fine_settled >= 0 AND fine_settled <= fine_amount),
  fine_paid    BOOLEAN       NOT NULL DEFAULT FALSE,
  remarks     TEXT          NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ   NOT NULL DEFAULT now(),
  CHECK ((return_date IS NOT NULL) = (status IN ('Returned', 'Lost')))
);`,
	},
	{
		Name: "create_table_publications",
		SQL: `CREATE TABLE IF NOT EXISTS publications (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title          TEXT        NOT NULL,
  description    TEXT        NOT NULL DEFAULT '',
  filename       TEXT        NOT NULL,
  booklet_path   TEXT        NOT NULL UNIQUE,
  audio_path     TEXT        NOT NULL DEFAULT '',
  thumbnail_path TEXT        NOT NULL DEFAULT '',
  size           BIGINT      NOT NULL CHECK (size >= 0),
  content_type   TEXT        NOT NULL,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_books_category",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_books_category ON books (category);`,
	},
	{
		Name: "create_index_students_roll_number",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_students_roll_number ON students (roll_number);`,
	},
	{
		Name: "create_index_loans_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_loans_status ON loans (status);`,
	},
	{
		Name: "create_index_loans_student_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_loans_student_id ON loans (student_id);`,
	},
	{
		Name: "create_index_loans_book_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_loans_book_id ON loans (book_id);`,
	},
	{
		Name: "create_index_publications_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_publications_created_at ON publications (created_at);`,
	},
}

// EnsureMigrated checks if the 'loans' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.loans') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
