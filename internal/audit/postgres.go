package audit

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresRecorder appends events to a table.
type PostgresRecorder struct {
	db    *sql.DB
	table string
}

func NewPostgresRecorder(db *sql.DB, table string) (*PostgresRecorder, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid audit table name %q", table)
	}
	return &PostgresRecorder{db: db, table: table}, nil
}

// EnsureSchema creates the audit table when missing.
func (p *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id UUID PRIMARY KEY,
		occurred_at TIMESTAMPTZ NOT NULL,
		action TEXT NOT NULL,
		resource TEXT NOT NULL,
		resource_id TEXT,
		admin_id TEXT,
		outcome TEXT NOT NULL,
		detail TEXT
	)`, p.table)
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create audit table: %w", err)
	}
	return nil
}

func (p *PostgresRecorder) Record(ctx context.Context, e Event) error {
	query := fmt.Sprintf(`INSERT INTO %s
		(id, occurred_at, action, resource, resource_id, admin_id, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, p.table)

	_, err := p.db.ExecContext(ctx, query,
		e.ID, e.Timestamp, e.Action, e.Resource,
		nullString(e.ResourceID), nullString(e.AdminID), e.Outcome, nullString(e.Detail),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
