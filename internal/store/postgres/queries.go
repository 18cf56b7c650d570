package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/agenttrace/agenttrace/internal/model"
	"github.com/agenttrace/agenttrace/internal/store"
)

// eventColumns is the column list used for SELECT statements on the events table.
const eventColumns = `id, timestamp, session_id, event_type,
	source_app, model_name, tool_name, payload, summary, created_at`

// defaultListLimit bounds ListEvents when the filter does not set one.
const defaultListLimit = 100

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AppendEvent inserts the event and scans back its assigned id and receipt
// time. The id comes from a BIGSERIAL sequence, so it is unique and strictly
// increasing; the ingestion layer serializes appends so that id order is also
// commit order.
func (s *PostgresStore) AppendEvent(ctx context.Context, e *model.Event) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO events (
			timestamp, session_id, event_type,
			source_app, model_name, tool_name, payload, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		e.Timestamp,
		e.SessionID,
		e.EventType,
		nullString(e.SourceApp),
		nullString(e.ModelName),
		nullString(e.ToolName),
		jsonbBytes(e.Payload),
		nullString(e.Summary),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append event: %w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// ListEvents returns events newest-first by id with optional equality filters.
func (s *PostgresStore) ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.SessionID != "" {
		whereClauses = append(whereClauses, "session_id = "+nextArg())
		args = append(args, filter.SessionID)
	}
	if filter.EventType != "" {
		whereClauses = append(whereClauses, "event_type = "+nextArg())
		args = append(args, filter.EventType)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY id DESC LIMIT " + nextArg()
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ActiveSessions groups events inside the window by session. The model name
// subquery orders by id, not timestamp: producer clocks skew, the store
// sequence does not.
func (s *PostgresStore) ActiveSessions(ctx context.Context, sinceMillis int64) ([]*model.SessionActivity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			e.session_id,
			(SELECT model_name FROM events
			 WHERE session_id = e.session_id AND model_name IS NOT NULL
			 ORDER BY id DESC LIMIT 1) AS model_name,
			MAX(e.timestamp) AS last_activity,
			COUNT(*) AS event_count
		FROM events e
		WHERE e.timestamp > $1
		GROUP BY e.session_id
		ORDER BY last_activity DESC`,
		sinceMillis,
	)
	if err != nil {
		return nil, fmt.Errorf("active sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*model.SessionActivity, 0)
	for rows.Next() {
		var (
			sa        model.SessionActivity
			modelName sql.NullString
		)
		if err := rows.Scan(&sa.SessionID, &modelName, &sa.LastActivity, &sa.EventCount); err != nil {
			return nil, fmt.Errorf("scan session activity: %w", err)
		}
		sa.ModelName = modelName.String
		sessions = append(sessions, &sa)
	}
	return sessions, rows.Err()
}

// ToolStats runs both aggregate queries inside one repeatable-read read-only
// transaction so concurrent appends cannot split the snapshot between them.
func (s *PostgresStore) ToolStats(ctx context.Context, sinceMillis int64) (*model.ToolStats, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("begin stats transaction: %w", err)
	}
	defer tx.Rollback()

	stats := &model.ToolStats{
		ToolUsage:      make([]model.ToolUsage, 0),
		SuccessFailure: make(map[model.Outcome]int64),
	}

	if err := queryToolUsage(ctx, tx, sinceMillis, stats); err != nil {
		return nil, err
	}
	if err := querySuccessFailure(ctx, tx, sinceMillis, stats); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit stats transaction: %w", err)
	}
	return stats, nil
}

func queryToolUsage(ctx context.Context, db executor, sinceMillis int64, stats *model.ToolStats) error {
	rows, err := db.QueryContext(ctx, `
		SELECT tool_name, COUNT(*) AS count
		FROM events
		WHERE timestamp > $1 AND tool_name IS NOT NULL
		GROUP BY tool_name
		ORDER BY count DESC`,
		sinceMillis,
	)
	if err != nil {
		return fmt.Errorf("tool usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tu model.ToolUsage
		if err := rows.Scan(&tu.ToolName, &tu.Count); err != nil {
			return fmt.Errorf("scan tool usage: %w", err)
		}
		stats.ToolUsage = append(stats.ToolUsage, tu)
	}
	return rows.Err()
}

func querySuccessFailure(ctx context.Context, db executor, sinceMillis int64, stats *model.ToolStats) error {
	// The outcome mapping lives in model; the SQL only sees the two type lists.
	rows, err := db.QueryContext(ctx, `
		SELECT
			CASE WHEN event_type = ANY($2) THEN 'failure' ELSE 'success' END AS status,
			COUNT(*) AS count
		FROM events
		WHERE timestamp > $1 AND event_type = ANY($3)
		GROUP BY status`,
		sinceMillis,
		pq.Array(model.FailureEventTypes()),
		pq.Array(model.ToolOutcomeEventTypes()),
	)
	if err != nil {
		return fmt.Errorf("success/failure: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return fmt.Errorf("scan success/failure: %w", err)
		}
		stats.SuccessFailure[model.Outcome(status)] = count
	}
	return rows.Err()
}
