package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/agenttrace/agenttrace/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEvent scans a single row into a model.Event.
// The row must contain columns in the order defined by eventColumns.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		sourceApp sql.NullString
		modelName sql.NullString
		toolName  sql.NullString
		payload   []byte
		summary   sql.NullString
	)

	err := row.Scan(
		&e.ID,
		&e.Timestamp,
		&e.SessionID,
		&e.EventType,
		&sourceApp,
		&modelName,
		&toolName,
		&payload,
		&summary,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.SourceApp = sourceApp.String
	e.ModelName = modelName.String
	e.ToolName = toolName.String
	e.Summary = summary.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}

	return &e, nil
}

// scanEvents scans all rows into a slice of events.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	events := make([]*model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// nullString maps "" to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// jsonbBytes converts a raw JSON document to a driver value, mapping an empty
// document to NULL.
func jsonbBytes(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
