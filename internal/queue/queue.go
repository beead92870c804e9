// Package queue implements the durable, expiring, priority-ordered
// Insight Queue against SQLite, the relational storage layer this
// runtime adds on top of the teacher's stack (see DESIGN.md) for the
// workloads the teacher's JSON-singleton persistence cannot express:
// ordered reads and atomic multi-row deletes.
package queue

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/assistantd/assistantd/internal/contextmodel"
	_ "github.com/mattn/go-sqlite3"
)

const expiryHours = 24

// Item is one row of the Insight Queue.
type Item struct {
	ID               string
	Content          string
	InterventionType contextmodel.InterventionType
	Urgency          int
	Reasoning        string
	CreatedAt        time.Time
}

// Queue is the SQLite-backed Insight Queue.
type Queue struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the insight_queue table exists.
func Open(path string) (*Queue, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open insight queue db: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS insight_queue (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	intervention_type TEXT NOT NULL,
	urgency INTEGER NOT NULL,
	reasoning TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_insight_queue_order ON insight_queue(urgency DESC, created_at ASC);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create insight_queue schema: %w", err)
	}

	return &Queue{db: db, now: time.Now}, nil
}

func (q *Queue) Close() error {
	return q.db.Close()
}

// Enqueue appends a new row. A persistence failure is re-raised to the
// caller, which the Delivery Coordinator treats as a dropped message.
func (q *Queue) Enqueue(content string, kind contextmodel.InterventionType, urgency int, reasoning string) (Item, error) {
	item := Item{
		ID:               uuid.NewString(),
		Content:          content,
		InterventionType: kind,
		Urgency:          urgency,
		Reasoning:        reasoning,
		CreatedAt:        q.now().UTC(),
	}

	_, err := q.db.Exec(
		`INSERT INTO insight_queue (id, content, intervention_type, urgency, reasoning, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.Content, item.InterventionType.String(), item.Urgency, item.Reasoning, item.CreatedAt,
	)
	if err != nil {
		return Item{}, fmt.Errorf("enqueue insight: %w", err)
	}
	return item, nil
}

func (q *Queue) cutoff() time.Time {
	return q.now().UTC().Add(-expiryHours * time.Hour)
}

// Drain returns all non-expired rows ordered by (urgency desc, createdAt
// asc), then deletes every row in the table -- fresh and expired alike --
// in the same transaction.
func (q *Queue) Drain() ([]Item, error) {
	tx, err := q.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin drain transaction: %w", err)
	}
	defer tx.Rollback()

	items, err := queryNonExpired(tx, q.cutoff())
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`DELETE FROM insight_queue`); err != nil {
		return nil, fmt.Errorf("delete drained rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit drain transaction: %w", err)
	}

	return items, nil
}

// Count returns the number of non-expired rows.
func (q *Queue) Count() (int, error) {
	var n int
	err := q.db.QueryRow(`SELECT COUNT(*) FROM insight_queue WHERE created_at > ?`, q.cutoff()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count insight queue: %w", err)
	}
	return n, nil
}

// Peek returns up to limit non-expired rows in drain order without
// removing them.
func (q *Queue) Peek(limit int) ([]Item, error) {
	rows, err := q.db.Query(
		`SELECT id, content, intervention_type, urgency, reasoning, created_at FROM insight_queue WHERE created_at > ? ORDER BY urgency DESC, created_at ASC LIMIT ?`,
		q.cutoff(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("peek insight queue: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func queryNonExpired(tx *sql.Tx, cutoff time.Time) ([]Item, error) {
	rows, err := tx.Query(
		`SELECT id, content, intervention_type, urgency, reasoning, created_at FROM insight_queue WHERE created_at > ? ORDER BY urgency DESC, created_at ASC`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query non-expired rows: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		var kind string
		if err := rows.Scan(&it.ID, &it.Content, &kind, &it.Urgency, &it.Reasoning, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan insight row: %w", err)
		}
		it.InterventionType = parseInterventionType(kind)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func parseInterventionType(s string) contextmodel.InterventionType {
	var t contextmodel.InterventionType
	_ = t.UnmarshalJSON([]byte(`"` + s + `"`))
	return t
}
