package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	statex "github.com/frontdeskhq/frontdesk/agent/state"
)

type PostgresConfig struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

type handoffRow struct {
	bun.BaseModel `bun:"table:handoff_events"`

	ID             int64     `bun:"id,pk,autoincrement"`
	ConversationID string    `bun:"conversation_id,notnull"`
	Seq            int64     `bun:"seq,notnull"`
	PreviousOwner  string    `bun:"previous_owner"`
	NewOwner       string    `bun:"new_owner,notnull"`
	Department     string    `bun:"department,notnull"`
	Confidence     float64   `bun:"confidence,notnull"`
	At             time.Time `bun:"at,notnull"`
}

// PostgresLog persists the handoff trail keyed by conversation ID + seq.
// Appends are idempotent on that key so CAS replays never duplicate rows.
type PostgresLog struct {
	db *bun.DB
}

var _ Log = (*PostgresLog)(nil)

func NewPostgresLog(cfg PostgresConfig) (*PostgresLog, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &PostgresLog{db: db}, nil
}

func (l *PostgresLog) Close() error {
	return l.db.Close()
}

// Init creates the table and its uniqueness constraint.
func (l *PostgresLog) Init(ctx context.Context) error {
	if _, err := l.db.NewCreateTable().
		Model((*handoffRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create handoff_events table: %w", err)
	}

	if _, err := l.db.NewCreateIndex().
		Model((*handoffRow)(nil)).
		Index("handoff_events_conv_seq_idx").
		Unique().
		Column("conversation_id", "seq").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create handoff_events index: %w", err)
	}
	return nil
}

func (l *PostgresLog) Append(ctx context.Context, ev statex.HandoffEvent) error {
	row := &handoffRow{
		ConversationID: ev.ConversationID,
		Seq:            ev.Seq,
		PreviousOwner:  ev.PreviousOwner,
		NewOwner:       ev.NewOwner,
		Department:     ev.Department,
		Confidence:     ev.Confidence,
		At:             ev.At,
	}

	_, err := l.db.NewInsert().
		Model(row).
		On("CONFLICT (conversation_id, seq) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("append handoff event: %w", err)
	}
	return nil
}

func (l *PostgresLog) List(ctx context.Context, conversationID string) ([]statex.HandoffEvent, error) {
	var rows []handoffRow
	err := l.db.NewSelect().
		Model(&rows).
		Where("conversation_id = ?", conversationID).
		Order("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list handoff events: %w", err)
	}

	out := make([]statex.HandoffEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, statex.HandoffEvent{
			ConversationID: r.ConversationID,
			Seq:            r.Seq,
			PreviousOwner:  r.PreviousOwner,
			NewOwner:       r.NewOwner,
			Department:     r.Department,
			Confidence:     r.Confidence,
			At:             r.At,
		})
	}
	return out, nil
}
