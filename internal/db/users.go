package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type userRow struct {
	ChatID    int64     `db:"chat_id"`
	Doc       []byte    `db:"doc"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PostgresProfileRepository stores each profile as a JSONB document in the
// users table.
type PostgresProfileRepository struct {
	db *sqlx.DB
}

func NewPostgresProfileRepository(db *sqlx.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{
		db: db,
	}
}

func (r *PostgresProfileRepository) Save(ctx context.Context, chatID int64, fields Fields) error {
	doc, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("PostgresProfileRepository.Save: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
	    INSERT INTO users (chat_id, doc) VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE
		SET doc = users.doc || EXCLUDED.doc, updated_at = CURRENT_TIMESTAMP
	`, chatID, doc)

	if err != nil {
		return fmt.Errorf("PostgresProfileRepository.Save: %w", err)
	}

	return nil
}

func (r *PostgresProfileRepository) Load(ctx context.Context, chatID int64) (*Profile, error) {
	var row userRow

	err := r.db.GetContext(ctx, &row, `
	    SELECT chat_id, doc, created_at, updated_at FROM users
		WHERE chat_id = $1
	`, chatID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}

		return nil, fmt.Errorf("PostgresProfileRepository.Load: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(row.Doc, &raw); err != nil {
		return nil, fmt.Errorf("PostgresProfileRepository.Load: %w", err)
	}

	return ProfileFromFields(chatID, stringFields(raw)), nil
}

// stringFields drops non-string values; the schema is not enforced.
func stringFields(raw map[string]any) Fields {
	fields := make(Fields, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}

	return fields
}
