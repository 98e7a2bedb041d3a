package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jaekwang-park/serverless-todo/internal/model"
)

// PostgresSchema creates the todos table and the (user_id, created_at)
// index backing List.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS todos (
	user_id        TEXT    NOT NULL,
	todo_id        TEXT    NOT NULL,
	name           TEXT    NOT NULL,
	created_at     TEXT    NOT NULL,
	due_date       TEXT    NOT NULL,
	done           BOOLEAN NOT NULL DEFAULT false,
	attachment_url TEXT,
	PRIMARY KEY (user_id, todo_id)
);
CREATE INDEX IF NOT EXISTS todos_user_created_at_idx ON todos (user_id, created_at DESC);`

type PostgresTodoStore struct {
	db *sql.DB
}

func NewPostgresTodoStore(db *sql.DB) *PostgresTodoStore {
	return &PostgresTodoStore{db: db}
}

// Migrate applies PostgresSchema. It is safe to run on every start.
func (s *PostgresTodoStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, PostgresSchema); err != nil {
		return mapPostgresError("migrate", err)
	}
	return nil
}

func (s *PostgresTodoStore) List(ctx context.Context, userID string) ([]model.TodoItem, error) {
	query := `
		SELECT user_id, todo_id, name, created_at, due_date, done, attachment_url
		FROM todos
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, mapPostgresError("list", err)
	}
	defer rows.Close()

	items := []model.TodoItem{}
	for rows.Next() {
		var (
			item          model.TodoItem
			attachmentURL sql.NullString
		)
		err := rows.Scan(
			&item.UserID, &item.TodoID, &item.Name, &item.CreatedAt,
			&item.DueDate, &item.Done, &attachmentURL,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan todo row: %w", ErrStoreUnavailable, err)
		}
		item.AttachmentURL = attachmentURL.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPostgresError("iterate", err)
	}

	return items, nil
}

// Put inserts item, overwriting any row with the same key.
func (s *PostgresTodoStore) Put(ctx context.Context, item model.TodoItem) error {
	query := `
		INSERT INTO todos (user_id, todo_id, name, created_at, due_date, done, attachment_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, todo_id) DO UPDATE SET
			name = EXCLUDED.name,
			created_at = EXCLUDED.created_at,
			due_date = EXCLUDED.due_date,
			done = EXCLUDED.done,
			attachment_url = EXCLUDED.attachment_url`

	attachmentURL := sql.NullString{String: item.AttachmentURL, Valid: item.AttachmentURL != ""}
	_, err := s.db.ExecContext(ctx, query,
		item.UserID, item.TodoID, item.Name, item.CreatedAt, item.DueDate, item.Done, attachmentURL,
	)
	if err != nil {
		return mapPostgresError("put", err)
	}
	return nil
}

func (s *PostgresTodoStore) Delete(ctx context.Context, userID, todoID string) error {
	query := `DELETE FROM todos WHERE user_id = $1 AND todo_id = $2`

	if _, err := s.db.ExecContext(ctx, query, userID, todoID); err != nil {
		return mapPostgresError("delete", err)
	}
	return nil
}

func (s *PostgresTodoStore) Update(ctx context.Context, userID, todoID string, upd model.TodoUpdate) error {
	query := `
		UPDATE todos
		SET name = $1, due_date = $2, done = $3
		WHERE user_id = $4 AND todo_id = $5`

	return s.execOne(ctx, "update", query, upd.Name, upd.DueDate, upd.Done, userID, todoID)
}

func (s *PostgresTodoStore) SetAttachmentURL(ctx context.Context, userID, todoID, url string) error {
	query := `UPDATE todos SET attachment_url = $1 WHERE user_id = $2 AND todo_id = $3`

	return s.execOne(ctx, "set attachment", query, url, userID, todoID)
}

// execOne runs a statement expected to touch exactly one row.
func (s *PostgresTodoStore) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapPostgresError(op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return mapPostgresError(op, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func mapPostgresError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w: postgres %s %s: %w", ErrStoreUnavailable, op, pqErr.Code.Name(), err)
	}
	return fmt.Errorf("%w: postgres %s: %w", ErrStoreUnavailable, op, err)
}

var _ TodoStore = (*PostgresTodoStore)(nil)
