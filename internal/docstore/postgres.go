package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson"
)

// postgresCollection keeps each document as relaxed extended JSON in a jsonb column next to
// the id and timestamps it is sorted by. The tables are created by the migrations package.
type postgresCollection[T any, P Doc[T]] struct {
	db    *sql.DB
	table string
}

func NewPostgresCollection[T any, P Doc[T]](db *sql.DB, table string) Collection[T] {
	return &postgresCollection[T, P]{db: db, table: pq.QuoteIdentifier(table)}
}

// uniqueViolation is a helper function to check if the error is a unique constraint error.
func uniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	return false
}

// where renders filter as a WHERE clause whose placeholders start at $1.
func where(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	switch f.Field {
	case "":
	case IDField:
		args = append(args, f.Value)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	default:
		// The field is inlined so the planner can match the expression indexes on it.
		args = append(args, f.Value)
		conds = append(conds, fmt.Sprintf("data->>%s = $%d", pq.QuoteLiteral(f.Field), len(args)))
	}

	if f.ExcludeID != "" {
		args = append(args, f.ExcludeID)
		conds = append(conds, fmt.Sprintf("id <> $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func encode(doc any) (string, error) {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return "", fmt.Errorf("could not encode document: %w", err)
	}

	return string(data), nil
}

func decode[T any](data []byte) (T, error) {
	var doc T
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return doc, fmt.Errorf("could not decode document: %w", err)
	}

	return doc, nil
}

func (c *postgresCollection[T, P]) Find(ctx context.Context, filter Filter, page Page) ([]T, error) {
	clause, args := where(filter)

	query := fmt.Sprintf(`
		SELECT data
		FROM %s
		%s
		ORDER BY created_at DESC, id DESC`, c.table, clause)

	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	args = append(args, page.Skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []T{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}

		doc, err := decode[T](data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

func (c *postgresCollection[T, P]) Count(ctx context.Context, filter Filter) (int64, error) {
	clause, args := where(filter)

	query := fmt.Sprintf(`SELECT count(*) FROM %s %s`, c.table, clause)

	var n int64
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

func (c *postgresCollection[T, P]) FindOne(ctx context.Context, filter Filter) (T, error) {
	clause, args := where(filter)

	query := fmt.Sprintf(`
		SELECT data
		FROM %s
		%s
		ORDER BY created_at DESC
		LIMIT 1`, c.table, clause)

	var data []byte
	err := c.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if err != nil {
		var zero T
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return zero, ErrNotFound
		default:
			return zero, err
		}
	}

	return decode[T](data)
}

func (c *postgresCollection[T, P]) Create(ctx context.Context, doc T) (T, error) {
	var zero T

	stamp[T, P](&doc)
	m := P(&doc).Metadata()

	data, err := encode(doc)
	if err != nil {
		return zero, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`, c.table)

	_, err = c.db.ExecContext(ctx, query, m.ID, data, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		switch {
		case uniqueViolation(err):
			return zero, ErrDuplicate
		default:
			return zero, err
		}
	}

	return doc, nil
}

func (c *postgresCollection[T, P]) Save(ctx context.Context, doc T) (T, error) {
	var zero T

	touch[T, P](&doc)
	m := P(&doc).Metadata()

	data, err := encode(doc)
	if err != nil {
		return zero, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET data = $2, updated_at = $3
		WHERE id = $1`, c.table)

	res, err := c.db.ExecContext(ctx, query, m.ID, data, m.UpdatedAt)
	if err != nil {
		switch {
		case uniqueViolation(err):
			return zero, ErrDuplicate
		default:
			return zero, err
		}
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return zero, err
	}

	if rows == 0 {
		return zero, ErrNotFound
	}

	return doc, nil
}

func (c *postgresCollection[T, P]) DeleteOne(ctx context.Context, filter Filter) error {
	clause, args := where(filter)

	// DELETE has no LIMIT; restrict to the newest matching row by id.
	query := fmt.Sprintf(`
		DELETE FROM %[1]s
		WHERE id = (SELECT id FROM %[1]s %[2]s ORDER BY created_at DESC LIMIT 1)`, c.table, clause)

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
