package file

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	repoTimeout = 5 * time.Second
	scanTimeout = 30 * time.Second
)

const recordColumns = `id, name, url, type, extension, size, owner, account_id, users, bucket_file_id, bucket_field, created_at, updated_at`

type column struct {
	name  string
	array bool
	text  bool
}

var columns = map[Field]column{
	FieldOwner:     {name: "owner", text: true},
	FieldUsers:     {name: "users", array: true},
	FieldType:      {name: "type", text: true},
	FieldName:      {name: "name", text: true},
	FieldSize:      {name: "size"},
	FieldCreatedAt: {name: "created_at"},
	FieldUpdatedAt: {name: "updated_at"},
}

// Repository provides access to file metadata storage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new file repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts metadata for a new file. The id and timestamps are assigned by the database.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO files (name, url, type, extension, size, owner, account_id, users, bucket_file_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + recordColumns + `;`

	users := rec.Users
	if users == nil {
		users = []string{}
	}
	row := r.pool.QueryRow(ctx, query,
		rec.Name,
		rec.URL,
		string(rec.Type),
		rec.Extension,
		rec.Size,
		rec.Owner,
		rec.AccountID,
		users,
		nullable(rec.BucketFileID),
	)

	stored, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("create file metadata: %w", err)
	}
	return stored, nil
}

// Get fetches a single record by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + recordColumns + ` FROM files WHERE id = $1;`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrFileNotFound
		}
		return Record{}, fmt.Errorf("get file metadata: %w", err)
	}
	return rec, nil
}

// List returns all records matching q.
func (r *Repository) List(ctx context.Context, q Query) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	records := []Record{}
	err := r.each(ctx, q, func(rec Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Each streams records matching q to fn without buffering the full result.
// Iteration stops at the first error returned by fn.
func (r *Repository) Each(ctx context.Context, q Query, fn func(Record) error) error {
	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()
	return r.each(ctx, q, fn)
}

func (r *Repository) each(ctx context.Context, q Query, fn func(Record) error) error {
	sql, args, err := buildSelect(q)
	if err != nil {
		return err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return fmt.Errorf("scan file metadata: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate files: %w", err)
	}
	return nil
}

// UpdateName sets a new display name.
func (r *Repository) UpdateName(ctx context.Context, id uuid.UUID, name string) (Record, error) {
	return r.update(ctx, "rename file", `UPDATE files SET name = $2, updated_at = NOW() WHERE id = $1 RETURNING `+recordColumns+`;`, id, name)
}

// UpdateUsers replaces the share list.
func (r *Repository) UpdateUsers(ctx context.Context, id uuid.UUID, users []string) (Record, error) {
	if users == nil {
		users = []string{}
	}
	return r.update(ctx, "update file users", `UPDATE files SET users = $2, updated_at = NOW() WHERE id = $1 RETURNING `+recordColumns+`;`, id, users)
}

func (r *Repository) update(ctx context.Context, op, query string, id uuid.UUID, value any) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrFileNotFound
		}
		return Record{}, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// Delete removes metadata and returns the deleted record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `DELETE FROM files WHERE id = $1 RETURNING ` + recordColumns + `;`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrFileNotFound
		}
		return Record{}, fmt.Errorf("delete file metadata: %w", err)
	}
	return rec, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec          Record
		typ          string
		bucketFileID *string
		bucketField  *string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.URL,
		&typ,
		&rec.Extension,
		&rec.Size,
		&rec.Owner,
		&rec.AccountID,
		&rec.Users,
		&bucketFileID,
		&bucketField,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return Record{}, err
	}
	rec.Type = Type(typ)
	if rec.Users == nil {
		rec.Users = []string{}
	}
	if bucketFileID != nil {
		rec.BucketFileID = *bucketFileID
	}
	if bucketField != nil {
		rec.BucketField = *bucketField
	}
	return rec, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *sqlBuilder) predicate(p Predicate) (string, error) {
	switch p := p.(type) {
	case EqualPredicate:
		col, ok := columns[p.Field]
		if !ok || !col.text {
			return "", fmt.Errorf("%w: equality not supported on %q", ErrInvalidArgument, p.Field)
		}
		if len(p.Values) == 0 {
			return "FALSE", nil
		}
		return fmt.Sprintf("%s = ANY(%s)", col.name, b.arg(p.Values)), nil
	case ContainsPredicate:
		col, ok := columns[p.Field]
		switch {
		case ok && col.array:
			return fmt.Sprintf("%s = ANY(%s)", b.arg(p.Value), col.name), nil
		case ok && col.text:
			return fmt.Sprintf("strpos(%s, %s) > 0", col.name, b.arg(p.Value)), nil
		default:
			return "", fmt.Errorf("%w: containment not supported on %q", ErrInvalidArgument, p.Field)
		}
	case OrPredicate:
		if len(p.Preds) == 0 {
			return "FALSE", nil
		}
		parts := make([]string, 0, len(p.Preds))
		for _, child := range p.Preds {
			part, err := b.predicate(child)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	default:
		return "", fmt.Errorf("%w: unsupported predicate %T", ErrInvalidArgument, p)
	}
}

func buildSelect(q Query) (string, []any, error) {
	var (
		b   sqlBuilder
		sql strings.Builder
	)
	sql.WriteString("SELECT " + recordColumns + " FROM files")

	if len(q.Where) > 0 {
		conds := make([]string, 0, len(q.Where))
		for _, p := range q.Where {
			cond, err := b.predicate(p)
			if err != nil {
				return "", nil, err
			}
			conds = append(conds, cond)
		}
		sql.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	if q.Order.Field != "" {
		col, ok := columns[q.Order.Field]
		if !ok || !sortableFields[q.Order.Field] {
			return "", nil, fmt.Errorf("%w: cannot sort by %q", ErrInvalidArgument, q.Order.Field)
		}
		dir := "ASC"
		if q.Order.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sql, " ORDER BY %s %s, id %s", col.name, dir, dir)
	}

	if q.Limit > 0 {
		sql.WriteString(" LIMIT " + b.arg(q.Limit))
	}
	return sql.String(), b.args, nil
}
