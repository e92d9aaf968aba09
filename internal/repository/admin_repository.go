package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLOptions bounds an ad-hoc console statement.
type SQLOptions struct {
	ReadOnly bool
	Timeout  time.Duration
	MaxRows  int
}

// AdminRepository backs the admin database console.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// ListTables returns public-schema base tables with column and row counts.
func (r *AdminRepository) ListTables(ctx context.Context) ([]model.TableInfo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.table_name,
		        (SELECT COUNT(*) FROM information_schema.columns c
		          WHERE c.table_schema = t.table_schema AND c.table_name = t.table_name)
		 FROM information_schema.tables t
		 WHERE t.table_schema = 'public' AND t.table_type = 'BASE TABLE'
		 ORDER BY t.table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []model.TableInfo{}
	for rows.Next() {
		var t model.TableInfo
		if err := rows.Scan(&t.TableName, &t.ColumnCount); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tables {
		ident := pgx.Identifier{tables[i].TableName}.Sanitize()
		if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+ident).Scan(&tables[i].RowCount); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

// Columns returns a table's column names in ordinal order.
func (r *AdminRepository) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// TableData returns up to limit rows of table. A non-empty search matches
// any column cast to text, case-insensitively. The table name must already
// be validated against ListTables.
func (r *AdminRepository) TableData(ctx context.Context, table, search string, limit int) (*model.TableData, error) {
	columns, err := r.Columns(ctx, table)
	if err != nil {
		return nil, err
	}

	query := `SELECT * FROM ` + pgx.Identifier{table}.Sanitize()
	var args []interface{}
	if search != "" && len(columns) > 0 {
		args = append(args, "%"+search+"%")
		conds := make([]string, len(columns))
		for i, col := range columns {
			conds[i] = pgx.Identifier{col}.Sanitize() + `::text ILIKE $1`
		}
		query += ` WHERE ` + strings.Join(conds, " OR ")
	}
	for _, col := range columns {
		if col == "id" {
			query += ` ORDER BY id DESC`
			break
		}
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, data, _, err := collectRows(rows, limit)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = columns
	}
	return &model.TableData{Columns: names, Rows: data}, nil
}

// ExecuteSQL runs a single statement inside a transaction bounded by opts.
// At most opts.MaxRows rows are returned; RowCount reflects every row the
// statement produced or affected.
func (r *AdminRepository) ExecuteSQL(ctx context.Context, query string, opts SQLOptions) (*model.SQLResult, error) {
	txOpts := pgx.TxOptions{}
	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}

	tx, err := r.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if opts.Timeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", opts.Timeout.Milliseconds())); err != nil {
			return nil, err
		}
	}

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	names, data, seen, err := collectRows(rows, opts.MaxRows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tag := rows.CommandTag()
	result := &model.SQLResult{
		Columns:   names,
		Rows:      rowMaps(names, data),
		RowCount:  tag.RowsAffected(),
		Command:   commandName(tag.String()),
		Truncated: seen > len(data),
	}
	if result.Columns == nil {
		result.Columns = []string{}
	}
	if tag.Select() {
		result.RowCount = int64(seen)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteRecord removes the row with the given id from a validated table.
func (r *AdminRepository) DeleteRecord(ctx context.Context, table string, id int) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM `+pgx.Identifier{table}.Sanitize()+` WHERE id = $1`, id))
}

// Stats returns platform row counts.
func (r *AdminRepository) Stats(ctx context.Context) (*model.AdminStats, error) {
	s := &model.AdminStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM users),
		        (SELECT COUNT(*) FROM posts),
		        (SELECT COUNT(*) FROM flashcard_decks),
		        (SELECT COUNT(*) FROM study_groups),
		        (SELECT COUNT(*) FROM quizzes),
		        (SELECT COUNT(*) FROM messages)`,
	).Scan(&s.Users, &s.Posts, &s.FlashcardDecks, &s.StudyGroups, &s.Quizzes, &s.Messages)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// collectRows reads rows as value slices in column order, keeping at most
// keep rows (keep <= 0 keeps all) while still counting the rest.
func collectRows(rows pgx.Rows, keep int) ([]string, [][]interface{}, int, error) {
	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	data := [][]interface{}{}
	seen := 0
	for rows.Next() {
		seen++
		if keep > 0 && len(data) >= keep {
			continue
		}
		values, err := rows.Values()
		if err != nil {
			return nil, nil, 0, err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = jsonValue(v)
		}
		data = append(data, row)
	}
	if len(fields) == 0 {
		names = nil
	}
	return names, data, seen, rows.Err()
}

// rowMaps keys each row by column name.
func rowMaps(names []string, data [][]interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, len(data))
	for i, values := range data {
		row := make(map[string]interface{}, len(names))
		for j, name := range names {
			if j < len(values) {
				row[name] = values[j]
			}
		}
		out[i] = row
	}
	return out
}

func jsonValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case time.Duration:
		return val.String()
	default:
		return val
	}
}

func commandName(tag string) string {
	if i := strings.IndexByte(tag, ' '); i > 0 {
		return tag[:i]
	}
	return tag
}
