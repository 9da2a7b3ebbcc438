package clarification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ctmonitor/ctmonitor/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const queryCols = `id, query_id, patient_id, site_id, category, title,
	priority, status, body, created_date, due_date`

func scanQuery(row pgx.Row) (*ClarificationQuery, error) {
	var q ClarificationQuery
	err := row.Scan(&q.ID, &q.QueryID, &q.PatientID, &q.SiteID, &q.Category, &q.Title,
		&q.Priority, &q.Status, &q.Body, &q.CreatedDate, &q.DueDate)
	return &q, err
}

func (r *repoPG) Create(ctx context.Context, q *ClarificationQuery) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO clarification_queries
			(id, query_id, patient_id, site_id, category, title, priority, status, body, created_date, due_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		q.ID, q.QueryID, q.PatientID, q.SiteID, q.Category, q.Title,
		q.Priority, q.Status, q.Body, q.CreatedDate, q.DueDate)
	return err
}

func (r *repoPG) NextBatchSequence(ctx context.Context, datePrefix string) (int, error) {
	// Only well-formed batch IDs (<date>-<4 digits>) participate; timestamp
	// and caller-supplied IDs never match the pattern.
	var maxSeq int
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(MAX(split_part(query_id, '-', 2)::int), 0)
		FROM clarification_queries
		WHERE query_id ~ ('^' || $1 || '-\d{4}$')`, datePrefix).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("query max batch sequence: %w", err)
	}
	return maxSeq + 1, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*ClarificationQuery, error) {
	return scanQuery(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+queryCols+` FROM clarification_queries WHERE id = $1`, id))
}

func (r *repoPG) GetByQueryID(ctx context.Context, queryID string) (*ClarificationQuery, error) {
	return scanQuery(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+queryCols+` FROM clarification_queries WHERE query_id = $1`, queryID))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE clarification_queries SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*ClarificationQuery, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM clarification_queries`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+queryCols+` FROM clarification_queries ORDER BY query_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectQueries(rows, total)
}

func (r *repoPG) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*ClarificationQuery, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM clarification_queries WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+queryCols+` FROM clarification_queries WHERE status = $1 ORDER BY query_id LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectQueries(rows, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*ClarificationQuery, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM clarification_queries WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+queryCols+` FROM clarification_queries WHERE patient_id = $1 ORDER BY query_id LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectQueries(rows, total)
}

func collectQueries(rows pgx.Rows, total int) ([]*ClarificationQuery, int, error) {
	var items []*ClarificationQuery
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, q)
	}
	return items, total, rows.Err()
}
