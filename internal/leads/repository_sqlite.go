package leads

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// sqliteTimeLayout is fixed width so lexical order matches chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const leadColumns = `id, name, email, phone, company, property_type, property_cost, annual_payroll,
	lead_source, status, pipeline_stage, tags, notes, estimate_kind, estimated_savings, created_at, updated_at`

// SQLiteRepository stores leads in a local SQLite file for development and
// single-box deployments.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, lead Lead) error {
	tags, err := json.Marshal(nonNilTags(lead.Tags))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO contacts (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.Company, lead.PropertyType, lead.PropertyCost,
		lead.AnnualPayroll, lead.LeadSource, lead.Status, lead.PipelineStage, string(tags), lead.Notes,
		lead.EstimateKind, lead.EstimatedSavings, formatTime(lead.CreatedAt), formatTime(lead.UpdatedAt),
	)
	return err
}

func (r *SQLiteRepository) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Lead, error) {
	where, args := filterToSQL(filter)
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM contacts`+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	where, args := filterToSQL(filter)
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`+where, args...).Scan(&n)
	return n, err
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (Lead, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM contacts WHERE id = ?`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, errRecordNotFound
	}
	return lead, err
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status string, now time.Time) (Lead, error) {
	return r.setField(ctx, id, fieldStatus, status, now)
}

func (r *SQLiteRepository) UpdateStage(ctx context.Context, id string, stage string, now time.Time) (Lead, error) {
	return r.setField(ctx, id, fieldStage, stage, now)
}

// setField only ever receives the package's own column constants.
func (r *SQLiteRepository) setField(ctx context.Context, id, column, value string, now time.Time) (Lead, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET `+column+` = ?, updated_at = ? WHERE id = ?`, value, formatTime(now), id)
	if err != nil {
		return Lead{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Lead{}, errRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *SQLiteRepository) CountBy(ctx context.Context, field string) (map[string]int64, error) {
	if field != fieldStatus && field != fieldStage {
		return nil, fmt.Errorf("count by %q: unsupported field", field)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+field+`, COUNT(*) FROM contacts GROUP BY `+field)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(s rowScanner) (Lead, error) {
	var (
		lead             Lead
		tags             string
		created, updated string
	)
	err := s.Scan(&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.Company, &lead.PropertyType,
		&lead.PropertyCost, &lead.AnnualPayroll, &lead.LeadSource, &lead.Status, &lead.PipelineStage,
		&tags, &lead.Notes, &lead.EstimateKind, &lead.EstimatedSavings, &created, &updated)
	if err != nil {
		return Lead{}, err
	}
	if err := json.Unmarshal([]byte(tags), &lead.Tags); err != nil {
		return Lead{}, fmt.Errorf("decode tags for %s: %w", lead.ID, err)
	}
	if lead.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
		return Lead{}, fmt.Errorf("decode created_at for %s: %w", lead.ID, err)
	}
	if lead.UpdatedAt, err = time.Parse(sqliteTimeLayout, updated); err != nil {
		return Lead{}, fmt.Errorf("decode updated_at for %s: %w", lead.ID, err)
	}
	return lead, nil
}

func filterToSQL(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Stage != "" {
		clauses = append(clauses, "pipeline_stage = ?")
		args = append(args, filter.Stage)
	}
	if filter.Source != "" {
		clauses = append(clauses, "lead_source = ?")
		args = append(args, filter.Source)
	}
	if filter.Tag != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM json_each(contacts.tags) WHERE json_each.value = ?)")
		args = append(args, filter.Tag)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
