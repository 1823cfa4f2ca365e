package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-jobboard-scraper/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS job_postings (
	id                  BIGSERIAL PRIMARY KEY,
	external_id         TEXT NOT NULL UNIQUE,
	title               TEXT NOT NULL,
	company             TEXT NOT NULL,
	location            TEXT NOT NULL DEFAULT 'Not specified',
	job_type            TEXT NOT NULL DEFAULT 'FULL_TIME',
	experience_required TEXT NOT NULL DEFAULT 'Not specified',
	compensation_text   TEXT NOT NULL DEFAULT '',
	min_salary          NUMERIC(14, 2),
	max_salary          NUMERIC(14, 2),
	salary_currency     TEXT NOT NULL DEFAULT 'INR',
	short_description   TEXT NOT NULL DEFAULT '',
	full_description    TEXT NOT NULL DEFAULT '',
	skills              JSONB NOT NULL DEFAULT '[]'::jsonb,
	apply_link          TEXT NOT NULL DEFAULT '',
	view_details_link   TEXT NOT NULL DEFAULT '',
	details_scraped     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS job_postings_job_type_idx ON job_postings (job_type);
CREATE INDEX IF NOT EXISTS job_postings_updated_at_idx ON job_postings (updated_at DESC);
`

const jobColumns = `id, external_id, title, company, location, job_type, experience_required,
compensation_text, min_salary, max_salary, salary_currency, short_description, full_description,
skills, apply_link, view_details_link, details_scraped, created_at, updated_at`

type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	// transaction-mode poolers (PgBouncer, Supabase) reject cached prepared statements
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		r.db.Close()
	}
	return nil
}

// EnsureSchema creates the job_postings table and its indexes if missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Upsert inserts a posting or updates the one with the same external id. A
// later card-only scrape never erases a description or details flag an
// earlier detail scrape stored.
func (r *Repository) Upsert(ctx context.Context, key string, job models.JobPosting) (models.JobPosting, bool, error) {
	skills, err := json.Marshal(nonNilSkills(job.Skills))
	if err != nil {
		return models.JobPosting{}, false, fmt.Errorf("marshal skills: %w", err)
	}

	query := `
		INSERT INTO job_postings (external_id, title, company, location, job_type, experience_required,
			compensation_text, min_salary, max_salary, salary_currency, short_description, full_description,
			skills, apply_link, view_details_link, details_scraped)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14, $15, $16)
		ON CONFLICT (external_id)
		DO UPDATE SET
			title = EXCLUDED.title,
			company = EXCLUDED.company,
			location = EXCLUDED.location,
			job_type = EXCLUDED.job_type,
			experience_required = EXCLUDED.experience_required,
			compensation_text = EXCLUDED.compensation_text,
			min_salary = EXCLUDED.min_salary,
			max_salary = EXCLUDED.max_salary,
			salary_currency = EXCLUDED.salary_currency,
			short_description = EXCLUDED.short_description,
			full_description = COALESCE(NULLIF(EXCLUDED.full_description, ''), job_postings.full_description),
			skills = EXCLUDED.skills,
			apply_link = EXCLUDED.apply_link,
			view_details_link = EXCLUDED.view_details_link,
			details_scraped = job_postings.details_scraped OR EXCLUDED.details_scraped,
			updated_at = now()
		RETURNING ` + jobColumns + `, (xmax = 0) AS inserted`

	var saved models.JobPosting
	var inserted bool
	row := r.db.QueryRow(ctx, query,
		key, job.Title, job.Company, job.Location, string(job.JobType), job.ExperienceRequired,
		job.CompensationText, job.MinSalary, job.MaxSalary, job.SalaryCurrency, job.ShortDescription, job.FullDescription,
		skills, job.ApplyLink, job.ViewDetailsLink, job.DetailsScraped)
	if err := scanJob(row, &saved, &inserted); err != nil {
		return models.JobPosting{}, false, fmt.Errorf("failed to upsert job %s: %w", key, err)
	}
	return saved, inserted, nil
}

func (r *Repository) Get(ctx context.Context, externalID string) (models.JobPosting, error) {
	var job models.JobPosting
	row := r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM job_postings WHERE external_id = $1`, externalID)
	if err := scanJob(row, &job); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.JobPosting{}, ErrNotFound
		}
		return models.JobPosting{}, fmt.Errorf("failed to get job %s: %w", externalID, err)
	}
	return job, nil
}

func (r *Repository) Count(ctx context.Context, filter models.JobFilter) (int, error) {
	where, args := buildWhere(filter)
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM job_postings`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return total, nil
}

func (r *Repository) List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + jobColumns + ` FROM job_postings` + where + ` ORDER BY updated_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	out := make([]models.JobPosting, 0, 16)
	for rows.Next() {
		var job models.JobPosting
		if err := scanJob(rows, &job); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *Repository) DeleteAll(ctx context.Context) (int, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM job_postings`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete jobs: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

func (r *Repository) Stats(ctx context.Context) (models.Stats, error) {
	stats := models.Stats{ByJobType: make(map[models.JobType]int)}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE details_scraped), MAX(updated_at)
		FROM job_postings`).Scan(&stats.Total, &stats.DetailsScraped, &stats.LastUpdated)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to read stats: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT job_type, COUNT(*) FROM job_postings GROUP BY job_type`)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to read job type counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var jt string
		var n int
		if err := rows.Scan(&jt, &n); err != nil {
			return models.Stats{}, fmt.Errorf("failed to scan job type count: %w", err)
		}
		stats.ByJobType[models.JobType(jt)] = n
	}
	if err := rows.Err(); err != nil {
		return models.Stats{}, fmt.Errorf("rows error: %w", err)
	}
	return stats, nil
}

// scanJob reads jobColumns, followed by any extra destinations.
func scanJob(row pgx.Row, job *models.JobPosting, extra ...any) error {
	var jobType string
	var skills []byte
	dest := []any{
		&job.ID, &job.ExternalID, &job.Title, &job.Company, &job.Location, &jobType, &job.ExperienceRequired,
		&job.CompensationText, &job.MinSalary, &job.MaxSalary, &job.SalaryCurrency, &job.ShortDescription,
		&job.FullDescription, &skills, &job.ApplyLink, &job.ViewDetailsLink, &job.DetailsScraped,
		&job.CreatedAt, &job.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	job.JobType = models.JobType(jobType)
	job.Skills = []string{}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &job.Skills); err != nil {
			return fmt.Errorf("unmarshal skills: %w", err)
		}
	}
	return nil
}

// buildWhere turns a filter into a WHERE clause with positional arguments.
// Limit and Offset are left to the caller.
func buildWhere(f models.JobFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(f.JobTypes) > 0 {
		types := make([]string, len(f.JobTypes))
		for i, jt := range f.JobTypes {
			types[i] = string(jt)
		}
		add("job_type = ANY($%d)", types)
	}
	if s := strings.TrimSpace(f.Location); s != "" {
		add(`location ILIKE $%d ESCAPE '\'`, likePattern(s))
	}
	if s := strings.TrimSpace(f.Experience); s != "" {
		add(`experience_required ILIKE $%d ESCAPE '\'`, likePattern(s))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, likePattern(s))
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(title ILIKE $%d ESCAPE '\' OR company ILIKE $%d ESCAPE '\')`, n, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func nonNilSkills(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
