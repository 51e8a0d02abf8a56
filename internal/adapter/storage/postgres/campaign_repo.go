package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const campaignColumns = `id, template_id, name, type, status, period_key, scheduled_for, last_run_at,
		recipient_filter, message_template, subject, drip_step, step_delays, created_at, updated_at`

// CampaignRepo implements ports.CampaignRepository.
//
// Step delays are stored as a BIGINT[] of seconds; the conversion helpers
// below keep time.Duration out of the wire format.
type CampaignRepo struct {
	pool Pool
}

// NewCampaignRepo creates a new CampaignRepo.
func NewCampaignRepo(pool Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

func delaysToSeconds(delays []time.Duration) []int64 {
	if len(delays) == 0 {
		return nil
	}
	secs := make([]int64, len(delays))
	for i, d := range delays {
		secs[i] = int64(d / time.Second)
	}
	return secs
}

func secondsToDelays(secs []int64) []time.Duration {
	if len(secs) == 0 {
		return nil
	}
	delays := make([]time.Duration, len(secs))
	for i, s := range secs {
		delays[i] = time.Duration(s) * time.Second
	}
	return delays
}

func scanCampaign(row pgx.Row) (*domain.CampaignRecord, error) {
	c := &domain.CampaignRecord{}
	var stepSeconds []int64
	err := row.Scan(
		&c.ID, &c.TemplateID, &c.Name, &c.Type, &c.Status, &c.PeriodKey, &c.ScheduledFor, &c.LastRunAt,
		&c.RecipientFilter, &c.MessageTemplate, &c.Subject, &c.DripStep, &stepSeconds,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.StepDelays = secondsToDelays(stepSeconds)
	return c, nil
}

// Create inserts a campaign row (one-off campaign or recurring/drip template).
func (r *CampaignRepo) Create(ctx context.Context, c *domain.CampaignRecord) error {
	query := `INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.TemplateID, c.Name, c.Type, c.Status, c.PeriodKey, c.ScheduledFor, c.LastRunAt,
		c.RecipientFilter, c.MessageTemplate, c.Subject, c.DripStep, delaysToSeconds(c.StepDelays),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// GetByID fetches a campaign by id. Returns nil, nil when absent.
func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CampaignRecord, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	c, err := scanCampaign(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get campaign by id: %w", err)
	}
	return c, nil
}

// GetTemplate fetches the template row for a template id. Templates are the
// rows with a null period key. Returns nil, nil when absent.
func (r *CampaignRepo) GetTemplate(ctx context.Context, templateID string) (*domain.CampaignRecord, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
		WHERE template_id = $1 AND period_key IS NULL`

	c, err := scanCampaign(r.pool.QueryRow(ctx, query, templateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get campaign template: %w", err)
	}
	return c, nil
}

// GetInstance fetches the instance identified by (template id, period key).
// Returns nil, nil when absent.
func (r *CampaignRepo) GetInstance(ctx context.Context, templateID, periodKey string) (*domain.CampaignRecord, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
		WHERE template_id = $1 AND period_key = $2`

	c, err := scanCampaign(r.pool.QueryRow(ctx, query, templateID, periodKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get campaign instance: %w", err)
	}
	return c, nil
}

// CreateInstance inserts an instance row. The unique index on
// (template_id, period_key) plus ON CONFLICT DO NOTHING makes repeated
// creation for the same period collapse to one row; returns false when the
// instance already existed.
func (r *CampaignRepo) CreateInstance(ctx context.Context, c *domain.CampaignRecord) (bool, error) {
	query := `INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (template_id, period_key) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		c.ID, c.TemplateID, c.Name, c.Type, c.Status, c.PeriodKey, c.ScheduledFor, c.LastRunAt,
		c.RecipientFilter, c.MessageTemplate, c.Subject, c.DripStep, delaysToSeconds(c.StepDelays),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert campaign instance: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// FindDue lists SCHEDULED campaigns whose scheduled_for is at or before now.
func (r *CampaignRepo) FindDue(ctx context.Context, now time.Time) ([]domain.CampaignRecord, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
		WHERE status = 'SCHEDULED' AND scheduled_for IS NOT NULL AND scheduled_for <= $1
		ORDER BY scheduled_for ASC`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("find due campaigns: %w", err)
	}
	defer rows.Close()

	var items []domain.CampaignRecord
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due campaign: %w", err)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due campaigns: %w", err)
	}
	return items, nil
}

// List returns a page of campaigns, newest first, plus the total count.
func (r *CampaignRepo) List(ctx context.Context, page, pageSize int) ([]domain.CampaignRecord, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var items []domain.CampaignRecord
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan campaign: %w", err)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate campaigns: %w", err)
	}
	return items, total, nil
}

// TransitionStatus conditionally moves the campaign from `from` to `to`,
// stamping last_run_at when provided. As with payments, the conditional
// single-statement update is the admission gate that keeps concurrent
// dispatchers from running the same campaign twice.
func (r *CampaignRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.CampaignStatus, lastRunAt *time.Time) (bool, error) {
	query := `UPDATE campaigns SET status = $3,
			last_run_at = COALESCE($4, last_run_at),
			updated_at = NOW()
		WHERE id = $1 AND status = $2`

	tag, err := r.pool.Exec(ctx, query, id, from, to, lastRunAt)
	if err != nil {
		return false, fmt.Errorf("transition campaign status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
