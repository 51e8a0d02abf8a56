package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// In-memory repos mirror the conditional-update semantics of the Postgres
// layer: every status transition checks the prior status under one lock,
// so the concurrency tests exercise the same admission gates as production.

// --- In-Memory Payment Repo ---

type inMemoryPaymentRepo struct {
	mu       sync.RWMutex
	payments map[string]*domain.PaymentRecord
}

func newInMemoryPaymentRepo() *inMemoryPaymentRepo {
	return &inMemoryPaymentRepo{payments: make(map[string]*domain.PaymentRecord)}
}

func (r *inMemoryPaymentRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.Reference]; ok {
		return fmt.Errorf("reference already exists")
	}
	cp := *p
	r.payments[p.Reference] = &cp
	return nil
}

func (r *inMemoryPaymentRepo) GetByReference(ctx context.Context, reference string) (*domain.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[reference]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryPaymentRepo) AttachTransactionHash(ctx context.Context, reference, hashEnc, hashDigest string, from, to domain.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[reference]
	if !ok || p.Status != from {
		return false, nil
	}
	p.TxHashEnc = &hashEnc
	p.TxHashDigest = &hashDigest
	p.Status = to
	return true, nil
}

func (r *inMemoryPaymentRepo) TransitionStatus(ctx context.Context, reference string, from, to domain.PaymentStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[reference]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	switch to {
	case domain.PaymentStatusConfirmed:
		t := at
		p.ConfirmedAt = &t
	case domain.PaymentStatusRefunded:
		t := at
		p.RefundedAt = &t
	}
	return true, nil
}

func (r *inMemoryPaymentRepo) List(ctx context.Context, params ports.PaymentListParams) ([]domain.PaymentRecord, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.PaymentRecord
	for _, p := range r.payments {
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		if params.Coin != nil && p.Coin != *params.Coin {
			continue
		}
		if params.From != nil && p.CreatedAt.Unix() < *params.From {
			continue
		}
		if params.To != nil && p.CreatedAt.Unix() > *params.To {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.PaymentRecord{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryPaymentRepo) GetStats(ctx context.Context, periodStart *int64) (*ports.PaymentStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &ports.PaymentStats{ConfirmedByCoin: map[domain.Coin]decimal.Decimal{}}
	for _, p := range r.payments {
		if periodStart != nil && p.CreatedAt.Unix() < *periodStart {
			continue
		}
		stats.TotalPayments++
		switch p.Status {
		case domain.PaymentStatusConfirmed:
			stats.Confirmed++
			stats.ConfirmedByCoin[p.Coin] = stats.ConfirmedByCoin[p.Coin].Add(p.ExpectedAmount)
		case domain.PaymentStatusExpired:
			stats.Expired++
		case domain.PaymentStatusFailed:
			stats.Failed++
		case domain.PaymentStatusRefunded:
			stats.Refunded++
		}
	}
	return stats, nil
}

// --- In-Memory Wallet Address Repo ---

type inMemoryAddressRepo struct {
	mu        sync.Mutex
	addresses []*domain.WalletAddress
}

func newInMemoryAddressRepo() *inMemoryAddressRepo {
	return &inMemoryAddressRepo{}
}

func (r *inMemoryAddressRepo) Create(ctx context.Context, addr *domain.WalletAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *addr
	r.addresses = append(r.addresses, &cp)
	return nil
}

// AcquireForCoin picks the least-recently-used address, same policy as the
// SQL implementation.
func (r *inMemoryAddressRepo) AcquireForCoin(ctx context.Context, tx pgx.Tx, coin domain.Coin) (*domain.WalletAddress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var oldest *domain.WalletAddress
	for _, a := range r.addresses {
		if a.Coin != coin {
			continue
		}
		if oldest == nil || a.LastUsedAt.Before(oldest.LastUsedAt) {
			oldest = a
		}
	}
	if oldest == nil {
		return nil, nil
	}
	oldest.LastUsedAt = time.Now().UTC()
	cp := *oldest
	return &cp, nil
}

// --- In-Memory Campaign Repo ---

type inMemoryCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*domain.CampaignRecord
}

func newInMemoryCampaignRepo() *inMemoryCampaignRepo {
	return &inMemoryCampaignRepo{campaigns: make(map[uuid.UUID]*domain.CampaignRecord)}
}

func (r *inMemoryCampaignRepo) Create(ctx context.Context, c *domain.CampaignRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.campaigns[c.ID] = &cp
	return nil
}

func (r *inMemoryCampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CampaignRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *inMemoryCampaignRepo) GetTemplate(ctx context.Context, templateID string) (*domain.CampaignRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.campaigns {
		if c.TemplateID == templateID && c.PeriodKey == nil {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryCampaignRepo) GetInstance(ctx context.Context, templateID, periodKey string) (*domain.CampaignRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.campaigns {
		if c.TemplateID == templateID && c.PeriodKey != nil && *c.PeriodKey == periodKey {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryCampaignRepo) CreateInstance(ctx context.Context, c *domain.CampaignRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.campaigns {
		if existing.TemplateID == c.TemplateID && existing.PeriodKey != nil &&
			c.PeriodKey != nil && *existing.PeriodKey == *c.PeriodKey {
			return false, nil
		}
	}
	cp := *c
	r.campaigns[c.ID] = &cp
	return true, nil
}

func (r *inMemoryCampaignRepo) FindDue(ctx context.Context, now time.Time) ([]domain.CampaignRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []domain.CampaignRecord
	for _, c := range r.campaigns {
		if c.Status == domain.CampaignStatusScheduled && c.ScheduledFor != nil && !c.ScheduledFor.After(now) {
			due = append(due, *c)
		}
	}
	return due, nil
}

func (r *inMemoryCampaignRepo) List(ctx context.Context, page, pageSize int) ([]domain.CampaignRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.CampaignRecord
	for _, c := range r.campaigns {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	total := int64(len(result))

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.CampaignRecord{}, total, nil
	}
	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryCampaignRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.CampaignStatus, lastRunAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	if lastRunAt != nil {
		t := *lastRunAt
		c.LastRunAt = &t
	}
	c.UpdatedAt = time.Now().UTC()
	return true, nil
}

// --- In-Memory Payment Event Repo ---

type inMemoryEventRepo struct {
	mu     sync.RWMutex
	events []domain.PaymentEvent
}

func newInMemoryEventRepo() *inMemoryEventRepo {
	return &inMemoryEventRepo{}
}

func (r *inMemoryEventRepo) Append(ctx context.Context, e *domain.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

func (r *inMemoryEventRepo) ListByReference(ctx context.Context, reference string) ([]domain.PaymentEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.PaymentEvent
	for _, e := range r.events {
		if e.Reference == reference {
			result = append(result, e)
		}
	}
	return result, nil
}

// countTransitions returns how many events moved reference into status.
func (r *inMemoryEventRepo) countTransitions(reference string, to domain.PaymentStatus) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.events {
		if e.Reference == reference && e.ToStatus == to && e.FromStatus != e.ToStatus {
			n++
		}
	}
	return n
}

// --- In-Memory Operator Repo ---

type inMemoryOperatorRepo struct {
	mu        sync.RWMutex
	operators map[uuid.UUID]*domain.Operator
}

func newInMemoryOperatorRepo() *inMemoryOperatorRepo {
	return &inMemoryOperatorRepo{operators: make(map[uuid.UUID]*domain.Operator)}
}

func (r *inMemoryOperatorRepo) Create(ctx context.Context, op *domain.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.operators {
		if existing.Username == op.Username {
			return fmt.Errorf("username already exists")
		}
	}
	cp := *op
	r.operators[op.ID] = &cp
	return nil
}

func (r *inMemoryOperatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.operators[id]
	if !ok {
		return nil, nil
	}
	cp := *op
	return &cp, nil
}

func (r *inMemoryOperatorRepo) GetByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, op := range r.operators {
		if op.Username == username {
			cp := *op
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
