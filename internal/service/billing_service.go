package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/thanhcanhit/trustay-billing-svc/internal/models"
	"github.com/thanhcanhit/trustay-billing-svc/internal/repository"
	"github.com/thanhcanhit/trustay-billing-svc/pkg/logger"
)

// Op identifies one store operation. Each operation tracks its own
// in-flight flag and error slot so unrelated operations never interfere
// with each other's state.
type Op string

const (
	OpList        Op = "list"
	OpGet         Op = "get"
	OpCreate      Op = "create"
	OpUpdate      Op = "update"
	OpDelete      Op = "delete"
	OpMarkPaid    Op = "markPaid"
	OpUpdateMeter Op = "updateMeter"
	OpPreview     Op = "preview"
	OpGenerate    Op = "generate"
)

// OpState is the externally visible state of one store operation
type OpState struct {
	Active bool   `json:"active"`
	Error  string `json:"error,omitempty"`
}

// Snapshot is a consistent copy of the store's state for handlers and
// tests. Handlers run concurrently, so raw mutable state is never handed
// out.
type Snapshot struct {
	Bills   []models.Bill     `json:"bills"`
	Meta    models.Pagination `json:"meta"`
	Current *models.Bill      `json:"current,omitempty"`
	Preview json.RawMessage   `json:"preview,omitempty"`
	Ops     map[Op]OpState    `json:"ops"`
}

// BillStore is the single source of truth for bill data in this service.
// It orchestrates the backend repository, holds the cached list and
// current bill, and tracks per-operation flags. It is constructed once at
// startup and injected; there is no ambient global instance.
//
// Operations are not queued or de-duplicated. When two writes to the same
// bill race, the last backend response to resolve wins locally; flags and
// error slots stay isolated per operation.
type BillStore struct {
	repo   repository.BillRepository
	logger *logger.Logger

	mu         sync.RWMutex
	bills      []models.Bill
	meta       models.Pagination
	current    *models.Bill
	preview    json.RawMessage
	lastParams repository.ListParams
	hasParams  bool
	ops        map[Op]OpState
}

// NewBillStore creates a new bill store
func NewBillStore(repo repository.BillRepository, log *logger.Logger) *BillStore {
	return &BillStore{
		repo:   repo,
		logger: log,
		ops:    make(map[Op]OpState),
	}
}

func (s *BillStore) begin(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[op] = OpState{Active: true}
}

func (s *BillStore) done(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[op] = OpState{}
}

func (s *BillStore) fail(op Op, err error, fallback string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[op] = OpState{Error: UserMessage(err, fallback)}
}

// OpState returns the current state of one operation
func (s *BillStore) OpState(op Op) OpState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ops[op]
}

// Snapshot returns a consistent copy of the store state
func (s *BillStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Bills: make([]models.Bill, len(s.bills)),
		Meta:  s.meta,
		Ops:   make(map[Op]OpState, len(s.ops)),
	}
	copy(snap.Bills, s.bills)
	if s.current != nil {
		current := *s.current
		snap.Current = &current
	}
	if s.preview != nil {
		snap.Preview = append(json.RawMessage(nil), s.preview...)
	}
	for op, state := range s.ops {
		snap.Ops[op] = state
	}
	return snap
}

// LoadBills fetches a page of bills and replaces the cached list
// wholesale. The list is never merged with prior state.
func (s *BillStore) LoadBills(ctx context.Context, params repository.ListParams) ([]models.Bill, models.Pagination, error) {
	s.begin(OpList)

	list, err := s.repo.List(ctx, params)
	if err != nil {
		s.fail(OpList, err, MsgLoadBillsFailed)
		return nil, models.Pagination{}, err
	}

	s.mu.Lock()
	s.bills = list.Bills
	s.meta = list.Meta
	s.lastParams = params
	s.hasParams = true
	s.mu.Unlock()

	s.done(OpList)
	return list.Bills, list.Meta, nil
}

// LoadBillByID fetches a single bill and caches it as the current bill
func (s *BillStore) LoadBillByID(ctx context.Context, id string) (models.Bill, error) {
	s.begin(OpGet)

	bill, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.fail(OpGet, err, MsgLoadBillFailed)
		return models.Bill{}, err
	}

	s.setCurrent(bill)
	s.done(OpGet)
	return bill, nil
}

// FetchBill fetches a single bill without touching store state, for
// callers that do not want it cached
func (s *BillStore) FetchBill(ctx context.Context, id string) (models.Bill, error) {
	return s.repo.GetByID(ctx, id)
}

// Create creates a bill for a room. On success the list is reloaded in
// full so pagination and aggregate counts stay consistent; local patching
// is never attempted.
func (s *BillStore) Create(ctx context.Context, req repository.CreateBillRequest) (models.Bill, error) {
	s.begin(OpCreate)

	bill, err := s.repo.CreateForRoom(ctx, req)
	if err != nil {
		s.fail(OpCreate, err, MsgCreateBillFailed)
		return models.Bill{}, err
	}

	s.done(OpCreate)
	s.refreshList(ctx)
	return bill, nil
}

// Update patches a bill, updates the current bill and reloads the list
func (s *BillStore) Update(ctx context.Context, id string, req repository.UpdateBillRequest) (models.Bill, error) {
	s.begin(OpUpdate)

	bill, err := s.repo.Update(ctx, id, req)
	if err != nil {
		s.fail(OpUpdate, err, MsgUpdateBillFailed)
		return models.Bill{}, err
	}

	s.setCurrent(bill)
	s.done(OpUpdate)
	s.refreshList(ctx)
	return bill, nil
}

// Remove deletes a bill, clears the current bill when it matches and
// reloads the list
func (s *BillStore) Remove(ctx context.Context, id string) error {
	s.begin(OpDelete)

	if err := s.repo.Delete(ctx, id); err != nil {
		s.fail(OpDelete, err, MsgDeleteBillFailed)
		return err
	}

	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()

	s.done(OpDelete)
	s.refreshList(ctx)
	return nil
}

// MarkPaid marks a bill as paid
func (s *BillStore) MarkPaid(ctx context.Context, id string) (models.Bill, error) {
	s.begin(OpMarkPaid)

	bill, err := s.repo.MarkPaid(ctx, id)
	if err != nil {
		s.fail(OpMarkPaid, err, MsgMarkPaidFailed)
		return models.Bill{}, err
	}

	s.setCurrent(bill)
	s.done(OpMarkPaid)
	s.refreshList(ctx)
	return bill, nil
}

// UpdateMeter submits meter readings for a bill. The caller is expected
// to have validated the readings; backend failures land in this
// operation's error slot and leave prior state intact.
func (s *BillStore) UpdateMeter(ctx context.Context, req repository.MeterDataRequest) (models.Bill, error) {
	s.begin(OpUpdateMeter)

	bill, err := s.repo.UpdateMeterData(ctx, req)
	if err != nil {
		s.fail(OpUpdateMeter, err, MsgUpdateMeterFailed)
		return models.Bill{}, err
	}

	s.setCurrent(bill)
	s.done(OpUpdateMeter)
	s.refreshList(ctx)
	return bill, nil
}

// Preview runs a building-wide generation dry-run and stores the raw
// preview payload without interpreting its shape
func (s *BillStore) Preview(ctx context.Context, req repository.PreviewRequest) (json.RawMessage, error) {
	s.begin(OpPreview)

	raw, err := s.repo.PreviewForBuilding(ctx, req)
	if err != nil {
		s.fail(OpPreview, err, MsgPreviewFailed)
		return nil, err
	}

	s.mu.Lock()
	s.preview = raw
	s.mu.Unlock()

	s.done(OpPreview)
	return raw, nil
}

// Generate creates monthly bills for every occupied room of a building.
// Duplicate generation for a period is idempotent on the backend and
// reported through BillsExisted, not as an error.
func (s *BillStore) Generate(ctx context.Context, req repository.GenerateRequest) (repository.GenerateResult, error) {
	s.begin(OpGenerate)

	result, err := s.repo.GenerateForBuilding(ctx, req)
	if err != nil {
		s.fail(OpGenerate, err, MsgGenerateFailed)
		return repository.GenerateResult{}, err
	}

	s.logger.WithFields(map[string]interface{}{
		"building_id":    req.BuildingID,
		"billing_period": req.BillingPeriod,
		"bills_created":  result.BillsCreated,
		"bills_existed":  result.BillsExisted,
	}).Info("Bills generated for building")

	s.done(OpGenerate)
	s.refreshList(ctx)
	return result, nil
}

// ClearCurrent resets the current bill. Resets are explicit; nothing is
// cleared implicitly on navigation.
func (s *BillStore) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// ClearErrors resets every operation's error slot
func (s *BillStore) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for op, state := range s.ops {
		state.Error = ""
		s.ops[op] = state
	}
}

func (s *BillStore) setCurrent(bill models.Bill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &bill
}

// refreshList reloads the list with the last used parameters after a
// mutation. A reload failure only touches the list operation's error
// slot; the mutation itself already succeeded.
func (s *BillStore) refreshList(ctx context.Context) {
	s.mu.RLock()
	params, ok := s.lastParams, s.hasParams
	s.mu.RUnlock()
	if !ok {
		return
	}

	if _, _, err := s.LoadBills(ctx, params); err != nil {
		s.logger.WithError(err).Warn("Failed to refresh bill list after mutation")
	}
}

// StatusCount aggregates bills of one status
type StatusCount struct {
	Count  int            `json:"count"`
	Amount models.Decimal `json:"amount"`
}

// BillStats summarizes the filtered bill set for the landlord dashboard
type BillStats struct {
	Total             int                    `json:"total"`
	ByStatus          map[string]StatusCount `json:"byStatus"`
	OverdueCount      int                    `json:"overdueCount"`
	DueSoonCount      int                    `json:"dueSoonCount"`
	RequiresMeterData int                    `json:"requiresMeterData"`
	TotalAmount       models.Decimal         `json:"totalAmount"`
	PaidAmount        models.Decimal         `json:"paidAmount"`
	RemainingAmount   models.Decimal         `json:"remainingAmount"`
}

// Stats computes billing statistics over the filtered bill set. The
// computation reads through to the backend and does not touch store
// state or flags.
func (s *BillStore) Stats(ctx context.Context, params repository.ListParams) (BillStats, error) {
	if params.Limit <= 0 {
		params.Limit = 500
	}

	list, err := s.repo.List(ctx, params)
	if err != nil {
		return BillStats{}, err
	}

	now := time.Now()
	stats := BillStats{
		Total:    len(list.Bills),
		ByStatus: make(map[string]StatusCount),
	}

	total := decimal.Zero
	paid := decimal.Zero
	remaining := decimal.Zero

	for _, bill := range list.Bills {
		entry := stats.ByStatus[bill.Status.String()]
		entry.Count++
		entry.Amount = models.NewDecimal(entry.Amount.Add(bill.TotalAmount.Decimal))
		stats.ByStatus[bill.Status.String()] = entry

		total = total.Add(bill.TotalAmount.Decimal)
		paid = paid.Add(bill.PaidAmount.Decimal)
		remaining = remaining.Add(bill.RemainingAmount.Decimal)
	}

	stats.OverdueCount = lo.CountBy(list.Bills, func(b models.Bill) bool { return b.IsOverdue(now) })
	stats.DueSoonCount = lo.CountBy(list.Bills, func(b models.Bill) bool { return b.IsDueSoon(now) })
	stats.RequiresMeterData = lo.CountBy(list.Bills, func(b models.Bill) bool { return b.RequiresMeterData })
	stats.TotalAmount = models.NewDecimal(total)
	stats.PaidAmount = models.NewDecimal(paid)
	stats.RemainingAmount = models.NewDecimal(remaining)

	return stats, nil
}
