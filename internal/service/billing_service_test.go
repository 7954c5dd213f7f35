package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhcanhit/trustay-billing-svc/internal/models"
	"github.com/thanhcanhit/trustay-billing-svc/internal/repository"
	"github.com/thanhcanhit/trustay-billing-svc/pkg/logger"
)

// fakeBillRepository is an in-memory BillRepository for store tests. Each
// method returns the preset result or error and counts its calls.
type fakeBillRepository struct {
	listResult    repository.BillList
	listErr       error
	listCalls     int
	lastListParam repository.ListParams

	bill         models.Bill
	billErr      error
	deleteErr    error
	meterCalls   int
	lastMeterReq repository.MeterDataRequest

	generateResult repository.GenerateResult
	generateErr    error

	previewResult json.RawMessage
	previewErr    error
}

func (f *fakeBillRepository) CreateForRoom(ctx context.Context, req repository.CreateBillRequest) (models.Bill, error) {
	return f.bill, f.billErr
}

func (f *fakeBillRepository) PreviewForBuilding(ctx context.Context, req repository.PreviewRequest) (json.RawMessage, error) {
	return f.previewResult, f.previewErr
}

func (f *fakeBillRepository) GenerateForBuilding(ctx context.Context, req repository.GenerateRequest) (repository.GenerateResult, error) {
	return f.generateResult, f.generateErr
}

func (f *fakeBillRepository) List(ctx context.Context, params repository.ListParams) (repository.BillList, error) {
	f.listCalls++
	f.lastListParam = params
	return f.listResult, f.listErr
}

func (f *fakeBillRepository) GetByID(ctx context.Context, id string) (models.Bill, error) {
	return f.bill, f.billErr
}

func (f *fakeBillRepository) Update(ctx context.Context, id string, req repository.UpdateBillRequest) (models.Bill, error) {
	return f.bill, f.billErr
}

func (f *fakeBillRepository) Delete(ctx context.Context, id string) error {
	return f.deleteErr
}

func (f *fakeBillRepository) MarkPaid(ctx context.Context, id string) (models.Bill, error) {
	return f.bill, f.billErr
}

func (f *fakeBillRepository) UpdateMeterData(ctx context.Context, req repository.MeterDataRequest) (models.Bill, error) {
	f.meterCalls++
	f.lastMeterReq = req
	return f.bill, f.billErr
}

func testLogger() *logger.Logger {
	return logger.NewLogger("fatal", "text")
}

func TestLoadBillsReplacesListWholesale(t *testing.T) {
	repo := &fakeBillRepository{
		listResult: repository.BillList{
			Bills: []models.Bill{{ID: "b1"}, {ID: "b2"}},
			Meta:  models.Pagination{Page: 1, Limit: 10, Total: 2, TotalPages: 1},
		},
	}
	store := NewBillStore(repo, testLogger())

	bills, meta, err := store.LoadBills(context.Background(), repository.ListParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, bills, 2)
	assert.Equal(t, int64(2), meta.Total)

	// A second page replaces the first entirely, no merging
	repo.listResult = repository.BillList{
		Bills: []models.Bill{{ID: "b3"}},
		Meta:  models.Pagination{Page: 2, Limit: 10, Total: 2, TotalPages: 1},
	}
	bills, _, err = store.LoadBills(context.Background(), repository.ListParams{Page: 2, Limit: 10})
	require.NoError(t, err)

	snap := store.Snapshot()
	require.Len(t, snap.Bills, 1)
	assert.Equal(t, "b3", snap.Bills[0].ID)
}

func TestLoadBillsFailureSetsOnlyListError(t *testing.T) {
	repo := &fakeBillRepository{listErr: errors.New("boom")}
	store := NewBillStore(repo, testLogger())

	_, _, err := store.LoadBills(context.Background(), repository.ListParams{})
	require.Error(t, err)

	assert.Equal(t, MsgLoadBillsFailed, store.OpState(OpList).Error)
	assert.False(t, store.OpState(OpList).Active)
	assert.Empty(t, store.OpState(OpMarkPaid).Error)
	assert.Empty(t, store.OpState(OpCreate).Error)
}

func TestMarkPaidFailureDoesNotTouchList(t *testing.T) {
	repo := &fakeBillRepository{
		listResult: repository.BillList{Bills: []models.Bill{{ID: "b1"}}},
	}
	store := NewBillStore(repo, testLogger())

	_, _, err := store.LoadBills(context.Background(), repository.ListParams{Page: 1})
	require.NoError(t, err)

	repo.billErr = errors.New("backend down")
	_, err = store.MarkPaid(context.Background(), "b1")
	require.Error(t, err)

	snap := store.Snapshot()
	assert.Len(t, snap.Bills, 1, "cached list must survive an unrelated failure")
	assert.Equal(t, MsgMarkPaidFailed, snap.Ops[OpMarkPaid].Error)
	assert.Empty(t, snap.Ops[OpList].Error)
}

func TestMarkPaidPassesThroughBackendMessage(t *testing.T) {
	repo := &fakeBillRepository{
		billErr: &repository.APIError{Status: 409, Message: "Hóa đơn đã được thanh toán"},
	}
	store := NewBillStore(repo, testLogger())

	_, err := store.MarkPaid(context.Background(), "b1")
	require.Error(t, err)
	assert.Equal(t, "Hóa đơn đã được thanh toán", store.OpState(OpMarkPaid).Error)
}

func TestCreateRefreshesListWithLastParams(t *testing.T) {
	repo := &fakeBillRepository{
		bill:       models.Bill{ID: "new"},
		listResult: repository.BillList{Bills: []models.Bill{{ID: "new"}}},
	}
	store := NewBillStore(repo, testLogger())

	params := repository.ListParams{Page: 3, Limit: 20, Status: models.BillStatusPending}
	_, _, err := store.LoadBills(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, 1, repo.listCalls)

	_, err = store.Create(context.Background(), repository.CreateBillRequest{RoomID: "r1", BillingPeriod: "2025-03"})
	require.NoError(t, err)

	assert.Equal(t, 2, repo.listCalls, "create must reload the list")
	assert.Equal(t, params, repo.lastListParam, "reload must reuse the last list parameters")
}

func TestCreateWithoutPriorListDoesNotRefresh(t *testing.T) {
	repo := &fakeBillRepository{bill: models.Bill{ID: "new"}}
	store := NewBillStore(repo, testLogger())

	_, err := store.Create(context.Background(), repository.CreateBillRequest{RoomID: "r1", BillingPeriod: "2025-03"})
	require.NoError(t, err)
	assert.Zero(t, repo.listCalls, "no list params known yet, nothing to refresh")
}

func TestRemoveClearsMatchingCurrent(t *testing.T) {
	repo := &fakeBillRepository{bill: models.Bill{ID: "b1"}}
	store := NewBillStore(repo, testLogger())

	_, err := store.LoadBillByID(context.Background(), "b1")
	require.NoError(t, err)
	require.NotNil(t, store.Snapshot().Current)

	require.NoError(t, store.Remove(context.Background(), "b1"))
	assert.Nil(t, store.Snapshot().Current)
}

func TestRemoveKeepsUnrelatedCurrent(t *testing.T) {
	repo := &fakeBillRepository{bill: models.Bill{ID: "b1"}}
	store := NewBillStore(repo, testLogger())

	_, err := store.LoadBillByID(context.Background(), "b1")
	require.NoError(t, err)

	require.NoError(t, store.Remove(context.Background(), "b2"))
	snap := store.Snapshot()
	require.NotNil(t, snap.Current)
	assert.Equal(t, "b1", snap.Current.ID)
}

func TestClearErrorsResetsEverySlot(t *testing.T) {
	repo := &fakeBillRepository{
		listErr: errors.New("a"),
		billErr: errors.New("b"),
	}
	store := NewBillStore(repo, testLogger())

	store.LoadBills(context.Background(), repository.ListParams{})
	store.MarkPaid(context.Background(), "b1")
	require.NotEmpty(t, store.OpState(OpList).Error)
	require.NotEmpty(t, store.OpState(OpMarkPaid).Error)

	store.ClearErrors()
	assert.Empty(t, store.OpState(OpList).Error)
	assert.Empty(t, store.OpState(OpMarkPaid).Error)
}

func TestGenerateReportsExistingBills(t *testing.T) {
	repo := &fakeBillRepository{
		generateResult: repository.GenerateResult{BillsCreated: 3, BillsExisted: 2},
	}
	store := NewBillStore(repo, testLogger())

	result, err := store.Generate(context.Background(), repository.GenerateRequest{
		BuildingID:    "bld1",
		BillingPeriod: "2025-03",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.BillsCreated)
	assert.Equal(t, 2, result.BillsExisted)
	assert.Empty(t, store.OpState(OpGenerate).Error)
}

func TestPreviewStoresRawPayload(t *testing.T) {
	payload := json.RawMessage(`{"rooms":[{"roomId":"r1","estimated":"3500000"}]}`)
	repo := &fakeBillRepository{previewResult: payload}
	store := NewBillStore(repo, testLogger())

	raw, err := store.Preview(context.Background(), repository.PreviewRequest{BuildingID: "bld1", BillingPeriod: "2025-03"})
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(raw))
	assert.JSONEq(t, string(payload), string(store.Snapshot().Preview))
}

func TestSnapshotIsACopy(t *testing.T) {
	repo := &fakeBillRepository{
		listResult: repository.BillList{Bills: []models.Bill{{ID: "b1"}}},
	}
	store := NewBillStore(repo, testLogger())

	_, _, err := store.LoadBills(context.Background(), repository.ListParams{Page: 1})
	require.NoError(t, err)

	snap := store.Snapshot()
	snap.Bills[0].ID = "mutated"

	assert.Equal(t, "b1", store.Snapshot().Bills[0].ID)
}

func TestStatsAggregation(t *testing.T) {
	due := time.Date(2099, time.January, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeBillRepository{
		listResult: repository.BillList{Bills: []models.Bill{
			{ID: "b1", Status: models.BillStatusPending, DueDate: &due, TotalAmount: models.MustDecimal("100"), RemainingAmount: models.MustDecimal("100")},
			{ID: "b2", Status: models.BillStatusPaid, TotalAmount: models.MustDecimal("200"), PaidAmount: models.MustDecimal("200")},
			{ID: "b3", Status: models.BillStatusDraft, RequiresMeterData: true},
		}},
	}
	store := NewBillStore(repo, testLogger())

	stats, err := store.Stats(context.Background(), repository.ListParams{})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ByStatus["pending"].Count)
	assert.Equal(t, 1, stats.ByStatus["paid"].Count)
	assert.Equal(t, 1, stats.RequiresMeterData)
	assert.Equal(t, "300", stats.TotalAmount.String())
	assert.Equal(t, "200", stats.PaidAmount.String())
	assert.Equal(t, "100", stats.RemainingAmount.String())
	assert.Zero(t, stats.OverdueCount)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "fallback", UserMessage(errors.New("dial tcp: refused"), "fallback"))
	assert.Equal(t, "Không tìm thấy hóa đơn", UserMessage(&repository.APIError{Status: 404, Message: "Không tìm thấy hóa đơn"}, "fallback"))
	assert.Equal(t, "fallback", UserMessage(&repository.APIError{Status: 500}, "fallback"))
}
