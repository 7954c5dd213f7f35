package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/thanhcanhit/trustay-billing-svc/internal/models"
)

// ListParams holds query parameters for listing bills
type ListParams struct {
	Page         int
	Limit        int
	Status       models.BillStatus
	Search       string
	BillingMonth int
	BillingYear  int
}

// query converts the parameters to backend query values
func (p ListParams) query() url.Values {
	values := url.Values{}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Status != "" {
		values.Set("status", p.Status.String())
	}
	if p.Search != "" {
		values.Set("search", p.Search)
	}
	if p.BillingMonth > 0 {
		values.Set("billingMonth", strconv.Itoa(p.BillingMonth))
	}
	if p.BillingYear > 0 {
		values.Set("billingYear", strconv.Itoa(p.BillingYear))
	}
	return values
}

// BillList is a page of bills with pagination metadata
type BillList struct {
	Bills []models.Bill
	Meta  models.Pagination
}

// CreateBillRequest creates one bill for a room
type CreateBillRequest struct {
	RoomID        string     `json:"roomId"`
	BillingPeriod string     `json:"billingPeriod"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	Note          string     `json:"note,omitempty"`
}

// UpdateBillRequest carries the mutable bill fields for a PATCH
type UpdateBillRequest struct {
	Status         *models.BillStatus `json:"status,omitempty"`
	DueDate        *time.Time         `json:"dueDate,omitempty"`
	DiscountAmount *models.Decimal    `json:"discountAmount,omitempty"`
	Note           *string            `json:"note,omitempty"`
}

// GenerateRequest requests building-wide bill generation for a period
type GenerateRequest struct {
	BuildingID    string `json:"buildingId"`
	BillingPeriod string `json:"billingPeriod"`
}

// PreviewRequest requests a building-wide generation dry-run
type PreviewRequest struct {
	BuildingID    string `json:"buildingId"`
	BillingPeriod string `json:"billingPeriod"`
}

// GenerateResult reports created vs. already-existing bills. Generation
// is idempotent per room and period; duplicates are an expected outcome,
// not an error.
type GenerateResult struct {
	BillsCreated int    `json:"billsCreated"`
	BillsExisted int    `json:"billsExisted"`
	Message      string `json:"message,omitempty"`
}

// MeterDataRequest submits meter readings to finalize a draft bill
type MeterDataRequest struct {
	BillID         string                `json:"billId"`
	OccupancyCount int                   `json:"occupancyCount"`
	MeterData      []models.MeterReading `json:"meterData"`
}

// BillRepository defines the bill operations backed by the rental
// backend's REST API
type BillRepository interface {
	CreateForRoom(ctx context.Context, req CreateBillRequest) (models.Bill, error)
	PreviewForBuilding(ctx context.Context, req PreviewRequest) (json.RawMessage, error)
	GenerateForBuilding(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	List(ctx context.Context, params ListParams) (BillList, error)
	GetByID(ctx context.Context, id string) (models.Bill, error)
	Update(ctx context.Context, id string, req UpdateBillRequest) (models.Bill, error)
	Delete(ctx context.Context, id string) error
	MarkPaid(ctx context.Context, id string) (models.Bill, error)
	UpdateMeterData(ctx context.Context, req MeterDataRequest) (models.Bill, error)
}

// billRepository implements BillRepository over HTTP
type billRepository struct {
	client *Client
}

// NewBillRepository creates a new instance of BillRepository
func NewBillRepository(client *Client) BillRepository {
	return &billRepository{
		client: client,
	}
}

// CreateForRoom creates a bill for a single room
func (r *billRepository) CreateForRoom(ctx context.Context, req CreateBillRequest) (models.Bill, error) {
	raw, err := r.client.do(ctx, http.MethodPost, "/api/bills/create-for-room", nil, req)
	if err != nil {
		return models.Bill{}, err
	}
	return decodeBill(raw)
}

// PreviewForBuilding runs a building-wide generation dry-run. The preview
// payload is stored uninterpreted; its shape belongs to the backend.
func (r *billRepository) PreviewForBuilding(ctx context.Context, req PreviewRequest) (json.RawMessage, error) {
	raw, err := r.client.do(ctx, http.MethodPost, "/api/bills/preview-for-building", nil, req)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// GenerateForBuilding generates monthly bills for every occupied room of
// a building
func (r *billRepository) GenerateForBuilding(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	raw, err := r.client.do(ctx, http.MethodPost, "/api/bills/generate-for-building", nil, req)
	if err != nil {
		return GenerateResult{}, err
	}

	var result GenerateResult
	if err := json.Unmarshal(normalizeEntity(raw), &result); err != nil {
		return GenerateResult{}, fmt.Errorf("failed to decode generate response: %w", err)
	}
	return result, nil
}

// List fetches a page of bills
func (r *billRepository) List(ctx context.Context, params ListParams) (BillList, error) {
	raw, err := r.client.do(ctx, http.MethodGet, "/api/bills", params.query(), nil)
	if err != nil {
		return BillList{}, err
	}
	return decodeBillList(raw)
}

// GetByID fetches a single bill
func (r *billRepository) GetByID(ctx context.Context, id string) (models.Bill, error) {
	raw, err := r.client.do(ctx, http.MethodGet, "/api/bills/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return models.Bill{}, err
	}
	return decodeBill(raw)
}

// Update patches a bill
func (r *billRepository) Update(ctx context.Context, id string, req UpdateBillRequest) (models.Bill, error) {
	raw, err := r.client.do(ctx, http.MethodPatch, "/api/bills/"+url.PathEscape(id), nil, req)
	if err != nil {
		return models.Bill{}, err
	}
	return decodeBill(raw)
}

// Delete removes a bill
func (r *billRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.do(ctx, http.MethodDelete, "/api/bills/"+url.PathEscape(id), nil, nil)
	return err
}

// MarkPaid marks a bill as paid
func (r *billRepository) MarkPaid(ctx context.Context, id string) (models.Bill, error) {
	raw, err := r.client.do(ctx, http.MethodPost, "/api/bills/"+url.PathEscape(id)+"/mark-paid", nil, nil)
	if err != nil {
		return models.Bill{}, err
	}
	return decodeBill(raw)
}

// UpdateMeterData submits meter readings for a bill. On success the bill
// transitions from draft to pending on the backend.
func (r *billRepository) UpdateMeterData(ctx context.Context, req MeterDataRequest) (models.Bill, error) {
	raw, err := r.client.do(ctx, http.MethodPost, "/api/bills/"+url.PathEscape(req.BillID)+"/meter-data", nil, req)
	if err != nil {
		return models.Bill{}, err
	}
	return decodeBill(raw)
}
