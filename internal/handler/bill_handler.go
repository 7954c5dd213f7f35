package handler

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thanhcanhit/trustay-billing-svc/internal/models"
	"github.com/thanhcanhit/trustay-billing-svc/internal/repository"
	"github.com/thanhcanhit/trustay-billing-svc/internal/service"
	"github.com/thanhcanhit/trustay-billing-svc/pkg/logger"
	"github.com/thanhcanhit/trustay-billing-svc/pkg/utils"
)

// CreateBillRequest represents the request for creating a bill for a room
type CreateBillRequest struct {
	RoomID        string     `json:"roomId" binding:"required" example:"room-123"`
	BillingPeriod string     `json:"billingPeriod" binding:"required" example:"2025-03"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	Note          string     `json:"note,omitempty"`
}

// GenerateBillsRequest represents the request for building-wide bill generation
type GenerateBillsRequest struct {
	BuildingID    string `json:"buildingId" binding:"required" example:"building-1"`
	BillingPeriod string `json:"billingPeriod" binding:"required" example:"2025-03"`
}

// UpdateBillRequest represents the request for patching a bill
type UpdateBillRequest struct {
	Status         *string         `json:"status,omitempty" example:"cancelled"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
	DiscountAmount *models.Decimal `json:"discountAmount,omitempty"`
	Note           *string         `json:"note,omitempty"`
}

// MeterReadingInput is one current/last reading pair in a meter-data request
type MeterReadingInput struct {
	RoomCostID     string  `json:"roomCostId" binding:"required" example:"cost-1"`
	CurrentReading float64 `json:"currentReading" example:"150"`
	LastReading    float64 `json:"lastReading" example:"100"`
}

// MeterDataRequest represents the request for submitting meter readings.
// MeterData may be empty for bills that only need occupancy confirmation.
type MeterDataRequest struct {
	OccupancyCount int                 `json:"occupancyCount" binding:"required,min=1" example:"2"`
	MeterData      []MeterReadingInput `json:"meterData" binding:"dive"`
}

// BillHandler handles bill-related HTTP requests
type BillHandler struct {
	store    *service.BillStore
	meters   *service.MeterService
	exporter *service.ExportService
	logger   *logger.Logger
}

// NewBillHandler creates a new BillHandler instance
func NewBillHandler(store *service.BillStore, meters *service.MeterService, exporter *service.ExportService, logger *logger.Logger) *BillHandler {
	return &BillHandler{
		store:    store,
		meters:   meters,
		exporter: exporter,
		logger:   logger,
	}
}

// respondError maps a store/repository error to an HTTP response. Backend
// errors keep their status code; everything else is a 500. The message is
// always the user-facing translated one.
func (h *BillHandler) respondError(c *gin.Context, err error, fallback string) {
	message := service.UserMessage(err, fallback)

	var apiErr *repository.APIError
	if errors.As(err, &apiErr) {
		utils.ErrorStatusResponse(c, apiErr.Status, message, err)
		return
	}
	utils.InternalServerErrorResponse(c, message, err)
}

// listParamsFromQuery parses bill list query parameters. A billingPeriod
// value takes precedence over separate billingMonth/billingYear params.
func listParamsFromQuery(c *gin.Context) (repository.ListParams, error) {
	params := repository.ListParams{
		Page:  1,
		Limit: 20,
	}

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			params.Page = v
		}
	}
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			params.Limit = v
		}
	}
	if status := c.Query("status"); status != "" {
		params.Status = models.BillStatus(status)
	}
	params.Search = c.Query("search")

	if period := c.Query("billingPeriod"); period != "" {
		month, year, err := models.PeriodMonthYear(period)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.BillingMonth = month
		params.BillingYear = year
		return params, nil
	}

	if m := c.Query("billingMonth"); m != "" {
		if v, err := strconv.Atoi(m); err == nil {
			params.BillingMonth = v
		}
	}
	if y := c.Query("billingYear"); y != "" {
		if v, err := strconv.Atoi(y); err == nil {
			params.BillingYear = v
		}
	}

	return params, nil
}

// CreateBill creates a bill for a single room
// @Summary Create a bill for a room
// @Description Create one bill for a rented room and billing period
// @Tags bills
// @Accept json
// @Produce json
// @Param request body CreateBillRequest true "Bill creation request"
// @Success 200 {object} utils.APIResponse{data=models.Bill} "Bill created"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /api/v1/bills/create-for-room [post]
func (h *BillHandler) CreateBill(c *gin.Context) {
	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid request body")
		utils.BadRequestResponse(c, "Request body must be valid JSON", err)
		return
	}

	if _, _, err := models.PeriodMonthYear(req.BillingPeriod); err != nil {
		utils.BadRequestResponse(c, "Kỳ thanh toán không hợp lệ", err)
		return
	}

	bill, err := h.store.Create(c.Request.Context(), repository.CreateBillRequest{
		RoomID:        req.RoomID,
		BillingPeriod: req.BillingPeriod,
		DueDate:       req.DueDate,
		Note:          req.Note,
	})
	if err != nil {
		h.logger.WithError(err).WithField("room_id", req.RoomID).Error("Failed to create bill")
		h.respondError(c, err, service.MsgCreateBillFailed)
		return
	}

	utils.SuccessResponse(c, service.MsgCreateBillSuccess, bill)
}

// PreviewBills runs a building-wide generation dry-run
// @Summary Preview building-wide bill generation
// @Description Dry-run of monthly bill generation for a building; the preview payload is passed through uninterpreted
// @Tags bills
// @Accept json
// @Produce json
// @Param request body GenerateBillsRequest true "Preview request"
// @Success 200 {object} utils.APIResponse "Preview payload"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /api/v1/bills/preview-for-building [post]
func (h *BillHandler) PreviewBills(c *gin.Context) {
	var req GenerateBillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid request body")
		utils.BadRequestResponse(c, "Request body must be valid JSON", err)
		return
	}

	if _, _, err := models.PeriodMonthYear(req.BillingPeriod); err != nil {
		utils.BadRequestResponse(c, "Kỳ thanh toán không hợp lệ", err)
		return
	}

	preview, err := h.store.Preview(c.Request.Context(), repository.PreviewRequest{
		BuildingID:    req.BuildingID,
		BillingPeriod: req.BillingPeriod,
	})
	if err != nil {
		h.logger.WithError(err).WithField("building_id", req.BuildingID).Error("Failed to preview bills")
		h.respondError(c, err, service.MsgPreviewFailed)
		return
	}

	utils.SuccessResponse(c, "Xem trước hóa đơn thành công", preview)
}

// GenerateBills generates monthly bills for a building
// @Summary Generate monthly bills for a building
// @Description Create one bill per occupied room for the billing period. Idempotent: rooms that already have a bill for the period are reported as existing, not re-created.
// @Tags bills
// @Accept json
// @Produce json
// @Param request body GenerateBillsRequest true "Generation request"
// @Success 200 {object} utils.APIResponse{data=repository.GenerateResult} "Generation result"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /api/v1/bills/generate-for-building [post]
func (h *BillHandler) GenerateBills(c *gin.Context) {
	var req GenerateBillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid request body")
		utils.BadRequestResponse(c, "Request body must be valid JSON", err)
		return
	}

	if _, _, err := models.PeriodMonthYear(req.BillingPeriod); err != nil {
		utils.BadRequestResponse(c, "Kỳ thanh toán không hợp lệ", err)
		return
	}

	result, err := h.store.Generate(c.Request.Context(), repository.GenerateRequest{
		BuildingID:    req.BuildingID,
		BillingPeriod: req.BillingPeriod,
	})
	if err != nil {
		h.logger.WithError(err).WithField("building_id", req.BuildingID).Error("Failed to generate bills")
		h.respondError(c, err, service.MsgGenerateFailed)
		return
	}

	message := result.Message
	if message == "" {
		message = fmt.Sprintf("Đã tạo %d hóa đơn, %d hóa đơn đã tồn tại", result.BillsCreated, result.BillsExisted)
	}
	utils.SuccessResponse(c, message, result)
}

// ListBills retrieves a paginated list of bills
// @Summary List bills
// @Description Get bills with pagination and filters. billingPeriod (YYYY-MM) takes precedence over billingMonth/billingYear.
// @Tags bills
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param status query string false "Bill status filter"
// @Param search query string false "Free-text search"
// @Param billingPeriod query string false "Billing period (YYYY-MM)"
// @Param billingMonth query int false "Billing month"
// @Param billingYear query int false "Billing year"
// @Success 200 {object} utils.PaginatedResponse{data=[]models.Bill} "Bills retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid billing period"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /api/v1/bills [get]
func (h *BillHandler) ListBills(c *gin.Context) {
	params, err := listParamsFromQuery(c)
	if err != nil {
		utils.BadRequestResponse(c, "Kỳ thanh toán không hợp lệ", err)
		return
	}

	bills, meta, err := h.store.LoadBills(c.Request.Context(), params)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load bills")
		h.respondError(c, err, service.MsgLoadBillsFailed)
		return
	}

	utils.PaginatedSuccessResponse(c, "Tải danh sách hóa đơn thành công", bills, meta.Page, meta.Limit, meta.Total)
}

// GetBillStats retrieves billing statistics for the filtered bill set
// @Summary Get billing statistics
// @Description Counts and amount totals per status, plus overdue/due-soon/meter-pending counters
// @Tags bills
// @Accept json
// @Produce json
// @Param status query string false "Bill status filter"
// @Param search query string false "Free-text search"
// @Param billingPeriod query string false "Billing period (YYYY-MM)"
// @Success 200 {object} utils.APIResponse{data=service.BillStats} "Statistics"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /api/v1/bills/stats [get]
func (h *BillHandler) GetBillStats(c *gin.Context) {
	params, err := listParamsFromQuery(c)
	if err != nil {
		utils.BadRequestResponse(c, "Kỳ thanh toán không hợp lệ", err)
		return
	}

	stats, err := h.store.Stats(c.Request.Context(), params)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute bill statistics")
		h.respondError(c, err, service.MsgLoadBillsFailed)
		return
	}

	utils.SuccessResponse(c, "Tải thống kê hóa đơn thành công", stats)
}

// ExportBills exports the filtered bill list to Excel
// @Summary Export bills to Excel
// @Description Download the filtered bill list as an .xlsx file
// @Tags bills
// @Accept json
// @Produce octet-stream
// @Param status query string false "Bill status filter"
// @Param billingPeriod query string false "Billing period (YYYY-MM)"
// @Success 200 {file} file "The Excel file"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /api/v1/bills/export [get]
func (h *BillHandler) ExportBills(c *gin.Context) {
	params, err := listParamsFromQuery(c)
	if err != nil {
		utils.BadRequestResponse(c, "Kỳ thanh toán không hợp lệ", err)
		return
	}

	content, filename, err := h.exporter.ExportBillsToExcel(c.Request.Context(), params)
	if err != nil {
		h.logger.WithError(err).Error("Failed to export bills")
		h.respondError(c, err, service.MsgExportFailed)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

// GetBill retrieves a single bill
// @Summary Get a bill by ID
// @Description Fetch one bill and cache it as the store's current bill
// @Tags bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Success 200 {object} utils.APIResponse{data=models.Bill} "Bill retrieved"
// @Failure 404 {object} utils.APIResponse "Bill not found"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /api/v1/bills/{id} [get]
func (h *BillHandler) GetBill(c *gin.Context) {
	id := c.Param("id")

	bill, err := h.store.LoadBillByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			utils.NotFoundResponse(c, "Không tìm thấy hóa đơn")
			return
		}
		h.logger.WithError(err).WithField("bill_id", id).Error("Failed to load bill")
		h.respondError(c, err, service.MsgLoadBillFailed)
		return
	}

	utils.SuccessResponse(c, "Tải hóa đơn thành công", bill)
}

// UpdateBill patches a bill
// @Summary Update a bill
// @Description Patch mutable bill fields. Overdue is a derived display state and cannot be written.
// @Tags bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Param request body UpdateBillRequest true "Fields to update"
// @Success 200 {object} utils.APIResponse{data=models.Bill} "Bill updated"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Bill not found"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /api/v1/bills/{id} [patch]
func (h *BillHandler) UpdateBill(c *gin.Context) {
	id := c.Param("id")

	var req UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid request body")
		utils.BadRequestResponse(c, "Request body must be valid JSON", err)
		return
	}

	update := repository.UpdateBillRequest{
		DueDate:        req.DueDate,
		DiscountAmount: req.DiscountAmount,
		Note:           req.Note,
	}
	if req.Status != nil {
		status := models.BillStatus(*req.Status)
		if err := status.Validate(); err != nil {
			utils.BadRequestResponse(c, "Trạng thái hóa đơn không hợp lệ", err)
			return
		}
		update.Status = &status
	}

	bill, err := h.store.Update(c.Request.Context(), id, update)
	if err != nil {
		if repository.IsNotFound(err) {
			utils.NotFoundResponse(c, "Không tìm thấy hóa đơn")
			return
		}
		h.logger.WithError(err).WithField("bill_id", id).Error("Failed to update bill")
		h.respondError(c, err, service.MsgUpdateBillFailed)
		return
	}

	utils.SuccessResponse(c, service.MsgUpdateBillSuccess, bill)
}

// DeleteBill removes a bill
// @Summary Delete a bill
// @Tags bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Success 200 {object} utils.APIResponse "Bill deleted"
// @Failure 404 {object} utils.APIResponse "Bill not found"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /api/v1/bills/{id} [delete]
func (h *BillHandler) DeleteBill(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.Remove(c.Request.Context(), id); err != nil {
		if repository.IsNotFound(err) {
			utils.NotFoundResponse(c, "Không tìm thấy hóa đơn")
			return
		}
		h.logger.WithError(err).WithField("bill_id", id).Error("Failed to delete bill")
		h.respondError(c, err, service.MsgDeleteBillFailed)
		return
	}

	utils.SuccessResponse(c, service.MsgDeleteBillSuccess, nil)
}

// MarkPaid marks a bill as paid
// @Summary Mark a bill as paid
// @Tags bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Success 200 {object} utils.APIResponse{data=models.Bill} "Bill marked as paid"
// @Failure 404 {object} utils.APIResponse "Bill not found"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /api/v1/bills/{id}/mark-paid [post]
func (h *BillHandler) MarkPaid(c *gin.Context) {
	id := c.Param("id")

	bill, err := h.store.MarkPaid(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			utils.NotFoundResponse(c, "Không tìm thấy hóa đơn")
			return
		}
		h.logger.WithError(err).WithField("bill_id", id).Error("Failed to mark bill as paid")
		h.respondError(c, err, service.MsgMarkPaidFailed)
		return
	}

	utils.SuccessResponse(c, service.MsgMarkPaidSuccess, bill)
}

// UpdateMeterData submits meter readings for a bill
// @Summary Submit meter readings
// @Description Validate and submit current/last meter readings for the bill's outstanding metered costs. Validation failures are reported without any backend call; readings must satisfy current > last and current != 0.
// @Tags bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Param request body MeterDataRequest true "Occupancy and meter readings"
// @Success 200 {object} utils.APIResponse{data=models.Bill} "Meter data submitted"
// @Failure 400 {object} utils.APIResponse "Validation failure"
// @Failure 404 {object} utils.APIResponse "Bill not found"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /api/v1/bills/{id}/meter-data [post]
func (h *BillHandler) UpdateMeterData(c *gin.Context) {
	id := c.Param("id")

	var req MeterDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid request body")
		utils.BadRequestResponse(c, "Request body must be valid JSON", err)
		return
	}

	bill, err := h.store.FetchBill(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			utils.NotFoundResponse(c, "Không tìm thấy hóa đơn")
			return
		}
		h.logger.WithError(err).WithField("bill_id", id).Error("Failed to fetch bill for meter update")
		h.respondError(c, err, service.MsgLoadBillFailed)
		return
	}

	h.meters.Open(bill)
	for _, input := range req.MeterData {
		if err := h.meters.SetReading(id, input.RoomCostID, service.ReadingFieldCurrent, input.CurrentReading); err != nil {
			utils.BadRequestResponse(c, service.MsgUpdateMeterFailed, err)
			return
		}
		if err := h.meters.SetReading(id, input.RoomCostID, service.ReadingFieldLast, input.LastReading); err != nil {
			utils.BadRequestResponse(c, service.MsgUpdateMeterFailed, err)
			return
		}
	}

	if err := h.meters.Validate(id); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	updated, err := h.meters.Submit(c.Request.Context(), id, req.OccupancyCount)
	if err != nil {
		h.logger.WithError(err).WithField("bill_id", id).Error("Failed to submit meter data")
		h.respondError(c, err, service.MsgUpdateMeterFailed)
		return
	}

	utils.SuccessResponse(c, service.MsgUpdateMeterSuccess, updated)
}
