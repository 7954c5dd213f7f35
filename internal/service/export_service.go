package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/thanhcanhit/trustay-billing-svc/internal/models"
	"github.com/thanhcanhit/trustay-billing-svc/internal/repository"
	"github.com/thanhcanhit/trustay-billing-svc/pkg/logger"
)

// ExportService renders bill lists as Excel workbooks for landlords
type ExportService struct {
	repo   repository.BillRepository
	logger *logger.Logger
}

// NewExportService creates a new instance of ExportService
func NewExportService(repo repository.BillRepository, log *logger.Logger) *ExportService {
	return &ExportService{
		repo:   repo,
		logger: log,
	}
}

// ExportBillsToExcel exports the filtered bill list to an Excel file and
// returns the file content with a generated filename
func (s *ExportService) ExportBillsToExcel(ctx context.Context, params repository.ListParams) ([]byte, string, error) {
	// Export the whole filtered set, not one page
	if params.Limit <= 0 {
		params.Limit = 1000
	}
	if params.Page <= 0 {
		params.Page = 1
	}

	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get bill data: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close Excel file")
		}
	}()

	sheetName := "Danh sách hóa đơn"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"STT", "Tòa nhà", "Phòng", "Kỳ", "Tiền thuê", "Điện", "Nước", "Khác", "Tổng cộng", "Đã thanh toán", "Còn lại", "Trạng thái", "Hạn thanh toán"}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#D3D3D3"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err == nil {
		f.SetCellStyle(sheetName, "A1", "M1", headerStyle)
	}

	now := time.Now()
	for i, bill := range list.Bills {
		row := i + 2

		status := models.StatusLabel(bill.Status)
		if bill.IsOverdue(now) {
			status = models.StatusLabel(models.BillStatusOverdue)
		}

		dueDate := ""
		if bill.DueDate != nil {
			dueDate = bill.DueDate.Format("02/01/2006")
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), bill.BuildingName())
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), bill.RoomName())
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), bill.BillingPeriod)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), models.FormatVND(bill.ItemTotal(models.BillItemTypeRent)))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), models.FormatVND(bill.ItemTotal(models.BillItemTypeElectricity)))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), models.FormatVND(bill.ItemTotal(models.BillItemTypeWater)))
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), models.FormatVND(bill.ItemTotal(models.BillItemTypeOther)))
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), models.FormatVND(bill.TotalAmount))
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), models.FormatVND(bill.PaidAmount))
		f.SetCellValue(sheetName, fmt.Sprintf("K%d", row), models.FormatVND(bill.RemainingAmount))
		f.SetCellValue(sheetName, fmt.Sprintf("L%d", row), status)
		f.SetCellValue(sheetName, fmt.Sprintf("M%d", row), dueDate)
	}

	for i := 1; i <= len(headers); i++ {
		col, _ := excelize.ColumnNumberToName(i)
		f.SetColWidth(sheetName, col, col, 16)
	}

	// Delete default Sheet1 if it exists
	if f.GetSheetName(0) == "Sheet1" && sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("bills_export_%s.xlsx", timestamp)

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buffer.Bytes(), filename, nil
}
