package service

import (
	"errors"

	"github.com/thanhcanhit/trustay-billing-svc/internal/repository"
)

// User-facing messages surfaced by the API. The web frontends show these
// directly as toasts, so they stay in Vietnamese here.
const (
	MsgLoadBillsFailed    = "Không thể tải danh sách hóa đơn"
	MsgLoadBillFailed     = "Không thể tải thông tin hóa đơn"
	MsgCreateBillSuccess  = "Tạo hóa đơn thành công"
	MsgCreateBillFailed   = "Không thể tạo hóa đơn"
	MsgUpdateBillSuccess  = "Cập nhật hóa đơn thành công"
	MsgUpdateBillFailed   = "Không thể cập nhật hóa đơn"
	MsgDeleteBillSuccess  = "Xóa hóa đơn thành công"
	MsgDeleteBillFailed   = "Không thể xóa hóa đơn"
	MsgMarkPaidSuccess    = "Xác nhận thanh toán thành công"
	MsgMarkPaidFailed     = "Không thể xác nhận thanh toán"
	MsgUpdateMeterSuccess = "Cập nhật chỉ số điện nước thành công"
	MsgUpdateMeterFailed  = "Không thể cập nhật chỉ số điện nước"
	MsgPreviewFailed      = "Không thể xem trước hóa đơn"
	MsgGenerateFailed     = "Không thể tạo hóa đơn hàng loạt"
	MsgLoadRentalFailed   = "Không thể tải thông tin hợp đồng thuê"
	MsgExportFailed       = "Không thể xuất danh sách hóa đơn"

	MsgMeterReadingInvalid = "Chỉ số mới phải lớn hơn chỉ số cũ và khác 0"
	MsgMeterSessionMissing = "Phiên nhập chỉ số không tồn tại"
)

// UserMessage translates an error into a user-facing string. Backend
// messages pass through unchanged; anything else collapses to the
// caller-supplied fallback for the operation.
func UserMessage(err error, fallback string) string {
	var apiErr *repository.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
