package models

import (
	"time"

	"github.com/Rhymond/go-money"
)

// statusLabels maps bill statuses to the Vietnamese labels shown in the
// landlord and tenant dashboards
var statusLabels = map[BillStatus]string{
	BillStatusDraft:     "Nháp",
	BillStatusPending:   "Chờ thanh toán",
	BillStatusPaid:      "Đã thanh toán",
	BillStatusOverdue:   "Quá hạn",
	BillStatusCancelled: "Đã hủy",
}

// statusColors maps bill statuses to UI badge variants
var statusColors = map[BillStatus]string{
	BillStatusDraft:     "secondary",
	BillStatusPending:   "warning",
	BillStatusPaid:      "success",
	BillStatusOverdue:   "destructive",
	BillStatusCancelled: "outline",
}

// StatusLabel returns the display label for a bill status. Unknown
// statuses fall back to a neutral label; this is a presentation concern
// and must not fail.
func StatusLabel(status BillStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return "Không xác định"
}

// StatusColor returns the UI badge variant for a bill status, falling
// back to the default variant for unknown values
func StatusColor(status BillStatus) string {
	if color, ok := statusColors[status]; ok {
		return color
	}
	return "default"
}

// IsOverdue reports whether the bill is pending and past its due date.
// Overdue is a derived display state, never written back to the bill.
func (b *Bill) IsOverdue(now time.Time) bool {
	if b.Status != BillStatusPending || b.DueDate == nil {
		return false
	}
	return now.After(*b.DueDate)
}

// DaysUntilDue returns the signed whole-day difference between the due
// date and now. Negative values mean days overdue. Fractional days are
// truncated, not rounded.
func DaysUntilDue(dueDate, now time.Time) int {
	return int(dueDate.Sub(now).Hours() / 24)
}

// IsDueSoon reports whether a pending bill is due within the next seven
// days. This is a distinct warning tier from overdue.
func (b *Bill) IsDueSoon(now time.Time) bool {
	if b.Status != BillStatusPending || b.DueDate == nil {
		return false
	}
	days := DaysUntilDue(*b.DueDate, now)
	return days > 0 && days <= 7
}

// FormatVND renders a decimal amount as Vietnamese dong for display
func FormatVND(amount Decimal) string {
	return money.New(amount.Round(0).IntPart(), money.VND).Display()
}
