package models

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// BillStatus represents the lifecycle state of a bill
type BillStatus string

const (
	BillStatusDraft     BillStatus = "draft"
	BillStatusPending   BillStatus = "pending"
	BillStatusPaid      BillStatus = "paid"
	BillStatusOverdue   BillStatus = "overdue"
	BillStatusCancelled BillStatus = "cancelled"
)

// String returns the status as a plain string
func (s BillStatus) String() string {
	return string(s)
}

// Validate checks that the status is one of the known lifecycle states.
// Unknown statuses are rejected on writes; reads tolerate them and fall
// back to a neutral display variant instead.
func (s BillStatus) Validate() error {
	allowed := []BillStatus{
		BillStatusDraft,
		BillStatusPending,
		BillStatusPaid,
		BillStatusOverdue,
		BillStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid bill status %q", s)
	}
	return nil
}

// BillItemType classifies a bill line item
type BillItemType string

const (
	BillItemTypeRent        BillItemType = "rent"
	BillItemTypeElectricity BillItemType = "electricity"
	BillItemTypeWater       BillItemType = "water"
	BillItemTypeOther       BillItemType = "other"
)

// MeteredCost identifies a per-room metered charge still awaiting a
// reading for the billing period
type MeteredCost struct {
	RoomCostID string `json:"roomCostId"`
	Name       string `json:"name"`
	Unit       string `json:"unit"`
}

// MeterReading carries one current/last reading pair for a metered cost
type MeterReading struct {
	RoomCostID     string  `json:"roomCostId"`
	CurrentReading float64 `json:"currentReading"`
	LastReading    float64 `json:"lastReading"`
}

// Consumption returns current minus last. Negative values are returned
// as-is so callers can flag the invalid state rather than hide it.
func (m MeterReading) Consumption() float64 {
	return m.CurrentReading - m.LastReading
}

// BillItem represents one line item on a bill
type BillItem struct {
	ID          string       `json:"id"`
	ItemType    BillItemType `json:"itemType"`
	ItemName    string       `json:"itemName"`
	Amount      Decimal      `json:"amount"`
	Quantity    *float64     `json:"quantity,omitempty"`
	UnitPrice   *Decimal     `json:"unitPrice,omitempty"`
	Description *string      `json:"description,omitempty"`
}

// Bill represents a monthly bill for one rented room
type Bill struct {
	ID                  string        `json:"id"`
	BillingPeriod       string        `json:"billingPeriod" example:"2025-03"`
	Status              BillStatus    `json:"status"`
	Subtotal            Decimal       `json:"subtotal"`
	DiscountAmount      Decimal       `json:"discountAmount"`
	TaxAmount           Decimal       `json:"taxAmount"`
	TotalAmount         Decimal       `json:"totalAmount"`
	PaidAmount          Decimal       `json:"paidAmount"`
	RemainingAmount     Decimal       `json:"remainingAmount"`
	DueDate             *time.Time    `json:"dueDate,omitempty"`
	PaidDate            *time.Time    `json:"paidDate,omitempty"`
	RequiresMeterData   bool          `json:"requiresMeterData"`
	MeteredCostsToInput []MeteredCost `json:"meteredCostsToInput,omitempty"`
	OccupancyCount      int           `json:"occupancyCount"`
	BillItems           []BillItem    `json:"billItems,omitempty"`
	Rental              *Rental       `json:"rental,omitempty"`
	CreatedAt           *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt           *time.Time    `json:"updatedAt,omitempty"`
}

// ItemsByType groups the bill's line items by item type, preserving the
// original item order within each group
func (b *Bill) ItemsByType() map[BillItemType][]BillItem {
	return lo.GroupBy(b.BillItems, func(item BillItem) BillItemType {
		return item.ItemType
	})
}

// ItemTotal sums the amounts of all line items of the given type
func (b *Bill) ItemTotal(itemType BillItemType) Decimal {
	total := decimal.Zero
	for _, item := range b.BillItems {
		if item.ItemType == itemType {
			total = total.Add(item.Amount.Decimal)
		}
	}
	return NewDecimal(total)
}

// RoomName returns the denormalized room name for display, empty when the
// rental chain is incomplete
func (b *Bill) RoomName() string {
	if b.Rental == nil || b.Rental.RoomInstance == nil || b.Rental.RoomInstance.Room == nil {
		return ""
	}
	return b.Rental.RoomInstance.Room.Name
}

// BuildingName returns the denormalized building name for display
func (b *Bill) BuildingName() string {
	if b.Rental == nil || b.Rental.RoomInstance == nil || b.Rental.RoomInstance.Room == nil {
		return ""
	}
	return b.Rental.RoomInstance.Room.BuildingName
}

// Pagination holds list pagination metadata returned by the backend
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}
