package models

import "time"

// Rental is the backend-owned rental contract for a room instance. The
// service holds an immutable, periodically-refetched copy; monetary
// fields may arrive in the big-decimal wire format and are normalized by
// the Decimal type.
type Rental struct {
	ID           string        `json:"id"`
	MonthlyRent  Decimal       `json:"monthlyRent"`
	DepositPaid  Decimal       `json:"depositPaid"`
	Status       string        `json:"status,omitempty"`
	StartDate    *time.Time    `json:"startDate,omitempty"`
	EndDate      *time.Time    `json:"endDate,omitempty"`
	RoomInstance *RoomInstance `json:"roomInstance,omitempty"`
}

// RoomInstance is a concrete rentable unit of a room
type RoomInstance struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Room *Room  `json:"room,omitempty"`
}

// Room carries denormalized display data for a room
type Room struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BuildingID   string `json:"buildingId,omitempty"`
	BuildingName string `json:"buildingName,omitempty"`
}
