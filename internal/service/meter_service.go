package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/thanhcanhit/trustay-billing-svc/internal/models"
	"github.com/thanhcanhit/trustay-billing-svc/internal/repository"
	"github.com/thanhcanhit/trustay-billing-svc/pkg/logger"
)

// ReadingField selects which half of a reading pair to update
type ReadingField string

const (
	ReadingFieldCurrent ReadingField = "current"
	ReadingFieldLast    ReadingField = "last"
)

// meterSession holds the transient reading state for one bill while the
// landlord fills in meter values
type meterSession struct {
	billID         string
	occupancyCount int
	costs          []models.MeteredCost
	readings       map[string]*models.MeterReading
}

// MeterService manages meter-reading reconciliation sessions. Readings
// are client-transient state until submission: a session survives backend
// failures so the user never re-enters values, and is discarded only on
// successful submission or when the bill is reopened.
type MeterService struct {
	store  *BillStore
	logger *logger.Logger

	mu       sync.Mutex
	sessions map[string]*meterSession
}

// NewMeterService creates a new meter reconciliation service
func NewMeterService(store *BillStore, log *logger.Logger) *MeterService {
	return &MeterService{
		store:    store,
		logger:   log,
		sessions: make(map[string]*meterSession),
	}
}

// Open starts an editing session for the bill's outstanding metered
// costs. Reopening always reinitializes every reading to zero; stale
// state from a previously edited bill must not leak in.
func (m *MeterService) Open(bill models.Bill) {
	session := &meterSession{
		billID:         bill.ID,
		occupancyCount: bill.OccupancyCount,
		costs:          append([]models.MeteredCost(nil), bill.MeteredCostsToInput...),
		readings:       make(map[string]*models.MeterReading, len(bill.MeteredCostsToInput)),
	}
	if session.occupancyCount < 1 {
		session.occupancyCount = 1
	}
	for _, cost := range session.costs {
		session.readings[cost.RoomCostID] = &models.MeterReading{RoomCostID: cost.RoomCostID}
	}

	m.mu.Lock()
	m.sessions[bill.ID] = session
	m.mu.Unlock()
}

// SetReading updates one half of a reading pair. Values are not range
// checked here; validation happens at submit time.
func (m *MeterService) SetReading(billID, roomCostID string, field ReadingField, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[billID]
	if !ok {
		return fmt.Errorf("%s: %s", MsgMeterSessionMissing, billID)
	}
	reading, ok := session.readings[roomCostID]
	if !ok {
		return fmt.Errorf("unknown metered cost %q for bill %s", roomCostID, billID)
	}

	switch field {
	case ReadingFieldCurrent:
		reading.CurrentReading = value
	case ReadingFieldLast:
		reading.LastReading = value
	default:
		return fmt.Errorf("unknown reading field %q", field)
	}
	return nil
}

// Consumption returns current minus last for one metered cost. Negative
// values are returned unclamped so the UI can show the warning state.
func (m *MeterService) Consumption(billID, roomCostID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[billID]
	if !ok {
		return 0, fmt.Errorf("%s: %s", MsgMeterSessionMissing, billID)
	}
	reading, ok := session.readings[roomCostID]
	if !ok {
		return 0, fmt.Errorf("unknown metered cost %q for bill %s", roomCostID, billID)
	}
	return reading.Consumption(), nil
}

// Validate checks every metered cost of the session: the current reading
// must be non-zero and strictly greater than the last one. A bill without
// metered costs passes trivially; it may require only occupancy
// confirmation.
func (m *MeterService) Validate(billID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[billID]
	if !ok {
		return fmt.Errorf("%s: %s", MsgMeterSessionMissing, billID)
	}
	return session.validate()
}

func (s *meterSession) validate() error {
	for _, cost := range s.costs {
		reading := s.readings[cost.RoomCostID]
		if reading.CurrentReading == 0 || reading.CurrentReading <= reading.LastReading {
			return fmt.Errorf("%s: %s", cost.Name, MsgMeterReadingInvalid)
		}
	}
	return nil
}

// Readings returns the session's reading pairs in metered-cost order
func (m *MeterService) Readings(billID string) ([]models.MeterReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[billID]
	if !ok {
		return nil, fmt.Errorf("%s: %s", MsgMeterSessionMissing, billID)
	}
	return session.payload(), nil
}

func (s *meterSession) payload() []models.MeterReading {
	readings := make([]models.MeterReading, 0, len(s.costs))
	for _, cost := range s.costs {
		readings = append(readings, *s.readings[cost.RoomCostID])
	}
	return readings
}

// Submit validates the session and sends the meter data to the backend
// through the store. Validation failures never reach the network. On
// success the session is discarded and the store refreshes the bill
// list; on backend failure the session stays intact for correction and
// resubmission.
func (m *MeterService) Submit(ctx context.Context, billID string, occupancyCount int) (models.Bill, error) {
	m.mu.Lock()
	session, ok := m.sessions[billID]
	if !ok {
		m.mu.Unlock()
		return models.Bill{}, fmt.Errorf("%s: %s", MsgMeterSessionMissing, billID)
	}
	if err := session.validate(); err != nil {
		m.mu.Unlock()
		return models.Bill{}, err
	}
	if occupancyCount < 1 {
		occupancyCount = session.occupancyCount
	}
	payload := session.payload()
	m.mu.Unlock()

	bill, err := m.store.UpdateMeter(ctx, repository.MeterDataRequest{
		BillID:         billID,
		OccupancyCount: occupancyCount,
		MeterData:      payload,
	})
	if err != nil {
		return models.Bill{}, err
	}

	m.mu.Lock()
	delete(m.sessions, billID)
	m.mu.Unlock()

	m.logger.WithFields(map[string]interface{}{
		"bill_id":  billID,
		"readings": len(payload),
	}).Info("Meter data submitted successfully")

	return bill, nil
}
