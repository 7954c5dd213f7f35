package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhcanhit/trustay-billing-svc/internal/models"
)

func meterBill() models.Bill {
	return models.Bill{
		ID:                "b1",
		Status:            models.BillStatusDraft,
		RequiresMeterData: true,
		OccupancyCount:    2,
		MeteredCostsToInput: []models.MeteredCost{
			{RoomCostID: "c-elec", Name: "Điện", Unit: "kWh"},
			{RoomCostID: "c-water", Name: "Nước", Unit: "m3"},
		},
	}
}

func newMeterFixture(repo *fakeBillRepository) (*MeterService, *BillStore) {
	store := NewBillStore(repo, testLogger())
	return NewMeterService(store, testLogger()), store
}

func TestMeterOpenInitializesZeroReadings(t *testing.T) {
	meters, _ := newMeterFixture(&fakeBillRepository{})
	meters.Open(meterBill())

	readings, err := meters.Readings("b1")
	require.NoError(t, err)
	require.Len(t, readings, 2)
	for _, r := range readings {
		assert.Zero(t, r.CurrentReading)
		assert.Zero(t, r.LastReading)
	}
}

func TestMeterOpenReinitializesExistingSession(t *testing.T) {
	meters, _ := newMeterFixture(&fakeBillRepository{})
	bill := meterBill()

	meters.Open(bill)
	require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldCurrent, 150))

	// Reopening must drop the previously entered values
	meters.Open(bill)
	consumption, err := meters.Consumption("b1", "c-elec")
	require.NoError(t, err)
	assert.Zero(t, consumption)
}

func TestMeterSetReadingUnknownSession(t *testing.T) {
	meters, _ := newMeterFixture(&fakeBillRepository{})

	err := meters.SetReading("missing", "c-elec", ReadingFieldCurrent, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), MsgMeterSessionMissing)
}

func TestMeterSetReadingUnknownCost(t *testing.T) {
	meters, _ := newMeterFixture(&fakeBillRepository{})
	meters.Open(meterBill())

	assert.Error(t, meters.SetReading("b1", "c-gas", ReadingFieldCurrent, 100))
}

func TestMeterConsumptionUnclamped(t *testing.T) {
	meters, _ := newMeterFixture(&fakeBillRepository{})
	meters.Open(meterBill())

	require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldLast, 100))
	require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldCurrent, 150))
	consumption, err := meters.Consumption("b1", "c-elec")
	require.NoError(t, err)
	assert.Equal(t, 50.0, consumption)

	// Current below last yields a negative value, not zero
	require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldCurrent, 90))
	consumption, err = meters.Consumption("b1", "c-elec")
	require.NoError(t, err)
	assert.Equal(t, -10.0, consumption)
}

func TestMeterValidate(t *testing.T) {
	tests := []struct {
		name        string
		current     float64
		last        float64
		expectError bool
	}{
		{name: "strictly increasing passes", current: 150, last: 100, expectError: false},
		{name: "equal readings fail", current: 100, last: 100, expectError: true},
		{name: "decreasing readings fail", current: 90, last: 100, expectError: true},
		{name: "zero current fails even above last", current: 0, last: -5, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meters, _ := newMeterFixture(&fakeBillRepository{})
			bill := meterBill()
			bill.MeteredCostsToInput = bill.MeteredCostsToInput[:1]
			meters.Open(bill)

			require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldLast, tt.last))
			require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldCurrent, tt.current))

			err := meters.Validate("b1")
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), MsgMeterReadingInvalid)
				assert.Contains(t, err.Error(), "Điện")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMeterValidateEmptyCostListPasses(t *testing.T) {
	meters, _ := newMeterFixture(&fakeBillRepository{})
	bill := meterBill()
	bill.MeteredCostsToInput = nil
	meters.Open(bill)

	assert.NoError(t, meters.Validate("b1"))
}

func TestMeterSubmitInvalidNeverReachesBackend(t *testing.T) {
	repo := &fakeBillRepository{}
	meters, _ := newMeterFixture(repo)
	meters.Open(meterBill())

	require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldLast, 100))
	require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldCurrent, 90))

	_, err := meters.Submit(context.Background(), "b1", 2)
	require.Error(t, err)
	assert.Zero(t, repo.meterCalls, "validation failure must not hit the network")
}

func TestMeterSubmitBackendFailureKeepsSession(t *testing.T) {
	repo := &fakeBillRepository{billErr: errors.New("backend down")}
	meters, _ := newMeterFixture(repo)
	meters.Open(meterBill())

	require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldLast, 100))
	require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldCurrent, 150))
	require.NoError(t, meters.SetReading("b1", "c-water", ReadingFieldLast, 10))
	require.NoError(t, meters.SetReading("b1", "c-water", ReadingFieldCurrent, 14))

	_, err := meters.Submit(context.Background(), "b1", 2)
	require.Error(t, err)
	assert.Equal(t, 1, repo.meterCalls)

	// Entered readings survive for correction and resubmission
	readings, err := meters.Readings("b1")
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 150.0, readings[0].CurrentReading)

	// Resubmission succeeds once the backend recovers
	repo.billErr = nil
	repo.bill = models.Bill{ID: "b1", Status: models.BillStatusPending}
	updated, err := meters.Submit(context.Background(), "b1", 2)
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusPending, updated.Status)
}

func TestMeterSubmitSuccessDiscardsSession(t *testing.T) {
	repo := &fakeBillRepository{bill: models.Bill{ID: "b1", Status: models.BillStatusPending}}
	meters, _ := newMeterFixture(repo)
	meters.Open(meterBill())

	require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldLast, 100))
	require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldCurrent, 150))
	require.NoError(t, meters.SetReading("b1", "c-water", ReadingFieldLast, 10))
	require.NoError(t, meters.SetReading("b1", "c-water", ReadingFieldCurrent, 14))

	_, err := meters.Submit(context.Background(), "b1", 3)
	require.NoError(t, err)

	_, err = meters.Readings("b1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), MsgMeterSessionMissing)
}

func TestMeterSubmitPayloadOrderAndOccupancy(t *testing.T) {
	repo := &fakeBillRepository{}
	meters, _ := newMeterFixture(repo)

	meters.Open(meterBill())
	require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldLast, 100))
	require.NoError(t, meters.SetReading("b1", "c-elec", ReadingFieldCurrent, 150))
	require.NoError(t, meters.SetReading("b1", "c-water", ReadingFieldLast, 10))
	require.NoError(t, meters.SetReading("b1", "c-water", ReadingFieldCurrent, 14))

	// Submitting with an invalid occupancy falls back to the session's count
	_, err := meters.Submit(context.Background(), "b1", 0)
	require.NoError(t, err)
	require.Equal(t, 1, repo.meterCalls)

	captured := repo.lastMeterReq
	assert.Equal(t, "b1", captured.BillID)
	assert.Equal(t, 2, captured.OccupancyCount)
	require.Len(t, captured.MeterData, 2)
	assert.Equal(t, "c-elec", captured.MeterData[0].RoomCostID)
	assert.Equal(t, 150.0, captured.MeterData[0].CurrentReading)
	assert.Equal(t, "c-water", captured.MeterData[1].RoomCostID)
}

func TestMeterOpenClampsOccupancyToOne(t *testing.T) {
	repo := &fakeBillRepository{}
	meters, _ := newMeterFixture(repo)

	bill := meterBill()
	bill.OccupancyCount = 0
	bill.MeteredCostsToInput = nil
	meters.Open(bill)

	_, err := meters.Submit(context.Background(), "b1", 0)
	require.NoError(t, err)
	require.Equal(t, 1, repo.meterCalls)
	assert.Equal(t, 1, repo.lastMeterReq.OccupancyCount)
}
