package repository

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhcanhit/trustay-billing-svc/internal/models"
)

func TestNormalizeEntity(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "wrapped entity is unwrapped",
			input:    `{"data":{"id":"b1"}}`,
			expected: `{"id":"b1"}`,
		},
		{
			name:     "bare entity passes through",
			input:    `{"id":"b1","status":"pending"}`,
			expected: `{"id":"b1","status":"pending"}`,
		},
		{
			name:     "non-object passes through",
			input:    `[1,2,3]`,
			expected: `[1,2,3]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := normalizeEntity(json.RawMessage(tt.input))
			assert.JSONEq(t, tt.expected, string(out))
		})
	}
}

func TestNormalizeEntityIdempotent(t *testing.T) {
	raw := json.RawMessage(`{"data":{"id":"b1","status":"paid"}}`)
	once := normalizeEntity(raw)
	twice := normalizeEntity(once)
	assert.JSONEq(t, string(once), string(twice))
}

func TestDecodeBill(t *testing.T) {
	raw := json.RawMessage(`{"data":{"id":"b1","status":"pending","totalAmount":{"s":1,"e":6,"d":[3,5,0,0,0,0,0]}}}`)

	bill, err := decodeBill(raw)
	require.NoError(t, err)
	assert.Equal(t, "b1", bill.ID)
	assert.Equal(t, models.BillStatusPending, bill.Status)
	assert.Equal(t, "3500000", bill.TotalAmount.String())
}

func TestDecodeBillList(t *testing.T) {
	t.Run("envelope with meta", func(t *testing.T) {
		raw := json.RawMessage(`{"data":[{"id":"b1"},{"id":"b2"}],"meta":{"page":1,"limit":10,"total":25,"totalPages":3}}`)

		list, err := decodeBillList(raw)
		require.NoError(t, err)
		assert.Len(t, list.Bills, 2)
		assert.Equal(t, int64(25), list.Meta.Total)
		assert.Equal(t, 3, list.Meta.TotalPages)
	})

	t.Run("bare array tolerated", func(t *testing.T) {
		raw := json.RawMessage(`[{"id":"b1"}]`)

		list, err := decodeBillList(raw)
		require.NoError(t, err)
		assert.Len(t, list.Bills, 1)
		assert.Zero(t, list.Meta.Total)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := decodeBillList(json.RawMessage(`"nope"`))
		assert.Error(t, err)
	})
}

func TestListParamsQuery(t *testing.T) {
	params := ListParams{
		Page:         2,
		Limit:        20,
		Status:       models.BillStatusPending,
		Search:       "P201",
		BillingMonth: 3,
		BillingYear:  2025,
	}

	values := params.query()
	assert.Equal(t, "2", values.Get("page"))
	assert.Equal(t, "20", values.Get("limit"))
	assert.Equal(t, "pending", values.Get("status"))
	assert.Equal(t, "P201", values.Get("search"))
	assert.Equal(t, "3", values.Get("billingMonth"))
	assert.Equal(t, "2025", values.Get("billingYear"))

	// Zero values are omitted entirely
	empty := ListParams{}.query()
	assert.Empty(t, empty.Encode())
}

func TestAPIError(t *testing.T) {
	err := newAPIError(404, []byte(`{"success":false,"error":"Không tìm thấy hóa đơn"}`))
	assert.Equal(t, 404, err.Status)
	assert.Equal(t, "Không tìm thấy hóa đơn", err.Message)
	assert.True(t, IsNotFound(err))

	err = newAPIError(500, []byte(`{"message":"internal"}`))
	assert.Equal(t, "internal", err.Message)
	assert.False(t, IsNotFound(err))

	err = newAPIError(502, []byte(`<html>bad gateway</html>`))
	assert.Empty(t, err.Message)
	assert.Contains(t, err.Error(), "502")
}
