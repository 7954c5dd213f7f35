package repository

import (
	"encoding/json"
	"fmt"

	"github.com/thanhcanhit/trustay-billing-svc/internal/models"
)

// normalizeEntity unwraps the backend's inconsistent single-entity
// envelope. Some endpoints wrap the entity as {"data": T}, others return
// T bare; detection probes for a top-level "data" key and is idempotent
// on already-bare entities. Known ambiguity: an entity whose own schema
// has a field literally named "data" is misidentified as wrapped. The
// backend's per-endpoint shapes are not enumerable from here, so the
// heuristic stays, confined to this one function.
func normalizeEntity(raw json.RawMessage) json.RawMessage {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return raw
	}
	if data, ok := probe["data"]; ok {
		return data
	}
	return raw
}

// decodeBill decodes a single-bill response body
func decodeBill(raw json.RawMessage) (models.Bill, error) {
	var bill models.Bill
	if err := json.Unmarshal(normalizeEntity(raw), &bill); err != nil {
		return models.Bill{}, fmt.Errorf("failed to decode bill response: %w", err)
	}
	return bill, nil
}

// decodeBillList decodes a paginated bill list. The backend returns
// {"data": [...], "meta": {...}}; a bare array is tolerated with empty
// pagination metadata.
func decodeBillList(raw json.RawMessage) (BillList, error) {
	var envelope struct {
		Data []models.Bill     `json:"data"`
		Meta models.Pagination `json:"meta"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return BillList{Bills: envelope.Data, Meta: envelope.Meta}, nil
	}

	var bills []models.Bill
	if err := json.Unmarshal(raw, &bills); err != nil {
		return BillList{}, fmt.Errorf("failed to decode bill list response: %w", err)
	}
	return BillList{Bills: bills}, nil
}
