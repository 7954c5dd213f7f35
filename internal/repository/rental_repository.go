package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/thanhcanhit/trustay-billing-svc/internal/models"
)

// RentalRepository reads rental contracts from the backend. Rentals are
// owned by the backend; this layer holds an immutable, periodically
// refetched copy behind a TTL cache.
type RentalRepository interface {
	GetByID(ctx context.Context, id string) (models.Rental, error)
}

// rentalRepository implements RentalRepository over HTTP with a local
// TTL cache
type rentalRepository struct {
	client *Client
	cache  *cache.Cache
}

// NewRentalRepository creates a new instance of RentalRepository
func NewRentalRepository(client *Client, ttl time.Duration) RentalRepository {
	return &rentalRepository{
		client: client,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// GetByID returns the cached rental when fresh, otherwise refetches it
func (r *rentalRepository) GetByID(ctx context.Context, id string) (models.Rental, error) {
	if cached, ok := r.cache.Get(id); ok {
		return cached.(models.Rental), nil
	}

	raw, err := r.client.do(ctx, http.MethodGet, "/api/rentals/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return models.Rental{}, err
	}

	var rental models.Rental
	if err := json.Unmarshal(normalizeEntity(raw), &rental); err != nil {
		return models.Rental{}, fmt.Errorf("failed to decode rental response: %w", err)
	}

	r.cache.SetDefault(id, rental)
	return rental, nil
}
