package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/thanhcanhit/trustay-billing-svc/internal/repository"
	"github.com/thanhcanhit/trustay-billing-svc/internal/service"
	"github.com/thanhcanhit/trustay-billing-svc/pkg/logger"
	"github.com/thanhcanhit/trustay-billing-svc/pkg/utils"
)

// RentalHandler handles rental-related HTTP requests
type RentalHandler struct {
	rentalRepo repository.RentalRepository
	logger     *logger.Logger
}

// NewRentalHandler creates a new RentalHandler instance
func NewRentalHandler(rentalRepo repository.RentalRepository, logger *logger.Logger) *RentalHandler {
	return &RentalHandler{
		rentalRepo: rentalRepo,
		logger:     logger,
	}
}

// GetRental retrieves a rental contract
// @Summary Get a rental by ID
// @Description Fetch one rental from the backend. Monetary fields arriving in the big-decimal wire format are normalized to canonical decimal strings. Responses are cached with a short TTL.
// @Tags rentals
// @Accept json
// @Produce json
// @Param id path string true "Rental ID"
// @Success 200 {object} utils.APIResponse{data=models.Rental} "Rental retrieved"
// @Failure 404 {object} utils.APIResponse "Rental not found"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /api/v1/rentals/{id} [get]
func (h *RentalHandler) GetRental(c *gin.Context) {
	id := c.Param("id")

	rental, err := h.rentalRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			utils.NotFoundResponse(c, "Không tìm thấy hợp đồng thuê")
			return
		}
		h.logger.WithError(err).WithField("rental_id", id).Error("Failed to load rental")
		utils.InternalServerErrorResponse(c, service.MsgLoadRentalFailed, err)
		return
	}

	utils.SuccessResponse(c, "Tải hợp đồng thuê thành công", rental)
}
