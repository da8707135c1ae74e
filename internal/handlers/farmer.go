// internal/handlers/farmer.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/agrimarket-backend/internal/services"
	"github.com/javajoker/agrimarket-backend/internal/utils"
)

type FarmerHandler struct {
	farmerService *services.FarmerService
}

func NewFarmerHandler(farmerService *services.FarmerService) *FarmerHandler {
	return &FarmerHandler{
		farmerService: farmerService,
	}
}

// GET /farmers
func (h *FarmerHandler) GetFarmers(c *gin.Context) {
	params := services.FarmerSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
		State:            c.Query("state"),
	}

	if verifiedStr := c.Query("verified"); verifiedStr != "" {
		if verified, err := strconv.ParseBool(verifiedStr); err == nil {
			params.Verified = &verified
		}
	}

	farmers, total, err := h.farmerService.ListFarmers(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(farmers, total, params.PaginationParams))
}

// GET /farmers/:id
func (h *FarmerHandler) GetFarmer(c *gin.Context) {
	farmerID, ok := parseIDParam(c, "id", "farmer")
	if !ok {
		return
	}

	farmer, err := h.farmerService.GetFarmer(c.Request.Context(), farmerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"farmer": farmer,
	})
}
