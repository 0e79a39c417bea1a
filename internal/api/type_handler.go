package api

import (
	"net/http"
	"time"

	"github.com/albertelmo/goodlift-sub001/internal/domain"
	"github.com/albertelmo/goodlift-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TypeHandler exposes the read-only workout type catalog.
type TypeHandler struct {
	catalog service.TypeCatalog
}

// NewTypeHandler creates a new TypeHandler.
func NewTypeHandler(catalog service.TypeCatalog) *TypeHandler {
	return &TypeHandler{catalog: catalog}
}

// WorkoutTypeResponse is the DTO for one catalog entry.
type WorkoutTypeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func mapWorkoutTypeToResponse(wt *domain.WorkoutType) WorkoutTypeResponse {
	return WorkoutTypeResponse{
		ID:        wt.ID.Hex(),
		Name:      wt.Name,
		Kind:      string(wt.Kind),
		CreatedAt: wt.CreatedAt,
		UpdatedAt: wt.UpdatedAt,
	}
}

// ListWorkoutTypes handles GET /workout-types.
func (h *TypeHandler) ListWorkoutTypes(c *gin.Context) {
	types, err := h.catalog.ListTypes(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	responses := make([]WorkoutTypeResponse, 0, len(types))
	for i := range types {
		responses = append(responses, mapWorkoutTypeToResponse(&types[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetWorkoutType handles GET /workout-types/:id.
func (h *TypeHandler) GetWorkoutType(c *gin.Context) {
	typeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout type ID format")
		return
	}
	wt, err := h.catalog.ResolveType(c.Request.Context(), typeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapWorkoutTypeToResponse(wt))
}
