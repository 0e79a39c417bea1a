package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/albertelmo/goodlift-sub001/internal/domain"
	"github.com/albertelmo/goodlift-sub001/internal/repository"
	"github.com/albertelmo/goodlift-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordHandler holds the record service dependency.
type RecordHandler struct {
	recordService service.RecordService
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(recordService service.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

// --- DTOs for API (Data Transfer Objects) ---

// SetPayload is one incoming set row; isCompleted defaults to false.
type SetPayload struct {
	Weight      *float64 `json:"weight"`
	Reps        *int     `json:"reps"`
	IsCompleted *bool    `json:"isCompleted"`
}

// CreateRecordRequest defines the expected JSON for creating a record.
type CreateRecordRequest struct {
	Date            string       `json:"date" binding:"required"`
	TypeID          *string      `json:"typeId"`
	IsTextRecord    bool         `json:"isTextRecord"`
	TextContent     string       `json:"textContent"`
	DurationMinutes *int         `json:"durationMinutes"`
	Notes           string       `json:"notes"`
	ConditionLevel  *string      `json:"conditionLevel"`
	IntensityLevel  *string      `json:"intensityLevel"`
	FatigueLevel    *string      `json:"fatigueLevel"`
	IsCompleted     bool         `json:"isCompleted"`
	Sets            []SetPayload `json:"sets"`
}

// BatchCreateRequest wraps the atomic multi-record create.
type BatchCreateRequest struct {
	Records []CreateRecordRequest `json:"records" binding:"required,min=1"`
}

// UpdateRecordRequest defines a partial update; absent fields stay as-is.
// typeId may be the empty string to clear the type, a level may be the
// empty string to clear that level.
type UpdateRecordRequest struct {
	Date            *string       `json:"date"`
	TypeID          *string       `json:"typeId"`
	IsTextRecord    *bool         `json:"isTextRecord"`
	TextContent     *string       `json:"textContent"`
	DurationMinutes *int          `json:"durationMinutes"`
	Notes           *string       `json:"notes"`
	ConditionLevel  *string       `json:"conditionLevel"`
	IntensityLevel  *string       `json:"intensityLevel"`
	FatigueLevel    *string       `json:"fatigueLevel"`
	IsCompleted     *bool         `json:"isCompleted"`
	DisplayOrder    *int          `json:"displayOrder"`
	Sets            *[]SetPayload `json:"sets"`
}

// CompletionRequest toggles an isCompleted flag.
type CompletionRequest struct {
	IsCompleted *bool `json:"isCompleted" binding:"required"`
}

// ReorderRequest reassigns display orders within one date partition.
type ReorderRequest struct {
	Date        string `json:"date" binding:"required"`
	Assignments []struct {
		ID    string `json:"id" binding:"required"`
		Order int    `json:"order" binding:"required"`
	} `json:"assignments" binding:"required,min=1"`
}

// SetResponse is the DTO for returning one set.
type SetResponse struct {
	ID          string    `json:"id"`
	SetNumber   int       `json:"setNumber"`
	Weight      *float64  `json:"weight,omitempty"`
	Reps        *int      `json:"reps,omitempty"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RecordResponse is the DTO for returning one hydrated record.
type RecordResponse struct {
	ID              string        `json:"id"`
	Date            string        `json:"date"`
	Kind            string        `json:"kind"`
	TypeID          string        `json:"typeId,omitempty"`
	TypeName        string        `json:"typeName,omitempty"`
	IsTextRecord    bool          `json:"isTextRecord"`
	TextContent     string        `json:"textContent,omitempty"`
	DurationMinutes *int          `json:"durationMinutes,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	ConditionLevel  *string       `json:"conditionLevel,omitempty"`
	IntensityLevel  *string       `json:"intensityLevel,omitempty"`
	FatigueLevel    *string       `json:"fatigueLevel,omitempty"`
	IsCompleted     bool          `json:"isCompleted"`
	DisplayOrder    int           `json:"displayOrder"`
	Sets            []SetResponse `json:"sets"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// MapRecordDetailToResponse converts a domain.RecordDetail to its DTO.
func MapRecordDetailToResponse(d *domain.RecordDetail) RecordResponse {
	if d == nil {
		return RecordResponse{}
	}
	resp := RecordResponse{
		ID:              d.Record.ID.Hex(),
		Date:            d.Record.Date,
		Kind:            string(d.Kind),
		TypeName:        d.TypeName,
		IsTextRecord:    d.Record.IsTextRecord,
		TextContent:     d.Record.TextContent,
		DurationMinutes: d.Record.DurationMinutes,
		Notes:           d.Record.Notes,
		ConditionLevel:  levelToString(d.Record.ConditionLevel),
		IntensityLevel:  levelToString(d.Record.IntensityLevel),
		FatigueLevel:    levelToString(d.Record.FatigueLevel),
		IsCompleted:     d.Record.IsCompleted,
		DisplayOrder:    d.Record.DisplayOrder,
		Sets:            make([]SetResponse, 0, len(d.Sets)),
		CreatedAt:       d.Record.CreatedAt,
		UpdatedAt:       d.Record.UpdatedAt,
	}
	if d.Record.TypeID != nil && *d.Record.TypeID != primitive.NilObjectID {
		resp.TypeID = d.Record.TypeID.Hex()
	}
	for _, s := range d.Sets {
		resp.Sets = append(resp.Sets, SetResponse{
			ID:          s.ID.Hex(),
			SetNumber:   s.SetNumber,
			Weight:      s.Weight,
			Reps:        s.Reps,
			IsCompleted: s.IsCompleted,
			CreatedAt:   s.CreatedAt,
			UpdatedAt:   s.UpdatedAt,
		})
	}
	return resp
}

func levelToString(l *domain.EffortLevel) *string {
	if l == nil {
		return nil
	}
	s := string(*l)
	return &s
}

func levelFromString(s *string) *domain.EffortLevel {
	if s == nil {
		return nil
	}
	l := domain.EffortLevel(*s)
	return &l
}

// --- Handlers ---

// CreateRecord handles POST /records.
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get owner ID from token")
		return
	}
	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	input, err := mapCreateRequest(req)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.recordService.Create(c.Request.Context(), ownerID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapRecordDetailToResponse(detail))
}

// CreateRecordBatch handles POST /records/batch.
func (h *RecordHandler) CreateRecordBatch(c *gin.Context) {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get owner ID from token")
		return
	}
	var req BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	inputs := make([]service.CreateRecordInput, 0, len(req.Records))
	for _, r := range req.Records {
		input, err := mapCreateRequest(r)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		inputs = append(inputs, input)
	}

	details, err := h.recordService.CreateMany(c.Request.Context(), ownerID, inputs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	responses := make([]RecordResponse, 0, len(details))
	for i := range details {
		responses = append(responses, MapRecordDetailToResponse(&details[i]))
	}
	c.JSON(http.StatusCreated, responses)
}

// GetRecord handles GET /records/:id.
func (h *RecordHandler) GetRecord(c *gin.Context) {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get owner ID from token")
		return
	}
	recordID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}

	detail, err := h.recordService.GetByID(c.Request.Context(), ownerID, recordID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapRecordDetailToResponse(detail))
}

// ListRecords handles GET /records?startDate=&endDate=.
func (h *RecordHandler) ListRecords(c *gin.Context) {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get owner ID from token")
		return
	}

	details, err := h.recordService.List(c.Request.Context(), ownerID, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	responses := make([]RecordResponse, 0, len(details))
	for i := range details {
		responses = append(responses, MapRecordDetailToResponse(&details[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// UpdateRecord handles PATCH /records/:id.
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get owner ID from token")
		return
	}
	recordID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}
	var req UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	input := service.UpdateRecordInput{
		Date:            req.Date,
		IsTextRecord:    req.IsTextRecord,
		TextContent:     req.TextContent,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		ConditionLevel:  levelFromString(req.ConditionLevel),
		IntensityLevel:  levelFromString(req.IntensityLevel),
		FatigueLevel:    levelFromString(req.FatigueLevel),
		IsCompleted:     req.IsCompleted,
		DisplayOrder:    req.DisplayOrder,
	}
	if req.TypeID != nil {
		typeID, err := parseOptionalObjectID(*req.TypeID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid typeId format")
			return
		}
		input.TypeID = &typeID
	}
	if req.Sets != nil {
		sets := mapSetPayloads(*req.Sets)
		input.Sets = &sets
	}

	detail, err := h.recordService.Update(c.Request.Context(), ownerID, recordID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapRecordDetailToResponse(detail))
}

// DeleteRecord handles DELETE /records/:id.
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get owner ID from token")
		return
	}
	recordID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}

	if err := h.recordService.Delete(c.Request.Context(), ownerID, recordID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": recordID.Hex()})
}

// SetRecordCompletion handles PATCH /records/:id/completion.
func (h *RecordHandler) SetRecordCompletion(c *gin.Context) {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get owner ID from token")
		return
	}
	recordID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}
	var req CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.recordService.SetRecordCompleted(c.Request.Context(), ownerID, recordID, *req.IsCompleted); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": recordID.Hex(), "isCompleted": *req.IsCompleted})
}

// SetSetCompletion handles PATCH /records/:id/sets/:setId/completion.
func (h *RecordHandler) SetSetCompletion(c *gin.Context) {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get owner ID from token")
		return
	}
	recordID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}
	setID, err := primitive.ObjectIDFromHex(c.Param("setId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid set ID format")
		return
	}
	var req CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.recordService.SetSetCompleted(c.Request.Context(), ownerID, recordID, setID, *req.IsCompleted); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": setID.Hex(), "isCompleted": *req.IsCompleted})
}

// ReorderRecords handles PUT /records/order.
func (h *RecordHandler) ReorderRecords(c *gin.Context) {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get owner ID from token")
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	assignments := make([]service.OrderAssignment, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		recordID, err := primitive.ObjectIDFromHex(a.ID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid record ID format in assignments")
			return
		}
		assignments = append(assignments, service.OrderAssignment{RecordID: recordID, Order: a.Order})
	}

	if err := h.recordService.Reorder(c.Request.Context(), ownerID, req.Date, assignments); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": req.Date, "reordered": len(assignments)})
}

// --- helpers ---

func mapCreateRequest(req CreateRecordRequest) (service.CreateRecordInput, error) {
	input := service.CreateRecordInput{
		Date:            req.Date,
		IsTextRecord:    req.IsTextRecord,
		TextContent:     req.TextContent,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		ConditionLevel:  levelFromString(req.ConditionLevel),
		IntensityLevel:  levelFromString(req.IntensityLevel),
		FatigueLevel:    levelFromString(req.FatigueLevel),
		IsCompleted:     req.IsCompleted,
		Sets:            mapSetPayloads(req.Sets),
	}
	if req.TypeID != nil && *req.TypeID != "" {
		typeID, err := primitive.ObjectIDFromHex(*req.TypeID)
		if err != nil {
			return service.CreateRecordInput{}, errors.New("Invalid typeId format")
		}
		input.TypeID = &typeID
	}
	return input, nil
}

// parseOptionalObjectID treats the empty string as the nil ObjectID, which
// the service layer interprets as "clear the field".
func parseOptionalObjectID(s string) (primitive.ObjectID, error) {
	if s == "" {
		return primitive.NilObjectID, nil
	}
	return primitive.ObjectIDFromHex(s)
}

func mapSetPayloads(payloads []SetPayload) []service.SetInput {
	sets := make([]service.SetInput, 0, len(payloads))
	for _, p := range payloads {
		sets = append(sets, service.SetInput{
			Weight:      p.Weight,
			Reps:        p.Reps,
			IsCompleted: p.IsCompleted,
		})
	}
	return sets
}

// respondServiceError maps service errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var reorderErr *service.ReorderVerificationError
	switch {
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRecordNotFound),
		errors.Is(err, service.ErrSetNotFound),
		errors.Is(err, service.ErrTypeNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrDuplicateKey):
		// An explicit displayOrder colliding with an existing row is a
		// caller-fixable conflict, not a storage failure.
		abortWithError(c, http.StatusConflict, "display order already taken for this date")
	case errors.As(err, &reorderErr):
		mismatches := make([]gin.H, 0, len(reorderErr.Mismatches))
		for _, m := range reorderErr.Mismatches {
			entry := gin.H{"id": m.RecordID.Hex(), "requested": m.Requested}
			if m.Persisted != nil {
				entry["persisted"] = *m.Persisted
			}
			mismatches = append(mismatches, entry)
		}
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":      "reorder verification failed",
			"mismatches": mismatches,
		})
	default:
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
