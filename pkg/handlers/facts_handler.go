package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/recallhq/recall-engine/pkg/ai"
	"github.com/recallhq/recall-engine/pkg/apperrors"
	"github.com/recallhq/recall-engine/pkg/auth"
	"github.com/recallhq/recall-engine/pkg/models"
	"github.com/recallhq/recall-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// FactListResponse for GET /api/facts
type FactListResponse struct {
	Facts []*models.FactWithLatestItem `json:"facts"`
	Total int                          `json:"total"`
}

// CreateFactRequest for POST /api/facts
type CreateFactRequest struct {
	UserContent string `json:"user_content"`
}

// UpdateFactRequest for PUT /api/facts/{fid}
type UpdateFactRequest struct {
	UserContent  *string `json:"user_content,omitempty"`
	KeepSchedule *bool   `json:"keep_schedule"`
}

// ReviewFactRequest for POST /api/facts/{fid}/review
type ReviewFactRequest struct {
	Answer string `json:"answer"`
}

// DeleteFactResponse for DELETE /api/facts/{fid}
type DeleteFactResponse struct {
	Success bool `json:"success"`
}

// ============================================================================
// Handler
// ============================================================================

// FactsHandler handles fact lifecycle HTTP requests.
type FactsHandler struct {
	factService services.FactService
	logger      *zap.Logger
}

// NewFactsHandler creates a new facts handler.
func NewFactsHandler(factService services.FactService, logger *zap.Logger) *FactsHandler {
	return &FactsHandler{
		factService: factService,
		logger:      logger,
	}
}

// RegisterRoutes registers the facts handler's routes on the given mux.
func (h *FactsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/facts"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("PUT "+base+"/{fid}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE "+base+"/{fid}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("POST "+base+"/{fid}/review", authMiddleware.RequireAuth(h.Review))
}

// List handles GET /api/facts
func (h *FactsHandler) List(w http.ResponseWriter, r *http.Request) {
	facts, err := h.factService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list facts", zap.Error(err))
		h.writeServiceError(w, err, "list_facts_failed")
		return
	}

	response := FactListResponse{
		Facts: facts,
		Total: len(facts),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/facts
func (h *FactsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if strings.TrimSpace(req.UserContent) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "user_content is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	fact, err := h.factService.Create(r.Context(), req.UserContent)
	if err != nil {
		h.logger.Error("Failed to create fact", zap.Error(err))
		h.writeServiceError(w, err, "create_fact_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: fact}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/facts/{fid}
func (h *FactsHandler) Update(w http.ResponseWriter, r *http.Request) {
	factID, ok := ParseFactID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.KeepSchedule == nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "keep_schedule is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.UserContent != nil && strings.TrimSpace(*req.UserContent) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "user_content must not be empty"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	fact, err := h.factService.Update(r.Context(), factID, services.UpdateFactInput{
		UserContent:  req.UserContent,
		KeepSchedule: *req.KeepSchedule,
	})
	if err != nil {
		h.logger.Error("Failed to update fact",
			zap.String("fact_id", factID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "update_fact_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: fact}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/facts/{fid}
func (h *FactsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	factID, ok := ParseFactID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.factService.Delete(r.Context(), factID); err != nil {
		h.logger.Error("Failed to delete fact",
			zap.String("fact_id", factID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "delete_fact_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: DeleteFactResponse{Success: true}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Review handles POST /api/facts/{fid}/review
func (h *FactsHandler) Review(w http.ResponseWriter, r *http.Request) {
	factID, ok := ParseFactID(w, r, h.logger)
	if !ok {
		return
	}

	var req ReviewFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if strings.TrimSpace(req.Answer) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "answer is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.factService.Review(r.Context(), factID, req.Answer)
	if err != nil {
		h.logger.Error("Failed to review fact",
			zap.String("fact_id", factID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "review_fact_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeServiceError maps service errors onto HTTP status codes:
// not found -> 404, unauthenticated -> 401, provider failures -> 502 (the
// caller may retry), anything else -> 500.
func (h *FactsHandler) writeServiceError(w http.ResponseWriter, err error, errorCode string) {
	status := http.StatusInternalServerError
	code := errorCode
	message := err.Error()

	var genErr *ai.GenerationError
	var gradeErr *ai.GradingError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
		code = "fact_not_found"
		message = "Fact not found"
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
		code = "unauthorized"
		message = "Authentication required"
	case errors.As(err, &genErr):
		status = http.StatusBadGateway
		code = "generation_failed"
	case errors.As(err, &gradeErr):
		status = http.StatusBadGateway
		code = "grading_failed"
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
