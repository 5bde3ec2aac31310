package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recallhq/recall-engine/pkg/ai"
	"github.com/recallhq/recall-engine/pkg/apperrors"
	"github.com/recallhq/recall-engine/pkg/models"
	"github.com/recallhq/recall-engine/pkg/services"
)

// mockFactService is a configurable mock for testing FactsHandler.
type mockFactService struct {
	facts  []*models.FactWithLatestItem
	fact   *models.FactWithLatestItem
	review *services.ReviewResult

	listErr   error
	createErr error
	updateErr error
	deleteErr error
	reviewErr error

	capturedContent string
	capturedID      uuid.UUID
	capturedInput   services.UpdateFactInput
	capturedAnswer  string

	deleteCalls int
}

func (m *mockFactService) List(ctx context.Context) ([]*models.FactWithLatestItem, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.facts, nil
}

func (m *mockFactService) Create(ctx context.Context, userContent string) (*models.FactWithLatestItem, error) {
	m.capturedContent = userContent
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.fact, nil
}

func (m *mockFactService) Update(ctx context.Context, id uuid.UUID, input services.UpdateFactInput) (*models.FactWithLatestItem, error) {
	m.capturedID = id
	m.capturedInput = input
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.fact, nil
}

func (m *mockFactService) Delete(ctx context.Context, id uuid.UUID) error {
	m.deleteCalls++
	m.capturedID = id
	return m.deleteErr
}

func (m *mockFactService) Review(ctx context.Context, id uuid.UUID, userAnswer string) (*services.ReviewResult, error) {
	m.capturedID = id
	m.capturedAnswer = userAnswer
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	return m.review, nil
}

var _ services.FactService = (*mockFactService)(nil)

func sampleFactWithItem() *models.FactWithLatestItem {
	fact := &models.Fact{ID: uuid.New(), UserContent: "content", Type: models.FactTypeGeneric}
	return fact.WithLatestItem(&models.FactItem{ID: uuid.New(), FactID: fact.ID, Question: "Q?"})
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestFactsHandler_List(t *testing.T) {
	service := &mockFactService{facts: []*models.FactWithLatestItem{sampleFactWithItem(), sampleFactWithItem()}}
	handler := NewFactsHandler(service, zap.NewNop())

	req := httptest.NewRequest("GET", "/api/facts", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body["success"] != true {
		t.Error("expected success envelope")
	}
	data := body["data"].(map[string]any)
	if data["total"].(float64) != 2 {
		t.Errorf("total = %v, want 2", data["total"])
	}
}

func TestFactsHandler_Create(t *testing.T) {
	service := &mockFactService{fact: sampleFactWithItem()}
	handler := NewFactsHandler(service, zap.NewNop())

	payload := bytes.NewBufferString(`{"user_content": "The speed of light is 299792458 m/s"}`)
	req := httptest.NewRequest("POST", "/api/facts", payload)
	w := httptest.NewRecorder()
	handler.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if service.capturedContent != "The speed of light is 299792458 m/s" {
		t.Errorf("service received %q", service.capturedContent)
	}
	body := decodeEnvelope(t, w)
	if body["success"] != true {
		t.Error("expected success envelope")
	}
}

func TestFactsHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty content", `{"user_content": ""}`},
		{"whitespace-only content", `{"user_content": "   "}`},
		{"missing content", `{}`},
		{"malformed json", `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockFactService{}
			handler := NewFactsHandler(service, zap.NewNop())

			req := httptest.NewRequest("POST", "/api/facts", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.Create(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestFactsHandler_Create_GenerationFailure(t *testing.T) {
	service := &mockFactService{createErr: &ai.GenerationError{Message: "provider down", Retryable: true}}
	handler := NewFactsHandler(service, zap.NewNop())

	req := httptest.NewRequest("POST", "/api/facts", bytes.NewBufferString(`{"user_content": "x"}`))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body["error"] != "generation_failed" {
		t.Errorf("error code = %v, want generation_failed", body["error"])
	}
}

func TestFactsHandler_Update(t *testing.T) {
	service := &mockFactService{fact: sampleFactWithItem()}
	handler := NewFactsHandler(service, zap.NewNop())

	factID := uuid.New()
	payload := bytes.NewBufferString(`{"user_content": "new content", "keep_schedule": true}`)
	req := httptest.NewRequest("PUT", "/api/facts/"+factID.String(), payload)
	req.SetPathValue("fid", factID.String())
	w := httptest.NewRecorder()
	handler.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if service.capturedID != factID {
		t.Errorf("service received id %v, want %v", service.capturedID, factID)
	}
	if service.capturedInput.UserContent == nil || *service.capturedInput.UserContent != "new content" {
		t.Error("new content not passed to service")
	}
	if !service.capturedInput.KeepSchedule {
		t.Error("keep_schedule not passed to service")
	}
}

func TestFactsHandler_Update_RequiresKeepSchedule(t *testing.T) {
	service := &mockFactService{fact: sampleFactWithItem()}
	handler := NewFactsHandler(service, zap.NewNop())

	factID := uuid.New()
	req := httptest.NewRequest("PUT", "/api/facts/"+factID.String(), bytes.NewBufferString(`{"user_content": "x"}`))
	req.SetPathValue("fid", factID.String())
	w := httptest.NewRecorder()
	handler.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body["error"] != "validation_error" {
		t.Errorf("error code = %v, want validation_error", body["error"])
	}
}

func TestFactsHandler_Update_WhitespaceContent(t *testing.T) {
	service := &mockFactService{fact: sampleFactWithItem()}
	handler := NewFactsHandler(service, zap.NewNop())

	factID := uuid.New()
	payload := bytes.NewBufferString(`{"user_content": "   ", "keep_schedule": true}`)
	req := httptest.NewRequest("PUT", "/api/facts/"+factID.String(), payload)
	req.SetPathValue("fid", factID.String())
	w := httptest.NewRecorder()
	handler.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body["error"] != "validation_error" {
		t.Errorf("error code = %v, want validation_error", body["error"])
	}
	if service.capturedID != uuid.Nil {
		t.Error("service must not be called for whitespace-only content")
	}
}

func TestFactsHandler_Update_NotFound(t *testing.T) {
	service := &mockFactService{updateErr: apperrors.ErrNotFound}
	handler := NewFactsHandler(service, zap.NewNop())

	factID := uuid.New()
	req := httptest.NewRequest("PUT", "/api/facts/"+factID.String(), bytes.NewBufferString(`{"keep_schedule": false}`))
	req.SetPathValue("fid", factID.String())
	w := httptest.NewRecorder()
	handler.Update(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body["error"] != "fact_not_found" {
		t.Errorf("error code = %v, want fact_not_found", body["error"])
	}
}

func TestFactsHandler_Update_InvalidID(t *testing.T) {
	service := &mockFactService{}
	handler := NewFactsHandler(service, zap.NewNop())

	req := httptest.NewRequest("PUT", "/api/facts/not-a-uuid", bytes.NewBufferString(`{"keep_schedule": true}`))
	req.SetPathValue("fid", "not-a-uuid")
	w := httptest.NewRecorder()
	handler.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body["error"] != "invalid_fact_id" {
		t.Errorf("error code = %v, want invalid_fact_id", body["error"])
	}
}

func TestFactsHandler_Delete(t *testing.T) {
	service := &mockFactService{}
	handler := NewFactsHandler(service, zap.NewNop())

	factID := uuid.New()
	req := httptest.NewRequest("DELETE", "/api/facts/"+factID.String(), nil)
	req.SetPathValue("fid", factID.String())
	w := httptest.NewRecorder()
	handler.Delete(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if service.deleteCalls != 1 || service.capturedID != factID {
		t.Error("delete not forwarded to service")
	}
	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]any)
	if data["success"] != true {
		t.Error("expected success in delete response data")
	}
}

func TestFactsHandler_Review(t *testing.T) {
	fact := sampleFactWithItem()
	service := &mockFactService{
		review: &services.ReviewResult{
			Grade: &ai.GradeResult{Grade: "correct", Confidence: 1.0},
			Fact:  fact,
		},
	}
	handler := NewFactsHandler(service, zap.NewNop())

	factID := uuid.New()
	req := httptest.NewRequest("POST", "/api/facts/"+factID.String()+"/review", bytes.NewBufferString(`{"answer": "Paris"}`))
	req.SetPathValue("fid", factID.String())
	w := httptest.NewRecorder()
	handler.Review(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if service.capturedAnswer != "Paris" {
		t.Errorf("service received answer %q", service.capturedAnswer)
	}
	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]any)
	grade := data["grade"].(map[string]any)
	if grade["grade"] != "correct" {
		t.Errorf("grade = %v, want correct", grade["grade"])
	}
}

func TestFactsHandler_Review_EmptyAnswer(t *testing.T) {
	service := &mockFactService{}
	handler := NewFactsHandler(service, zap.NewNop())

	factID := uuid.New()
	req := httptest.NewRequest("POST", "/api/facts/"+factID.String()+"/review", bytes.NewBufferString(`{"answer": ""}`))
	req.SetPathValue("fid", factID.String())
	w := httptest.NewRecorder()
	handler.Review(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestFactsHandler_Review_GradingFailure(t *testing.T) {
	service := &mockFactService{reviewErr: &ai.GradingError{Message: "provider down"}}
	handler := NewFactsHandler(service, zap.NewNop())

	factID := uuid.New()
	req := httptest.NewRequest("POST", "/api/facts/"+factID.String()+"/review", bytes.NewBufferString(`{"answer": "x"}`))
	req.SetPathValue("fid", factID.String())
	w := httptest.NewRecorder()
	handler.Review(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body["error"] != "grading_failed" {
		t.Errorf("error code = %v, want grading_failed", body["error"])
	}
}
