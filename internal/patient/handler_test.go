package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/storage"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	st := store.New(storage.NewMemory())
	if err := st.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	svc := NewService(st, nil)
	return NewHandler(svc), svc
}

func TestCreatePatientHandler(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, _ := json.Marshal(CreatePatientRequest{Name: "Margaret", Age: 78})
	req := httptest.NewRequest(http.MethodPost, "/api/patients", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.CreatePatient(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var p model.Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.ID == "" || p.Name != "Margaret" {
		t.Errorf("unexpected response: %+v", p)
	}
}

func TestCreatePatientHandlerValidation(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, _ := json.Marshal(CreatePatientRequest{Age: 78})
	req := httptest.NewRequest(http.MethodPost, "/api/patients", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.CreatePatient(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp ValidationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if _, ok := resp.Errors["name"]; !ok {
		t.Errorf("expected name validation error, got %v", resp.Errors)
	}
}

func TestCreatePatientHandlerBadJSON(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/patients", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	handler.CreatePatient(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetPatientHandlerNotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/patients/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()

	handler.GetPatient(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListPatientsHandler(t *testing.T) {
	handler, svc := newTestHandler(t)

	if _, err := svc.Create(context.Background(), CreatePatientRequest{Name: "Margaret", Age: 78}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	rec := httptest.NewRecorder()

	handler.ListPatients(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || len(resp.Patients) != 1 {
		t.Errorf("unexpected list response: %+v", resp)
	}
}

func TestDeletePatientHandler(t *testing.T) {
	handler, svc := newTestHandler(t)

	p, err := svc.Create(context.Background(), CreatePatientRequest{Name: "Margaret", Age: 78})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/patients/"+p.ID, nil)
	req = mux.SetURLVars(req, map[string]string{"id": p.ID})
	rec := httptest.NewRecorder()

	handler.DeletePatient(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, err := svc.Get(p.ID); err == nil {
		t.Error("patient still retrievable after delete")
	}
}
