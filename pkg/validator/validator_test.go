package validator_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ghuser/supplytrack/pkg/httpx"
	pkgvalidator "github.com/ghuser/supplytrack/pkg/validator"
)

type sampleStruct struct {
	ID    string `validate:"required,uuid"`
	Name  string `validate:"required,notblank,max=10"`
	Type  string `validate:"omitempty,oneof=LOCATION_UPDATE STATUS_UPDATE"`
	Limit int    `validate:"gte=0,lte=100"`
}

func validSample() sampleStruct {
	return sampleStruct{ID: "550e8400-e29b-41d4-a716-446655440000", Name: "hello"}
}

func TestValidate_valid(t *testing.T) {
	s := validSample()
	if err := pkgvalidator.Validate(&s); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestValidate_missingRequired(t *testing.T) {
	s := sampleStruct{}
	if err := pkgvalidator.Validate(&s); err == nil {
		t.Fatal("expected validation error for empty struct")
	}
}

func TestFormatValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sampleStruct)
		field  string
		want   string
	}{
		{"required", func(s *sampleStruct) { s.ID = "" }, "ID", "This field is required"},
		{"uuid", func(s *sampleStruct) { s.ID = "not-a-uuid" }, "ID", "Must be a valid UUID"},
		{"blank", func(s *sampleStruct) { s.Name = "   " }, "Name", "Must not be blank"},
		{"max", func(s *sampleStruct) { s.Name = "12345678901" }, "Name", "Maximum length is 10"},
		{"oneof", func(s *sampleStruct) { s.Type = "TELEPORT" }, "Type", "Must be one of: LOCATION_UPDATE, STATUS_UPDATE"},
		{"gte", func(s *sampleStruct) { s.Limit = -1 }, "Limit", "Must be greater than or equal to 0"},
		{"lte", func(s *sampleStruct) { s.Limit = 101 }, "Limit", "Must be less than or equal to 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSample()
			tt.mutate(&s)
			m := pkgvalidator.FormatValidationErrors(pkgvalidator.Validate(&s))
			if m[tt.field] != tt.want {
				t.Errorf("%s: got %q, want %q", tt.field, m[tt.field], tt.want)
			}
		})
	}
}

func TestFormatValidationErrors_nonValidationError(t *testing.T) {
	m := pkgvalidator.FormatValidationErrors(http.ErrNoCookie)
	if len(m) != 0 {
		t.Errorf("expected empty map for non-validation error, got %v", m)
	}
}

// --- ValidateRequest ---

type itemReq struct {
	Name  string   `json:"name"  validate:"required,notblank,max=255"`
	Price *float64 `json:"price"`
}

func TestValidateRequest_valid(t *testing.T) {
	body := `{"name":"widget","price":12.5}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	req, ok := pkgvalidator.ValidateRequest[itemReq](w, r)
	if !ok {
		t.Fatalf("expected ok=true, got false. Response: %s", w.Body.String())
	}
	if req.Name != "widget" || req.Price == nil || *req.Price != 12.5 {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestValidateRequest_Failures(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"malformed JSON", "{bad json", http.StatusBadRequest, "Invalid JSON"},
		{"empty body", "", http.StatusBadRequest, "Request body is required"},
		{"missing name", `{"price":1}`, http.StatusUnprocessableEntity, "Validation failed"},
		{"blank name", `{"name":"  "}`, http.StatusUnprocessableEntity, "Must not be blank"},
		{"price as string", `{"name":"widget","price":"cheap"}`, http.StatusUnprocessableEntity, "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			_, ok := pkgvalidator.ValidateRequest[itemReq](w, r)
			if ok {
				t.Fatal("expected ok=false")
			}
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("expected %q in body, got: %s", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestValidateRequest_bodyTooLarge(t *testing.T) {
	h := httpx.RequestBodyLimit(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkgvalidator.ValidateRequest[itemReq](w, r)
	}))
	body := `{"name":"` + strings.Repeat("x", 64) + `"}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}
