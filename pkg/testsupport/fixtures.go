package testsupport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-regform/pkg/lookup"
	"github.com/goliatone/go-regform/pkg/model"
)

// ValidRecord returns a raw record the registration schema accepts. Each call
// returns a fresh map so tests can mutate it.
func ValidRecord() map[string]any {
	return ValidRegistration().Values()
}

// ValidRegistration is the typed form of ValidRecord.
func ValidRegistration() model.Registration {
	return model.Registration{
		Name:                 "Maria Silva",
		Email:                "maria@example.com",
		Password:             "segredo123",
		PasswordConfirmation: "segredo123",
		Phone:                "(11) 91234-5678",
		CPF:                  "123.456.789-09",
		Zipcode:              "01310-100",
		Address:              "Avenida Paulista, Bela Vista",
		City:                 "São Paulo, SP",
		Terms:                true,
	}
}

// PaulistaAddress is the lookup answer for 01310-100.
func PaulistaAddress() lookup.Address {
	return lookup.Address{
		CEP:          "01310100",
		State:        "SP",
		City:         "São Paulo",
		Neighborhood: "Bela Vista",
		Street:       "Avenida Paulista",
		Service:      "open-cep",
	}
}

// LoadRecord reads a JSON object fixture into a raw record.
func LoadRecord(path string) (map[string]any, error) {
	if path == "" {
		return nil, errors.New("testsupport: record path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read record: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("testsupport: unmarshal record: %w", err)
	}
	return out, nil
}

// MustLoadRecord is LoadRecord for tests.
func MustLoadRecord(t *testing.T, path string) map[string]any {
	t.Helper()

	rec, err := LoadRecord(path)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	return rec
}

// LookupServer serves the CEP lookup contract from a fixed table keyed by the
// zipcode as requested. Unknown zipcodes get the service's 404 payload.
func LookupServer(t *testing.T, addresses map[string]lookup.Address) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zipcode := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		w.Header().Set("Content-Type", "application/json")
		addr, ok := addresses[zipcode]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"name":    "CepPromiseError",
				"message": "CEP não encontrado",
				"type":    "service_error",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(addr)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// RegisterServer is a fake registration endpoint answering every request with
// a fixed status and body while recording what it received.
type RegisterServer struct {
	*httptest.Server

	mu       sync.Mutex
	status   int
	body     string
	received []model.Registration
}

// NewRegisterServer starts a fake endpoint. It is closed when the test ends.
func NewRegisterServer(t *testing.T, status int, body string) *RegisterServer {
	t.Helper()

	rs := &RegisterServer{status: status, body: body}
	rs.Server = httptest.NewServer(http.HandlerFunc(rs.serve))
	t.Cleanup(rs.Close)
	return rs
}

// Respond changes the answer for subsequent requests.
func (rs *RegisterServer) Respond(status int, body string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.status = status
	rs.body = body
}

// Received returns the decoded request bodies in arrival order.
func (rs *RegisterServer) Received() []model.Registration {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]model.Registration(nil), rs.received...)
}

func (rs *RegisterServer) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var reg model.Registration
	_ = json.Unmarshal(raw, &reg)

	rs.mu.Lock()
	rs.received = append(rs.received, reg)
	status, body := rs.status, rs.body
	rs.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
