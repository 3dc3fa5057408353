package testhelpers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

// MockTokenValidator is a mock token validator for testing
type MockTokenValidator struct {
	Claims *types.TokenClaims
	Error  error
}

// ValidateToken validates a token and returns claims
func (m *MockTokenValidator) ValidateToken(_ context.Context, _ string) (*types.TokenClaims, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Claims, nil
}

// JSONMarshal is a helper function to marshal JSON for testing
func JSONMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}
	return data
}

// PerformRequest performs an anonymous HTTP request with an optional JSON body
func PerformRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	return PerformRequestWithToken(router, method, path, body, "")
}

// PerformRequestWithToken performs an HTTP request with a "Token <jwt>" header.
// An empty token sends no Authorization header.
func PerformRequestWithToken(router http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		req = httptest.NewRequest(method, path, bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	router.ServeHTTP(w, req)
	return w
}

// DecodeJSON unmarshals a recorded response body into v
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func init() {
	gin.SetMode(gin.TestMode)
}
