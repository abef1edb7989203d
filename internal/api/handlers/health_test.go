package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_NoChecks(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(nil).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "ok", data["status"])
	assert.NotContains(t, data, "checks")
}

func TestHealthHandler_Checks(t *testing.T) {
	handler := NewHealthHandler(map[string]Pinger{
		"database": pingFunc(func(context.Context) error { return nil }),
	})

	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	checks := decodeData(t, w)["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["database"])
}

func TestHealthHandler_Degraded(t *testing.T) {
	handler := NewHealthHandler(map[string]Pinger{
		"database": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "degraded", data["status"])
	assert.Equal(t, "connection refused", data["checks"].(map[string]interface{})["database"])
}
