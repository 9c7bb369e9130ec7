package response

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	Success(rec, map[string]string{"status": "ok"}, nil)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	NotFound(rec, "playlist not found", nil)

	assert.Equal(t, 404, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Contains(t, rec.Body.String(), "playlist not found")
}

func TestTooManyRequests(t *testing.T) {
	rec := httptest.NewRecorder()

	TooManyRequests(rec, "slow down", nil)

	assert.Equal(t, 429, rec.Code)
	assert.Contains(t, rec.Body.String(), "slow down")
}
