package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	SendJSONError(rec, "fecha inválida", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fecha inválida", body["error"])
}

func TestGenerateETagIsStable(t *testing.T) {
	a, err := GenerateETag(map[string]int{"added": 1})
	require.NoError(t, err)
	b, err := GenerateETag(map[string]int{"added": 1})
	require.NoError(t, err)
	c, err := GenerateETag(map[string]int{"added": 2})
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, err = GenerateETag(make(chan int))
	assert.Error(t, err)
}

func TestETagMatches(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("If-None-Match", `"abc", "def"`)
	assert.True(t, ETagMatches(r, `"def"`))
	assert.False(t, ETagMatches(r, `"xyz"`))
}
