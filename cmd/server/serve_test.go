package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suarawarga/internal/config"
)

func TestTimeAgo(t *testing.T) {
	assert.Equal(t, "baru saja", timeAgo(time.Now()))
	assert.Equal(t, "5 menit lalu", timeAgo(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "2 hari lalu", timeAgo(time.Now().Add(-49*time.Hour)))
}

func TestNewSessionStore(t *testing.T) {
	st, err := newSessionStore(config.SessionConfig{Name: "s", Secret: "rahasia", MaxAge: 60})
	require.NoError(t, err)
	require.NotNil(t, st)
}

func TestCORSPreflight(t *testing.T) {
	h := corsHandler([]string{"https://suarawarga.id"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/verify", nil)
	req.Header.Set("Origin", "https://suarawarga.id")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "https://suarawarga.id", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEqual(t, http.StatusTeapot, w.Code, "preflight is answered by the cors layer")
}
