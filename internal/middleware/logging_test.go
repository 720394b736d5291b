package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/skill-tracker/internal/auth"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLogger_RecordsStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	h := Logger(newBufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("hello"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/skills", nil))

	out := buf.String()
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "method=POST")
	assert.Contains(t, out, "path=/api/skills")
	assert.Contains(t, out, "status=201")
	assert.Contains(t, out, "bytes=5")
}

func TestLogger_DefaultStatusIsOK(t *testing.T) {
	var buf bytes.Buffer
	h := Logger(newBufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, buf.String(), "status=200")
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		h := Logger(newBufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, strings.HasPrefix(strings.SplitN(buf.String(), " ", 3)[1], tt.level), "status %d logged as %q", tt.status, buf.String())
	}
}

func TestLogger_RequestAndUserID(t *testing.T) {
	var buf bytes.Buffer
	inner := Logger(newBufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h := chimiddleware.RequestID(inner)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "user-7"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "request_id=")
	assert.Contains(t, buf.String(), "userID=user-7")
}
