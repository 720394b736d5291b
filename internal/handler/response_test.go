package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/skill-tracker/internal/apperror"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantType  string
		wantField string
	}{
		{"validation", apperror.ValidationFailed("name", "name is required"), http.StatusBadRequest, "validation_error", "name"},
		{"unauthorized", apperror.Unauthorized("invalid email or password"), http.StatusUnauthorized, "unauthorized", ""},
		{"forbidden", apperror.Forbidden("nope"), http.StatusForbidden, "forbidden", ""},
		{"not found", apperror.NotFound("skill", "abc"), http.StatusNotFound, "not_found", ""},
		{"conflict", apperror.Conflict("user", "a@b.c"), http.StatusConflict, "conflict", ""},
		{"wrapped not found", fmt.Errorf("service: %w", apperror.NotFound("task", "t1")), http.StatusNotFound, "not_found", ""},
		{"plain error", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, quietLogger, tt.err)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantType, body.Error)
			assert.Equal(t, tt.wantField, body.Field)
		})
	}
}

func TestWriteError_InternalDetailsAreHidden(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, quietLogger, errors.New("sqlite: table users is locked"))

	assert.NotContains(t, rr.Body.String(), "sqlite")
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"Go"}`, false},
		{"empty body", ``, true},
		{"malformed", `{"name":`, true},
		{"unknown field", `{"name":"Go","colour":"blue"}`, true},
		{"two objects", `{"name":"a"}{"name":"b"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst payload
			err := decodeJSON(httptest.NewRecorder(), req, &dst)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperror.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Go", dst.Name)
		})
	}
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?days=30&bad=x", nil)

	n, err := queryInt(req, "days", 365)
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	n, err = queryInt(req, "missing", 365)
	require.NoError(t, err)
	assert.Equal(t, 365, n)

	_, err = queryInt(req, "bad", 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
