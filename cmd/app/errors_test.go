package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/nexus/internal/asset"
	"github.com/sushihentaime/nexus/internal/common"
	"github.com/sushihentaime/nexus/internal/entity"
	"github.com/sushihentaime/nexus/internal/userservice"
)

func TestServiceErrorResponse(t *testing.T) {
	env := newTestApplication(t)

	testCases := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantErrors  map[string]any
	}{
		{
			name:        "validation",
			err:         common.ValidationError{Errors: map[string]string{"title": "must be provided", "alt": "must be provided"}},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid or missing fields: alt, title",
			wantErrors:  map[string]any{"title": "must be provided", "alt": "must be provided"},
		},
		{
			name:        "unsupported image payload",
			err:         &asset.UploadError{ID: "abc", Err: fmt.Errorf("%w: illegal base64 data", asset.ErrUnsupportedPayload)},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid or missing fields: image",
			wantErrors:  map[string]any{"image": "must be a base64 encoded image or data URI"},
		},
		{
			name:        "upload failure",
			err:         &asset.UploadError{ID: "abc", Err: asset.ErrBackendDown},
			wantStatus:  http.StatusBadGateway,
			wantMessage: "image upload failed: media host unavailable",
		},
		{
			name:        "delete failure",
			err:         &asset.DeleteError{ID: "abc", Err: asset.ErrBackendDown},
			wantStatus:  http.StatusBadGateway,
			wantMessage: "image delete failed: media host unavailable",
		},
		{
			name:        "conflict",
			err:         &entity.Error{Err: entity.ErrConflict, Message: "Blog with this slug already exists"},
			wantStatus:  http.StatusConflict,
			wantMessage: "Blog with this slug already exists",
		},
		{
			name:        "not found",
			err:         &entity.Error{Err: entity.ErrNotFound, Message: "Review not found"},
			wantStatus:  http.StatusNotFound,
			wantMessage: "Review not found",
		},
		{
			name:        "password mismatch",
			err:         userservice.ErrPasswordMismatch,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Current password does not match",
		},
		{
			name:        "unexpected",
			err:         errors.New("connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "connection reset",
		},
		{
			name:        "unexpected without message",
			err:         errors.New(""),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: fallbackMessage,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/blogs/create", nil)

			env.app.serviceErrorResponse(res, req, tc.err)

			assert.Equal(t, tc.wantStatus, res.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
			assert.Equal(t, tc.wantMessage, body["message"])
			if tc.wantErrors != nil {
				assert.Equal(t, tc.wantErrors, body["errors"])
			} else {
				assert.NotContains(t, body, "errors")
			}
		})
	}
}
