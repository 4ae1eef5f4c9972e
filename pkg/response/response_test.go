package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code domain.ErrorCode
		want int
	}{
		{domain.CodeNotFound, http.StatusNotFound},
		{domain.CodeConflict, http.StatusConflict},
		{domain.CodeDriverUnavailable, http.StatusConflict},
		{domain.CodeInvalidState, http.StatusUnprocessableEntity},
		{domain.CodeInvalidRole, http.StatusUnprocessableEntity},
		{domain.CodeValidation, http.StatusBadRequest},
		{domain.CodeForbidden, http.StatusForbidden},
		{domain.CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.code))
		})
	}
}

func TestError_WritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "wrapped app error",
			err:         fmt.Errorf("tx: %w", domain.NewDriverUnavailableError("d1")),
			wantStatus:  http.StatusConflict,
			wantCode:    "DRIVER_UNAVAILABLE",
			wantMessage: domain.NewDriverUnavailableError("d1").Message,
		},
		{
			name:        "infrastructure error is hidden",
			err:         errors.New("dial tcp: refused"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_ERROR",
			wantMessage: "internal server error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			Error(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body struct {
				Success bool `json:"success"`
				Error   struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMessage, body.Error.Message)
		})
	}
}

func TestPaginated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Paginated(c, domain.NewPaginatedResult([]string{"a", "b"}, 5, 1, 2))

	var body struct {
		Data []string `json:"data"`
		Meta pageMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"a", "b"}, body.Data)
	assert.Equal(t, 3, body.Meta.TotalPages)
	assert.Equal(t, int64(5), body.Meta.Total)
}
