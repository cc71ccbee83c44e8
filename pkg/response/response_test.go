package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
)

func record(t *testing.T, write func(*gin.Context)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	write(ctx)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestSuccessEnvelope(t *testing.T) {
	rec, body := record(t, func(c *gin.Context) {
		Success(c, http.StatusCreated, gin.H{"short_code": "abcdefgh"})
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "abcdefgh", body["data"].(map[string]any)["short_code"])
	require.NotContains(t, body, "error")
	require.NotContains(t, body, "meta")
}

func TestPaginatedEnvelope(t *testing.T) {
	rec, body := record(t, func(c *gin.Context) {
		Paginated(c, []string{"a", "b"}, NewMeta(2, 2, 5))
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]any{"page": 2.0, "per_page": 2.0, "total": 5.0, "total_pages": 3.0}, body["meta"])
}

func TestNewMeta(t *testing.T) {
	require.Equal(t, 0, NewMeta(1, 20, 0).TotalPages)
	require.Equal(t, 1, NewMeta(1, 20, 20).TotalPages)
	require.Equal(t, 2, NewMeta(1, 20, 21).TotalPages)
	require.Equal(t, 0, NewMeta(1, 0, 21).TotalPages)
}

func TestErrorEnvelope(t *testing.T) {
	rec, body := record(t, func(c *gin.Context) {
		Error(c, appErrors.NewValidation("phone must contain 9 to 15 digits").
			WithFields(map[string]string{"phone": "phone must contain 9 to 15 digits"}))
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, false, body["success"])
	errInfo := body["error"].(map[string]any)
	require.Equal(t, appErrors.CodeValidation, errInfo["code"])
	require.Equal(t, map[string]any{"phone": "phone must contain 9 to 15 digits"}, errInfo["fields"])
}

func TestErrorHidesUnexpectedFailures(t *testing.T) {
	rec, body := record(t, func(c *gin.Context) {
		Error(c, errors.New("pq: connection refused"))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, appErrors.ErrInternalServer.Message, body["error"].(map[string]any)["message"])

	rec, _ = record(t, func(c *gin.Context) { Error(c, nil) })
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
