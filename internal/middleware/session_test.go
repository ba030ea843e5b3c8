package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picobox/cinema-reservation/internal/model"
	"github.com/picobox/cinema-reservation/internal/utils"
)

const testSecret = "test-secret"

func sessionRequest(t *testing.T, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		h, ok := HolderFrom(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, echo.Map{"type": string(h.Type), "id": h.ID})
	}, Session(testSecret))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessionResolvesHolder(t *testing.T) {
	holder := model.Holder{Type: model.HolderCustomer, ID: 42}
	tok, err := utils.NewSessionToken(testSecret, holder, 15)
	require.NoError(t, err)

	rec := sessionRequest(t, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":"CUSTOMER","id":42}`, rec.Body.String())
}

func TestSessionResolvesGuest(t *testing.T) {
	holder := model.Holder{Type: model.HolderGuest, ID: 7}
	tok, err := utils.NewSessionToken(testSecret, holder, 15)
	require.NoError(t, err)

	rec := sessionRequest(t, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":"GUEST","id":7}`, rec.Body.String())
}

func TestSessionRejectsMissingToken(t *testing.T) {
	rec := sessionRequest(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionRejectsGarbageToken(t *testing.T) {
	rec := sessionRequest(t, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionRejectsWrongSecret(t *testing.T) {
	holder := model.Holder{Type: model.HolderCustomer, ID: 1}
	tok, err := utils.NewSessionToken("other-secret", holder, 15)
	require.NoError(t, err)

	rec := sessionRequest(t, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionRejectsUnknownHolderType(t *testing.T) {
	holder := model.Holder{Type: model.HolderType("ADMIN"), ID: 1}
	tok, err := utils.NewSessionToken(testSecret, holder, 15)
	require.NoError(t, err)

	rec := sessionRequest(t, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
