package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		want int
	}{
		{model.Unauthorizedf("no capability"), http.StatusUnauthorized},
		{model.AccessDeniedf("no analytics access"), http.StatusForbidden},
		{model.NotFoundf("order missing"), http.StatusNotFound},
		{model.InvalidTransitionf("DELIVERED to CANCELLED"), http.StatusConflict},
		{model.Validationf("bad month"), http.StatusBadRequest},
		{errors.New("database exploded"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

		respondError(c, zap.NewNop(), tc.err)

		if w.Code != tc.want {
			t.Errorf("error %v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	respondError(c, zap.NewNop(), errors.New("dsn=postgres://secret"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if body == "" {
		t.Fatal("expected an error body")
	}
	if strings.Contains(body, "secret") {
		t.Errorf("internal error leaked details: %s", body)
	}
}
