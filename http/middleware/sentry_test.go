package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/middleware"
)

func TestReportPanic(t *testing.T) {
	// Arrange + Act
	actual := middleware.ReportPanic(portfolio.Development)

	// Assert
	noop(t, actual)

	// Arrange
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })

	// Act + Assert
	require.NotPanics(t, func() {
		middleware.ReportPanic(portfolio.Production)(h).ServeHTTP(w, r)
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
