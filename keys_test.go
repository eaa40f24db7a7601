package portfolio_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/portfolio"
)

func TestKeyString(t *testing.T) {
	require.Equal(t, "portfolio context key: RequestIDKey", portfolio.RequestIDKey.String())
}

func TestKeyDistinctFromString(t *testing.T) {
	// Arrange
	ctx := context.WithValue(context.Background(), portfolio.VersionKey, "v1")

	// Act
	typed := ctx.Value(portfolio.VersionKey)
	untyped := ctx.Value("VersionKey")

	// Assert
	require.Equal(t, "v1", typed)
	require.Nil(t, untyped)
}
