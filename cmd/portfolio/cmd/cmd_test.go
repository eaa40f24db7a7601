package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/account"
	"github.com/xy-planning-network/portfolio/postgres"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	superuser = account.NewUser{}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestOpenAPICmd(t *testing.T) {
	// Arrange
	t.Setenv("SECRET_KEY", "not-so-secret")
	t.Setenv("APP_ENV", "testing")

	// Act
	out, err := run(t, "openapi", "--format", "json")

	// Assert
	require.Nil(t, err)

	var doc map[string]any
	require.Nil(t, json.Unmarshal([]byte(out), &doc))
	require.Equal(t, "3.0.3", doc["openapi"])
	require.Contains(t, doc["paths"], "/api/{version}/account/users/{id}")

	// Act
	out, err = run(t, "openapi", "--format", "yaml")

	// Assert
	require.Nil(t, err)
	require.Contains(t, out, "openapi: 3.0.3")

	// Act
	_, err = run(t, "openapi", "--format", "xml")

	// Assert
	require.ErrorIs(t, err, portfolio.ErrNotValid)
}

func TestMigrateAndCreateSuperuser(t *testing.T) {
	// Arrange
	url := "sqlite://" + filepath.Join(t.TempDir(), "db.sqlite3")
	t.Setenv("SECRET_KEY", "not-so-secret")
	t.Setenv("APP_ENV", "testing")
	t.Setenv("DATABASE_URL", url)
	t.Setenv(superuserPasswordEnvVar, "")

	// Act
	_, err := run(t, "createsuperuser", "--email", "admin@example.com", "--username", "admin")

	// Assert
	require.ErrorIs(t, err, portfolio.ErrMissingData)

	// Act
	_, err = run(t, "migrate")

	// Assert
	require.Nil(t, err)

	// Arrange
	t.Setenv(superuserPasswordEnvVar, "correct horse")

	// Act
	_, err = run(t, "createsuperuser", "--email", "Admin@Example.COM", "--username", "admin")

	// Assert
	require.Nil(t, err)

	db, err := postgres.Connect(&postgres.CxnConfig{URL: url}, portfolio.Testing)
	require.Nil(t, err)

	u, err := account.NewUserService(db, nil, "US").GetByLogin(context.Background(), "Admin@example.com")
	require.Nil(t, err)
	require.True(t, u.IsSuperuser)
	require.True(t, u.IsStaff)
	require.True(t, u.CheckPassword("correct horse"))
}
