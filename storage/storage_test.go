package storage_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/storage"
)

func TestNew(t *testing.T) {
	for _, tc := range []struct {
		name     string
		cfg      storage.Config
		err      error
		expected string
	}{
		{"Defaults", storage.Config{}, nil, "http://minio:9000/portfolio/media/a.png"},
		{"HTTPS", storage.Config{Endpoint: "https://s3.example.com", Bucket: "osman"}, nil, "https://s3.example.com/osman/media/a.png"},
		{"Bad-Endpoint", storage.Config{Endpoint: "minio"}, portfolio.ErrBadConfig, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			s, err := storage.New(tc.cfg, storage.Media)

			// Assert
			require.ErrorIs(t, err, tc.err)
			if tc.err == nil {
				require.Equal(t, tc.expected, s.URL("a.png"))
			}
		})
	}
}

func TestStorageIn(t *testing.T) {
	// Arrange
	media, err := storage.New(storage.Config{}, "/media/")
	require.Nil(t, err)

	// Act
	static := media.In(storage.Static)

	// Assert
	require.Equal(t, "media", media.Location())
	require.Equal(t, "static", static.Location())
	require.Equal(t, "http://minio:9000/portfolio/static/css/site.css", static.URL("css/site.css"))
	require.Equal(t, "http://minio:9000/portfolio/media/avatars/1/a.png", media.URL("avatars/1/a.png"))

	// Act
	root := media.In("")

	// Assert
	require.Equal(t, "http://minio:9000/portfolio/robots.txt", root.URL("robots.txt"))
}

func TestStorageBadKeys(t *testing.T) {
	s, err := storage.New(storage.Config{}, storage.Media)
	require.Nil(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "/", "../secret", "avatars/../../static/site.css"} {
		t.Run(key, func(t *testing.T) {
			// Act
			_, err := s.Save(ctx, key, strings.NewReader("x"), 1, "text/plain")

			// Assert
			require.ErrorIs(t, err, portfolio.ErrNotValid)
			require.ErrorIs(t, s.Delete(ctx, key), portfolio.ErrNotValid)
		})
	}
}

func TestPublicReadPolicy(t *testing.T) {
	// Act
	var policy struct {
		Statement []struct {
			Effect   string
			Action   []string
			Resource []string
		}
	}
	err := json.Unmarshal([]byte(storage.PublicReadPolicy("portfolio")), &policy)

	// Assert
	require.Nil(t, err)
	require.Len(t, policy.Statement, 1)
	require.Equal(t, "Allow", policy.Statement[0].Effect)
	require.Equal(t, []string{"s3:GetObject"}, policy.Statement[0].Action)
	require.Equal(t, []string{"arn:aws:s3:::portfolio/*"}, policy.Statement[0].Resource)
}
