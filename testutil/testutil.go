// Package testutil holds shared fixtures for package tests: a private
// in-memory database per test and request helpers for the HTTP surface.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/branchbook/branchbook-api/auth"
	"github.com/branchbook/branchbook-api/config"
)

const (
	AccessSecret  = "test-access-secret"
	RefreshSecret = "test-refresh-secret"
)

func init() {
	auth.BcryptCost = bcrypt.MinCost
	slog.SetDefault(config.NewLogger(TestEnvironment(), os.Stderr))
}

// SetupTestDB opens a migrated in-memory SQLite database private to t.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())

	db, err := config.Open(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

// TestEnvironment is a development environment over plain HTTP with auth
// rate limiting effectively disabled.
func TestEnvironment() config.Environment {
	return config.Environment{
		IsDevelopment:      true,
		Domain:             "localhost",
		CookieSecure:       false,
		Port:               "0",
		DBDriver:           "sqlite",
		AccessTokenSecret:  AccessSecret,
		RefreshTokenSecret: RefreshSecret,
		AccessTokenTTL:     5 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
		CORSOrigins:        []string{"http://localhost:3000"},
		AuthRateLimit:      1000,
		AuthRateBurst:      1000,
		LogLevel:           "error",
		LogFormat:          "text",
	}
}

func TokenManager() *auth.TokenManager {
	env := TestEnvironment()
	return auth.NewTokenManager(env.AccessTokenSecret, env.RefreshTokenSecret, env.AccessTokenTTL, env.RefreshTokenTTL)
}

// MakeRequest serves one request against h. body may be nil, a string or any
// value encoded as JSON.
func MakeRequest(t *testing.T, h http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// DecodeJSON decodes a recorded response body into T.
func DecodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// RefreshCookie returns the refresh cookie set on rec, or nil.
func RefreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.RefreshCookieName {
			return c
		}
	}
	return nil
}
