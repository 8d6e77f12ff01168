package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"notebooklm-chat-be/internal/bootstrap"
	"notebooklm-chat-be/internal/config"
	"notebooklm-chat-be/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGoogleFake fakes the Google OAuth endpoints the auth flow talks to.
func newGoogleFake(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		r.ParseForm()
		if r.PostFormValue("grant_type") == "refresh_token" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "access-2",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
			return
		}
		if r.PostFormValue("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"email": "user@example.com"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, google *httptest.Server) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{
			Port:               "0",
			ClientURL:          "http://localhost:5173",
			Environment:        "test",
			LogFilePath:        t.TempDir() + "/app.log",
			CorsAllowedOrigins: "http://localhost:5173",
		},
		Google: config.GoogleConfig{
			ClientID:      "client-id",
			ClientSecret:  "client-secret",
			RedirectURL:   "http://localhost:3000/api/auth/callback",
			AuthURL:       google.URL + "/auth",
			TokenURL:      google.URL + "/token",
			UserinfoURL:   google.URL + "/userinfo",
			UserinfoV3URL: google.URL + "/userinfo",
		},
	}

	container := bootstrap.NewContainer(cfg)
	return server.New(cfg, container).GetApp()
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func TestOAuthLoginFlow(t *testing.T) {
	google := newGoogleFake(t)
	app := newTestApp(t, google)

	// 1. Login sets the state nonce and redirects to the consent screen.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	state := cookieValue(resp, "oauth_state")
	require.NotEmpty(t, state, "login must set the oauth_state cookie")

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state, loc.Query().Get("state"))
	assert.Equal(t, "offline", loc.Query().Get("access_type"))
	assert.Equal(t, "consent", loc.Query().Get("prompt"))

	// 2. Callback with the matching state exchanges the code and sets the
	// credential cookies.
	req = httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=good-code&state="+state, nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: state})
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173/", resp.Header.Get("Location"))

	assert.Equal(t, "access-1", cookieValue(resp, "google_access_token"))
	assert.Equal(t, "refresh-1", cookieValue(resp, "google_refresh_token"))
	assert.Equal(t, "user@example.com", cookieValue(resp, "google_user_email"))

	// The nonce cookie is expired in the same response.
	for _, c := range resp.Cookies() {
		if c.Name == "oauth_state" {
			assert.LessOrEqual(t, c.MaxAge, 0, "oauth_state must be cleared")
		}
	}

	// 3. Status reports the authenticated identity.
	req = httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: "google_access_token", Value: "access-1"})
	req.AddCookie(&http.Cookie{Name: "google_user_email", Value: "user@example.com"})
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var statusRes struct {
		Data struct {
			Authenticated bool   `json:"authenticated"`
			UserEmail     string `json:"user_email"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&statusRes))
	assert.True(t, statusRes.Data.Authenticated)
	assert.Equal(t, "user@example.com", statusRes.Data.UserEmail)
}

func TestOAuthCallbackStateMismatch(t *testing.T) {
	google := newGoogleFake(t)
	app := newTestApp(t, google)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=good-code&state=forged", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "legit"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.True(t, strings.Contains(resp.Header.Get("Location"), "error=invalid_state"),
		"redirect should carry the error code, got %s", resp.Header.Get("Location"))
	assert.Empty(t, cookieValue(resp, "google_access_token"))
}

func TestOAuthCallbackBadCode(t *testing.T) {
	google := newGoogleFake(t)
	app := newTestApp(t, google)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=bad-code&state=s1", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.True(t, strings.Contains(resp.Header.Get("Location"), "error=token_exchange_failed"),
		"redirect should carry the error code, got %s", resp.Header.Get("Location"))
}

func TestRefreshFlow(t *testing.T) {
	google := newGoogleFake(t)
	app := newTestApp(t, google)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "google_refresh_token", Value: "refresh-1"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "access-2", cookieValue(resp, "google_access_token"))
	assert.Empty(t, cookieValue(resp, "google_refresh_token"), "refresh token must not rotate")
}

func TestRefreshWithoutToken(t *testing.T) {
	google := newGoogleFake(t)
	app := newTestApp(t, google)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutClearsCookies(t *testing.T) {
	google := newGoogleFake(t)
	app := newTestApp(t, google)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "google_access_token", Value: "access-1"})
	req.AddCookie(&http.Cookie{Name: "google_refresh_token", Value: "refresh-1"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	cleared := map[string]bool{}
	for _, c := range resp.Cookies() {
		if c.MaxAge <= 0 {
			cleared[c.Name] = true
		}
	}
	for _, name := range []string{"google_access_token", "google_refresh_token", "google_user_email", "oauth_state"} {
		assert.True(t, cleared[name], "%s should be expired by logout", name)
	}
}
