package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"notebooklm-chat-be/internal/config"
	"notebooklm-chat-be/internal/dto"
	"notebooklm-chat-be/internal/pkg/serverutils"
	"notebooklm-chat-be/pkg/identity"
	"notebooklm-chat-be/pkg/store"
)

// oauthFake stands in for Google's token and userinfo endpoints.
type oauthFake struct {
	srv            *httptest.Server
	exchangeCalls  int
	refreshCalls   int
	lastGrantType  string
	refreshToken   string
	rejectExchange bool
}

func newOAuthFake(t *testing.T) *oauthFake {
	t.Helper()
	f := &oauthFake{refreshToken: "refresh-1"}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		r.ParseForm()
		f.lastGrantType = r.PostFormValue("grant_type")
		if f.lastGrantType == "refresh_token" {
			f.refreshCalls++
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "access-refreshed",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
			return
		}
		f.exchangeCalls++
		if f.rejectExchange {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-1",
			"refresh_token": f.refreshToken,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"email": "user@example.com"})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *oauthFake) config() *config.Config {
	return &config.Config{
		Google: config.GoogleConfig{
			ClientID:      "client-id",
			ClientSecret:  "client-secret",
			RedirectURL:   "http://localhost:3000/api/auth/callback",
			AuthURL:       f.srv.URL + "/auth",
			TokenURL:      f.srv.URL + "/token",
			UserinfoURL:   f.srv.URL + "/userinfo",
			UserinfoV3URL: f.srv.URL + "/userinfo",
		},
	}
}

func newTestAuthService(cfg *config.Config) IAuthService {
	return NewAuthService(cfg, identity.NewResolver(cfg.Google.UserinfoURL, cfg.Google.UserinfoV3URL))
}

func TestGetLoginURL(t *testing.T) {
	fake := newOAuthFake(t)
	svc := newTestAuthService(fake.config())
	creds := store.NewMemoryStore()

	loginURL, err := svc.GetLoginURL(creds)
	if err != nil {
		t.Fatalf("GetLoginURL returned error: %v", err)
	}

	parsed, err := url.Parse(loginURL)
	if err != nil {
		t.Fatalf("login URL does not parse: %v", err)
	}
	q := parsed.Query()

	state := creds.Get(store.KeyOAuthState)
	if state == "" {
		t.Fatal("state nonce was not persisted")
	}
	if q.Get("state") != state {
		t.Errorf("URL state %q does not match stored nonce %q", q.Get("state"), state)
	}
	if q.Get("access_type") != "offline" || q.Get("prompt") != "consent" {
		t.Errorf("missing offline/consent parameters: %s", loginURL)
	}
	if !strings.Contains(q.Get("scope"), "cloud-platform") {
		t.Errorf("scope must include cloud-platform: %q", q.Get("scope"))
	}
}

func TestGetLoginURLNoClientID(t *testing.T) {
	svc := newTestAuthService(&config.Config{})

	_, err := svc.GetLoginURL(store.NewMemoryStore())
	var appErr *serverutils.AppError
	if !errors.As(err, &appErr) || appErr.Code != serverutils.CodeConfigMissing {
		t.Errorf("got %v, want config missing error", err)
	}
}

func TestHandleCallbackSuccess(t *testing.T) {
	fake := newOAuthFake(t)
	svc := newTestAuthService(fake.config())
	creds := store.NewMemoryStore()
	creds.Set(store.KeyOAuthState, "state-1", store.OAuthStateTTL, true)

	err := svc.HandleCallback(context.Background(), creds, &dto.OAuthCallbackRequest{
		Code:  "code-1",
		State: "state-1",
	})
	if err != nil {
		t.Fatalf("HandleCallback returned error: %v", err)
	}

	if got := creds.Get(store.KeyAccessToken); got != "access-1" {
		t.Errorf("access token = %q", got)
	}
	if got := creds.Get(store.KeyRefreshToken); got != "refresh-1" {
		t.Errorf("refresh token = %q", got)
	}
	if got := creds.Get(store.KeyUserEmail); got != "user@example.com" {
		t.Errorf("user email = %q", got)
	}
	if creds.Get(store.KeyOAuthState) != "" {
		t.Error("state nonce must be cleared after the callback")
	}
}

func TestHandleCallbackStateMismatch(t *testing.T) {
	tests := []struct {
		name        string
		storedState string
		reqState    string
	}{
		{name: "wrong state", storedState: "state-1", reqState: "state-2"},
		{name: "missing request state", storedState: "state-1", reqState: ""},
		{name: "no stored nonce", storedState: "", reqState: "state-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newOAuthFake(t)
			svc := newTestAuthService(fake.config())
			creds := store.NewMemoryStore()
			if tt.storedState != "" {
				creds.Set(store.KeyOAuthState, tt.storedState, store.OAuthStateTTL, true)
			}

			err := svc.HandleCallback(context.Background(), creds, &dto.OAuthCallbackRequest{
				Code:  "code-1",
				State: tt.reqState,
			})

			var appErr *serverutils.AppError
			if !errors.As(err, &appErr) || appErr.Code != serverutils.CodeInvalidState {
				t.Fatalf("got %v, want invalid state error", err)
			}
			if fake.exchangeCalls != 0 {
				t.Error("token exchange must not run on a state mismatch")
			}
			if creds.Get(store.KeyAccessToken) != "" {
				t.Error("no credentials may be persisted on a state mismatch")
			}
		})
	}
}

func TestHandleCallbackNonceIsOneShot(t *testing.T) {
	fake := newOAuthFake(t)
	svc := newTestAuthService(fake.config())
	creds := store.NewMemoryStore()
	creds.Set(store.KeyOAuthState, "state-1", store.OAuthStateTTL, true)

	req := &dto.OAuthCallbackRequest{Code: "code-1", State: "state-1"}
	if err := svc.HandleCallback(context.Background(), creds, req); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}

	// Replaying the identical callback must fail: the nonce is spent.
	err := svc.HandleCallback(context.Background(), creds, req)
	var appErr *serverutils.AppError
	if !errors.As(err, &appErr) || appErr.Code != serverutils.CodeInvalidState {
		t.Errorf("replayed callback got %v, want invalid state error", err)
	}
	if fake.exchangeCalls != 1 {
		t.Errorf("exchange ran %d times, want 1", fake.exchangeCalls)
	}
}

func TestHandleCallbackNonceClearedOnFailure(t *testing.T) {
	fake := newOAuthFake(t)
	fake.rejectExchange = true
	svc := newTestAuthService(fake.config())
	creds := store.NewMemoryStore()
	creds.Set(store.KeyOAuthState, "state-1", store.OAuthStateTTL, true)

	err := svc.HandleCallback(context.Background(), creds, &dto.OAuthCallbackRequest{
		Code:  "bad-code",
		State: "state-1",
	})
	var appErr *serverutils.AppError
	if !errors.As(err, &appErr) || appErr.Code != serverutils.CodeTokenExchangeFailed {
		t.Fatalf("got %v, want token exchange error", err)
	}
	if appErr.HTTPCode != 502 {
		t.Errorf("exchange failure should map to 502, got %d", appErr.HTTPCode)
	}
	if creds.Get(store.KeyOAuthState) != "" {
		t.Error("nonce must be discarded even when the exchange fails")
	}
}

func TestHandleCallbackProviderError(t *testing.T) {
	fake := newOAuthFake(t)
	svc := newTestAuthService(fake.config())
	creds := store.NewMemoryStore()
	creds.Set(store.KeyOAuthState, "state-1", store.OAuthStateTTL, true)

	err := svc.HandleCallback(context.Background(), creds, &dto.OAuthCallbackRequest{
		State:         "state-1",
		ProviderError: "access_denied",
	})
	var appErr *serverutils.AppError
	if !errors.As(err, &appErr) || appErr.Code != "access_denied" {
		t.Errorf("provider error string should become the error code, got %v", err)
	}
}

func TestHandleCallbackNoCode(t *testing.T) {
	fake := newOAuthFake(t)
	svc := newTestAuthService(fake.config())
	creds := store.NewMemoryStore()
	creds.Set(store.KeyOAuthState, "state-1", store.OAuthStateTTL, true)

	err := svc.HandleCallback(context.Background(), creds, &dto.OAuthCallbackRequest{State: "state-1"})
	var appErr *serverutils.AppError
	if !errors.As(err, &appErr) || appErr.Code != serverutils.CodeNoCode {
		t.Errorf("got %v, want missing code error", err)
	}
}

func TestRefresh(t *testing.T) {
	fake := newOAuthFake(t)
	svc := newTestAuthService(fake.config())
	creds := store.NewMemoryStore()
	creds.Set(store.KeyRefreshToken, "refresh-1", store.RefreshTokenTTL, true)

	if err := svc.Refresh(context.Background(), creds); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	if got := creds.Get(store.KeyAccessToken); got != "access-refreshed" {
		t.Errorf("access token = %q", got)
	}
	if got := creds.Get(store.KeyRefreshToken); got != "refresh-1" {
		t.Errorf("refresh token must not rotate, got %q", got)
	}
	if fake.lastGrantType != "refresh_token" {
		t.Errorf("grant_type = %q", fake.lastGrantType)
	}
}

func TestRefreshWithoutToken(t *testing.T) {
	fake := newOAuthFake(t)
	svc := newTestAuthService(fake.config())

	err := svc.Refresh(context.Background(), store.NewMemoryStore())
	var appErr *serverutils.AppError
	if !errors.As(err, &appErr) || appErr.HTTPCode != 401 {
		t.Errorf("got %v, want 401 refresh error", err)
	}
	if fake.refreshCalls != 0 {
		t.Error("no upstream call should be made without a refresh token")
	}
}

func TestLogoutAndStatus(t *testing.T) {
	fake := newOAuthFake(t)
	svc := newTestAuthService(fake.config())
	creds := store.NewMemoryStore()

	if status := svc.Status(creds); status.Authenticated {
		t.Error("fresh store should not be authenticated")
	}

	creds.Set(store.KeyAccessToken, "access-1", store.AccessTokenTTL, true)
	creds.Set(store.KeyRefreshToken, "refresh-1", store.RefreshTokenTTL, true)
	creds.Set(store.KeyUserEmail, "user@example.com", store.UserEmailTTL, false)

	status := svc.Status(creds)
	if !status.Authenticated || status.UserEmail != "user@example.com" {
		t.Errorf("unexpected status: %+v", status)
	}

	svc.Logout(creds)
	for _, key := range []string{store.KeyAccessToken, store.KeyRefreshToken, store.KeyUserEmail, store.KeyOAuthState} {
		if creds.Get(key) != "" {
			t.Errorf("%s should be cleared after logout", key)
		}
	}
}
