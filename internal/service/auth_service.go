package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notebooklm-chat-be/internal/config"
	"notebooklm-chat-be/internal/dto"
	"notebooklm-chat-be/internal/pkg/serverutils"
	"notebooklm-chat-be/pkg/identity"
	"notebooklm-chat-be/pkg/store"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type IAuthService interface {
	GetLoginURL(creds store.CredentialStore) (string, error)
	HandleCallback(ctx context.Context, creds store.CredentialStore, req *dto.OAuthCallbackRequest) error
	Refresh(ctx context.Context, creds store.CredentialStore) error
	Logout(creds store.CredentialStore)
	Status(creds store.CredentialStore) *dto.AuthStatusResponse
}

type authService struct {
	cfg        *config.Config
	googleConf *oauth2.Config
	resolver   *identity.Resolver
	client     *http.Client
}

func NewAuthService(cfg *config.Config, resolver *identity.Resolver) IAuthService {
	conf := &oauth2.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Scopes: []string{
			// The cloud-platform scope is what grants notebook access; basic
			// profile alone is not enough. Drive is needed for Docs/Slides
			// ingestion.
			"https://www.googleapis.com/auth/cloud-platform",
			"https://www.googleapis.com/auth/drive.readonly",
			"openid",
			"email",
			"profile",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.Google.AuthURL,
			TokenURL: cfg.Google.TokenURL,
		},
	}

	return &authService{
		cfg:        cfg,
		googleConf: conf,
		resolver:   resolver,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *authService) GetLoginURL(creds store.CredentialStore) (string, error) {
	if s.cfg.Google.ClientID == "" {
		return "", serverutils.NewAppError(500, serverutils.CodeConfigMissing,
			"GOOGLE_CLOUD_CLIENT_ID not configured", nil)
	}

	state := uuid.NewString()
	creds.Set(store.KeyOAuthState, state, store.OAuthStateTTL, true)

	// access_type=offline plus prompt=consent forces Google to issue a
	// refresh token even when the user already consented before.
	loginURL := s.googleConf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	log.Printf("[Auth Service] Login initiated, redirect URI: %s", s.googleConf.RedirectURL)
	return loginURL, nil
}

func (s *authService) HandleCallback(ctx context.Context, creds store.CredentialStore, req *dto.OAuthCallbackRequest) error {
	// The nonce is one-shot: read and discard before anything else so a
	// replayed callback fails no matter how this one ends.
	storedState := creds.Get(store.KeyOAuthState)
	creds.Delete(store.KeyOAuthState)

	if req.State == "" || storedState == "" || req.State != storedState {
		log.Printf("[Auth Service] ERROR - OAuth state mismatch")
		return serverutils.NewAppError(400, serverutils.CodeInvalidState, "OAuth state mismatch", nil)
	}

	if req.ProviderError != "" {
		log.Printf("[Auth Service] ERROR - Provider returned error: %s", req.ProviderError)
		return serverutils.NewAppError(400, req.ProviderError, "authorization provider returned an error", nil)
	}

	if req.Code == "" {
		return serverutils.NewAppError(400, serverutils.CodeNoCode, "Missing authorization code", nil)
	}

	if s.cfg.Google.ClientID == "" || s.cfg.Google.ClientSecret == "" {
		return serverutils.NewAppError(500, serverutils.CodeConfigMissing, "OAuth client not configured", nil)
	}

	token, err := s.googleConf.Exchange(ctx, req.Code)
	if err != nil {
		// The upstream status and body stay in the logs; the caller only
		// ever sees the machine-readable code.
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			log.Printf("[Auth Service] ERROR - Token exchange failed: status %d, body: %s",
				retrieveErr.Response.StatusCode, string(retrieveErr.Body))
		} else {
			log.Printf("[Auth Service] ERROR - Token exchange failed: %v", err)
		}
		return serverutils.NewAppError(502, serverutils.CodeTokenExchangeFailed, "token exchange failed", err)
	}

	if token.AccessToken == "" {
		return serverutils.NewAppError(502, serverutils.CodeNoAccessToken, "no access token in exchange response", nil)
	}
	log.Printf("[Auth Service] ✅ Successfully exchanged code for access token")

	// Best effort; never blocks authentication.
	userEmail := s.resolver.Resolve(ctx, token.AccessToken)
	log.Printf("[Auth Service] ✅ User authenticated: %s", userEmail)

	creds.Set(store.KeyAccessToken, token.AccessToken, store.AccessTokenTTL, true)
	if token.RefreshToken != "" {
		creds.Set(store.KeyRefreshToken, token.RefreshToken, store.RefreshTokenTTL, true)
	}
	creds.Set(store.KeyUserEmail, userEmail, store.UserEmailTTL, false)

	return nil
}

func (s *authService) Refresh(ctx context.Context, creds store.CredentialStore) error {
	refreshToken := creds.Get(store.KeyRefreshToken)
	if refreshToken == "" {
		return serverutils.NewAppError(401, serverutils.CodeRefreshFailed, "No refresh token available", nil)
	}

	if s.cfg.Google.ClientID == "" || s.cfg.Google.ClientSecret == "" {
		return serverutils.NewAppError(500, serverutils.CodeConfigMissing, "OAuth client not configured", nil)
	}

	form := url.Values{
		"refresh_token": {refreshToken},
		"client_id":     {s.cfg.Google.ClientID},
		"client_secret": {s.cfg.Google.ClientSecret},
		"grant_type":    {"refresh_token"},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.Google.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return serverutils.NewAppError(500, serverutils.CodeRefreshFailed, "Failed to refresh token", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.client.Do(httpReq)
	if err != nil {
		return serverutils.NewAppError(401, serverutils.CodeRefreshFailed, "Failed to refresh token", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return serverutils.NewAppError(500, serverutils.CodeRefreshFailed, "Failed to refresh token", err)
	}
	if res.StatusCode != http.StatusOK {
		log.Printf("[Auth Service] ERROR - Refresh rejected: status %d, body: %s", res.StatusCode, string(body))
		return serverutils.NewAppError(401, serverutils.CodeRefreshFailed, "Failed to refresh token", nil)
	}

	var tokenData struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenData); err != nil {
		return serverutils.NewAppError(500, serverutils.CodeRefreshFailed, "Failed to refresh token", err)
	}
	if tokenData.AccessToken == "" {
		return serverutils.NewAppError(500, serverutils.CodeNoAccessToken, "No access token in response", nil)
	}

	// Only the access token rotates; Google keeps the refresh token stable.
	creds.Set(store.KeyAccessToken, tokenData.AccessToken, store.AccessTokenTTL, true)
	log.Printf("[Auth Service] ✅ Access token refreshed")

	return nil
}

func (s *authService) Logout(creds store.CredentialStore) {
	creds.Delete(store.KeyAccessToken)
	creds.Delete(store.KeyRefreshToken)
	creds.Delete(store.KeyUserEmail)
	creds.Delete(store.KeyOAuthState)
}

func (s *authService) Status(creds store.CredentialStore) *dto.AuthStatusResponse {
	return &dto.AuthStatusResponse{
		Authenticated: creds.Get(store.KeyAccessToken) != "",
		UserEmail:     creds.Get(store.KeyUserEmail),
	}
}
