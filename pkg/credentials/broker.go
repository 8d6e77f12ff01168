// Package credentials resolves a bearer token for the notebook API from a
// prioritized cascade of sources: the acting user's own delegated token, an
// operator-supplied static token, a service-account credential (key file or
// inline JSON), and finally Application Default Credentials.
package credentials

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ErrNoCredentials enumerates every way to supply a credential, because the
// fix is always one of these and nothing in the error chain says which.
var ErrNoCredentials = errors.New(
	"no access token available. Please set up authentication:\n" +
		"1. Run: gcloud auth application-default login (make sure you're logged in with your Google account)\n" +
		"2. Or set GOOGLE_CLOUD_ACCESS_TOKEN=$(gcloud auth application-default print-access-token)\n" +
		"3. Or set GOOGLE_APPLICATION_CREDENTIALS (path to service account JSON file)\n" +
		"4. Or set GOOGLE_SERVICE_ACCOUNT_JSON (service account JSON as string)")

type Broker struct {
	StaticToken        string
	CredentialsFile    string
	ServiceAccountJSON string

	// Service-account bearer tokens are valid for about an hour; caching them
	// avoids re-running the JWT grant on every aggregation pass.
	tokenCache *cache.Cache

	// Swappable for tests; defaults to google.FindDefaultCredentials.
	findDefault func(ctx context.Context, scopes ...string) (*google.Credentials, error)
}

func NewBroker(staticToken, credentialsFile, serviceAccountJSON string) *Broker {
	return &Broker{
		StaticToken:        staticToken,
		CredentialsFile:    credentialsFile,
		ServiceAccountJSON: serviceAccountJSON,
		tokenCache:         cache.New(5*time.Minute, 10*time.Minute),
		findDefault:        google.FindDefaultCredentials,
	}
}

// ResolveAccessToken picks the first available credential, in trust order:
// explicit user identity, explicit operator override, durable service
// identity, ambient identity.
func (b *Broker) ResolveAccessToken(ctx context.Context, requestToken string) (string, error) {
	// 1. Request-scoped token from the acting user's session.
	if requestToken != "" {
		return requestToken, nil
	}

	// 2. Operator-supplied static token.
	if b.StaticToken != "" {
		token := strings.TrimSpace(b.StaticToken)
		log.Printf("[Credentials] Token issued for account: %s", accountFromToken(token))
		return token, nil
	}

	// 3. Service account key file.
	if b.CredentialsFile != "" {
		token, err := b.keyFileToken(ctx)
		if err != nil {
			return "", err
		}
		return token, nil
	}

	// 4. Inline service account JSON.
	if b.ServiceAccountJSON != "" {
		token, err := b.inlineToken(ctx)
		if err != nil {
			return "", err
		}
		return token, nil
	}

	// 5. Application Default Credentials.
	if token, err := b.defaultToken(ctx); err == nil {
		return token, nil
	} else {
		log.Printf("[Credentials] Error getting access token: %v", err)
	}

	return "", ErrNoCredentials
}

func (b *Broker) keyFileToken(ctx context.Context) (string, error) {
	if token, ok := b.tokenCache.Get("keyfile:" + b.CredentialsFile); ok {
		return token.(string), nil
	}

	data, err := os.ReadFile(b.CredentialsFile)
	if err != nil {
		return "", fmt.Errorf("read service account key file: %w", err)
	}
	token, email, err := b.tokenFromJSON(ctx, data)
	if err != nil {
		return "", fmt.Errorf("service account key file: %w", err)
	}
	log.Printf("[Credentials] Using service account: %s", email)

	b.cacheToken("keyfile:"+b.CredentialsFile, token)
	return token.AccessToken, nil
}

func (b *Broker) inlineToken(ctx context.Context) (string, error) {
	if token, ok := b.tokenCache.Get("inline"); ok {
		return token.(string), nil
	}

	token, email, err := b.tokenFromJSON(ctx, []byte(b.ServiceAccountJSON))
	if err != nil {
		return "", fmt.Errorf("invalid GOOGLE_SERVICE_ACCOUNT_JSON format: %w", err)
	}
	log.Printf("[Credentials] Using service account: %s", email)

	b.cacheToken("inline", token)
	return token.AccessToken, nil
}

func (b *Broker) defaultToken(ctx context.Context) (string, error) {
	if token, ok := b.tokenCache.Get("adc"); ok {
		return token.(string), nil
	}

	creds, err := b.findDefault(ctx, cloudPlatformScope)
	if err != nil {
		return "", err
	}
	if email := emailFromCredentialsJSON(creds.JSON); email != "" {
		log.Printf("[Credentials] Using service account: %s", email)
	} else {
		log.Printf("[Credentials] Using Application Default Credentials (user account)")
	}

	token, err := creds.TokenSource.Token()
	if err != nil {
		return "", err
	}
	b.cacheToken("adc", &resolvedToken{AccessToken: token.AccessToken, Expiry: token.Expiry})
	return token.AccessToken, nil
}

type resolvedToken struct {
	AccessToken string
	Expiry      time.Time
}

func (b *Broker) tokenFromJSON(ctx context.Context, data []byte) (*resolvedToken, string, error) {
	creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
	if err != nil {
		return nil, "", err
	}
	token, err := creds.TokenSource.Token()
	if err != nil {
		return nil, "", err
	}
	email := emailFromCredentialsJSON(data)
	if email == "" {
		email = "Unknown"
	}
	return &resolvedToken{AccessToken: token.AccessToken, Expiry: token.Expiry}, email, nil
}

func (b *Broker) cacheToken(key string, token *resolvedToken) {
	ttl := time.Until(token.Expiry) - time.Minute
	if ttl <= 0 {
		return
	}
	b.tokenCache.Set(key, token.AccessToken, ttl)
}

func emailFromCredentialsJSON(data []byte) string {
	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return ""
	}
	return creds.ClientEmail
}

// accountFromToken decodes the payload of a structurally JWT-shaped token for
// logging. The signature is never checked; this is traceability, not trust.
func accountFromToken(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque OAuth tokens still carry a payload-shaped middle segment
		// sometimes; try a plain base64 decode before giving up.
		parts := strings.Split(token, ".")
		if len(parts) < 2 {
			return "Unknown"
		}
		payload, decodeErr := base64.RawURLEncoding.DecodeString(parts[1])
		if decodeErr != nil {
			return "Unknown"
		}
		if jsonErr := json.Unmarshal(payload, &claims); jsonErr != nil {
			return "Unknown"
		}
	}
	for _, key := range []string{"email", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return "Unknown"
}
