// Package identity turns an access token into a human-readable label for
// display. The userinfo endpoint is unreliable enough that three strategies
// are tried; none of them is allowed to fail authentication.
package identity

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Unknown is the label when every strategy comes up empty.
const Unknown = "Unknown"

type Resolver struct {
	UserinfoURL   string
	UserinfoV3URL string
	Client        *http.Client
}

func NewResolver(userinfoURL, userinfoV3URL string) *Resolver {
	if userinfoURL == "" {
		userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	}
	if userinfoV3URL == "" {
		userinfoV3URL = "https://www.googleapis.com/oauth2/v3/userinfo"
	}
	return &Resolver{
		UserinfoURL:   userinfoURL,
		UserinfoV3URL: userinfoV3URL,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Resolve never returns an error: a label always comes back, if only
// "Unknown".
func (r *Resolver) Resolve(ctx context.Context, accessToken string) string {
	if label := r.fetchUserinfo(ctx, r.UserinfoURL, accessToken); label != "" {
		return label
	}

	// Best-effort decode of a JWT-shaped token. Unverified, display only.
	if label := labelFromTokenPayload(accessToken); label != "" {
		log.Printf("[Identity] User email from token: %s", label)
		return label
	}

	if label := r.fetchUserinfo(ctx, r.UserinfoV3URL, accessToken); label != "" {
		return label
	}

	return Unknown
}

func (r *Resolver) fetchUserinfo(ctx context.Context, url, accessToken string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := r.Client.Do(req)
	if err != nil {
		log.Printf("[Identity] Error fetching userinfo: %v", err)
		return ""
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return ""
	}
	if res.StatusCode != http.StatusOK {
		log.Printf("[Identity] Userinfo endpoint error: %d %s", res.StatusCode, string(body))
		return ""
	}

	var userData struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &userData); err != nil {
		return ""
	}
	if userData.Email != "" {
		return userData.Email
	}
	return userData.Name
}

func labelFromTokenPayload(accessToken string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return ""
	}
	for _, key := range []string{"email", "sub", "name"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
