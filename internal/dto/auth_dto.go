package dto

// OAuthCallbackRequest carries the query parameters of the provider redirect.
type OAuthCallbackRequest struct {
	Code          string
	State         string
	ProviderError string
}

type AuthStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserEmail     string `json:"user_email,omitempty"`
}

type RefreshResponse struct {
	Success bool `json:"success"`
}
