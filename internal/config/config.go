package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Google     GoogleConfig
	NotebookLM NotebookLMConfig
	Keys       APIKeys
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

// GoogleConfig carries the OAuth client credentials plus the provider endpoints.
// The endpoint fields default to the real Google URLs and only exist so tests
// can point the flow at a local fake.
type GoogleConfig struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	AuthURL       string
	TokenURL      string
	UserinfoURL   string
	UserinfoV3URL string

	// Non-interactive credential fallbacks, in broker priority order.
	StaticAccessToken  string
	CredentialsFile    string
	ServiceAccountJSON string
}

type NotebookLMConfig struct {
	ProjectNumber    string
	Location         string
	EndpointLocation string
	BaseURLOverride  string // tests only; empty means the regional discoveryengine host
}

type APIKeys struct {
	GoogleGemini  string
	GeminiModel   string
	GeminiBaseURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	baseURL := getEnv("APP_BASE_URL", "http://localhost:3000")

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            baseURL,
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Google: GoogleConfig{
			ClientID:      getEnv("GOOGLE_CLOUD_CLIENT_ID", ""),
			ClientSecret:  getEnv("GOOGLE_CLOUD_CLIENT_SECRET", ""),
			RedirectURL:   getEnv("GOOGLE_CLOUD_REDIRECT_URI", baseURL+"/api/auth/callback"),
			AuthURL:       getEnv("GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth"),
			TokenURL:      getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
			UserinfoURL:   getEnv("GOOGLE_USERINFO_URL", "https://www.googleapis.com/oauth2/v2/userinfo"),
			UserinfoV3URL: getEnv("GOOGLE_USERINFO_V3_URL", "https://www.googleapis.com/oauth2/v3/userinfo"),

			StaticAccessToken:  getEnv("GOOGLE_CLOUD_ACCESS_TOKEN", ""),
			CredentialsFile:    getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			ServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		},
		NotebookLM: NotebookLMConfig{
			ProjectNumber:    getEnv("NOTEBOOKLM_PROJECT_NUMBER", ""),
			Location:         getEnv("NOTEBOOKLM_LOCATION", "global"),
			EndpointLocation: getEnv("NOTEBOOKLM_ENDPOINT_LOCATION", "us"),
			BaseURLOverride:  getEnv("NOTEBOOKLM_BASE_URL", ""),
		},
		Keys: APIKeys{
			GoogleGemini:  getEnv("GEMINI_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
