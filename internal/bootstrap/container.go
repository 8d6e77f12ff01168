package bootstrap

import (
	"log"

	"notebooklm-chat-be/internal/config"
	"notebooklm-chat-be/internal/controller"
	"notebooklm-chat-be/internal/pkg/logger"
	"notebooklm-chat-be/internal/service"
	"notebooklm-chat-be/pkg/credentials"
	"notebooklm-chat-be/pkg/identity"
	"notebooklm-chat-be/pkg/llm/gemini"
	"notebooklm-chat-be/pkg/notebooklm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	NotebookController controller.INotebookController
	ChatController     controller.IChatController

	// Exposed for main.go shutdown
	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Upstream Clients
	resolver := identity.NewResolver(cfg.Google.UserinfoURL, cfg.Google.UserinfoV3URL)
	broker := credentials.NewBroker(cfg.Google.StaticAccessToken, cfg.Google.CredentialsFile, cfg.Google.ServiceAccountJSON)
	nlmClient := notebooklm.NewClient(cfg.NotebookLM.BaseURLOverride)
	llmProvider := gemini.NewProvider(cfg.Keys.GoogleGemini, cfg.Keys.GeminiModel, cfg.Keys.GeminiBaseURL)

	if cfg.Keys.GoogleGemini == "" {
		log.Println("[Bootstrap] WARNING - GEMINI_API_KEY not set, chat completions will fail")
	}

	// 3. Services
	authService := service.NewAuthService(cfg, resolver)
	notebookService := service.NewNotebookService(broker, nlmClient)
	chatService := service.NewChatService(broker, nlmClient, llmProvider, sysLogger)

	// 4. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(cfg, authService),
		NotebookController: controller.NewNotebookController(cfg, notebookService),
		ChatController:     controller.NewChatController(cfg, chatService),
		Logger:             sysLogger,
	}
}
