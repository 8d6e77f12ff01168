package service

import (
	"context"

	"notebooklm-chat-be/internal/dto"
	"notebooklm-chat-be/internal/pkg/logger"
	"notebooklm-chat-be/internal/pkg/serverutils"
	"notebooklm-chat-be/pkg/credentials"
	"notebooklm-chat-be/pkg/llm"
	"notebooklm-chat-be/pkg/notebooklm"
	"notebooklm-chat-be/pkg/prompt"
)

// historyLimit caps how many prior turns go to the model. Older turns are
// dropped, not summarized.
const historyLimit = 10

type IChatService interface {
	SendChat(ctx context.Context, userToken string, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
}

type chatService struct {
	broker      *credentials.Broker
	client      *notebooklm.Client
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewChatService(
	broker *credentials.Broker,
	client *notebooklm.Client,
	llmProvider llm.LLMProvider,
	sysLogger logger.ILogger,
) IChatService {
	return &chatService{
		broker:      broker,
		client:      client,
		llmProvider: llmProvider,
		logger:      sysLogger,
	}
}

func (s *chatService) SendChat(ctx context.Context, userToken string, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	// Grounding context is best effort: any failure here degrades to an
	// ungrounded answer instead of failing the turn.
	notebookContext := s.buildNotebookContext(ctx, userToken, req)

	enhancedMessage := req.Message
	if notebookContext != "" {
		enhancedMessage = notebookContext + "\n\nUser question: " + req.Message
		s.logger.Debug("chat", "Composed notebook context", map[string]interface{}{
			"context_length": len(notebookContext),
			"notebook_count": len(req.NotebookIDs),
		})
	}

	messages := truncateHistory(req.ChatHistory, historyLimit)
	messages = append(messages, llm.Message{Role: "user", Content: enhancedMessage})

	response, err := s.llmProvider.Chat(ctx, messages)
	if err != nil {
		s.logger.Error("chat", "Completion call failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, serverutils.NewAppError(500, serverutils.CodeCompletionFailed,
			"Failed to process chat message", err)
	}

	return &dto.SendChatResponse{Response: response}, nil
}

func (s *chatService) buildNotebookContext(ctx context.Context, userToken string, req *dto.SendChatRequest) string {
	if len(req.NotebookIDs) == 0 || req.ProjectNumber == "" {
		return ""
	}

	token, err := s.broker.ResolveAccessToken(ctx, userToken)
	if err != nil {
		s.logger.Warn("chat", "No credentials for notebook context, continuing without it", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}

	scope := notebooklm.Scope{
		ProjectNumber:    req.ProjectNumber,
		Location:         req.Location,
		EndpointLocation: req.EndpointLocation,
	}
	results := s.client.Aggregate(ctx, token, scope, req.NotebookIDs)

	for _, result := range results {
		s.logger.Debug("chat", "Fetched notebook data", map[string]interface{}{
			"notebook": result.Notebook.Title,
			"sources":  len(result.Sources),
		})
	}

	return prompt.NewContextBuilder(results).Build()
}

// truncateHistory keeps the most recent limit turns in chronological order.
func truncateHistory(history []dto.ChatTurn, limit int) []llm.Message {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	messages := make([]llm.Message, len(history))
	for i, turn := range history {
		messages[i] = llm.Message{Role: turn.Role, Content: turn.Content}
	}
	return messages
}
