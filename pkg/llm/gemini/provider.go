package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"notebooklm-chat-be/pkg/llm"
)

// SystemInstruction keeps the assistant grounded in the notebook sources
// injected into the prompt instead of disclaiming access to them.
const SystemInstruction = "You are a helpful AI assistant working with NotebookLM notebooks. " +
	"When users ask about sources in their notebooks, you MUST provide helpful responses based on the source information provided to you in the conversation. " +
	"Always use the source information that is explicitly provided in the user's messages. " +
	"Never say you cannot access sources or that you don't have access to them. " +
	"Always work with the information you are given and provide detailed, informative responses about the sources based on their titles and metadata. " +
	"If source information is provided in the current message, that takes priority over any previous conversation context."

type Provider struct {
	APIKey    string
	ModelName string
	BaseURL   string
	Client    *http.Client
}

// Ensure Provider implements LLMProvider
var _ llm.LLMProvider = &Provider{}

func NewProvider(apiKey, modelName, baseURL string) *Provider {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &Provider{
		APIKey:    apiKey,
		ModelName: modelName,
		BaseURL:   baseURL,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content *geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// --- Interface Implementation ---

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	// 1. Process Options
	options := &llm.Options{
		SystemInstruction: SystemInstruction,
	}
	for _, opt := range opts {
		opt(options)
	}

	// 2. Map generic messages to Gemini contents
	contents := make([]geminiContent, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "assistant" {
			role = "model"
		}
		contents[i] = geminiContent{
			Parts: []geminiPart{{Text: msg.Content}},
			Role:  role,
		}
	}

	// 3. Prepare Payload
	model := p.ModelName
	if options.Model != "" {
		model = options.Model
	}

	reqPayload := geminiRequest{
		Contents: contents,
	}
	if options.SystemInstruction != "" {
		reqPayload.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: options.SystemInstruction}},
		}
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	// 4. Send Request
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.BaseURL, model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	// 5. Parse Response
	var geminiRes geminiResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(geminiRes.Candidates) == 0 || geminiRes.Candidates[0].Content == nil ||
		len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	return geminiRes.Candidates[0].Content.Parts[0].Text, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}
