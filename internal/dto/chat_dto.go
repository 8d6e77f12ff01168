package dto

// ChatTurn is one entry of the conversation history sent by the client.
type ChatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type SendChatRequest struct {
	Message          string     `json:"message" validate:"required"`
	ChatHistory      []ChatTurn `json:"chatHistory" validate:"dive"`
	NotebookIDs      []string   `json:"notebookIds"`
	ProjectNumber    string     `json:"projectNumber"`
	Location         string     `json:"location"`
	EndpointLocation string     `json:"endpointLocation"`
}

type SendChatResponse struct {
	Response string `json:"response"`
}
