package service

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"notebooklm-chat-be/internal/dto"
	"notebooklm-chat-be/pkg/credentials"
	"notebooklm-chat-be/pkg/notebooklm"
)

type INotebookService interface {
	List(ctx context.Context, userToken string, scope notebooklm.Scope) ([]notebooklm.Notebook, error)
	Create(ctx context.Context, userToken string, scope notebooklm.Scope, title string) (*notebooklm.Notebook, error)
	Get(ctx context.Context, userToken string, scope notebooklm.Scope, notebookID string) (*notebooklm.Notebook, error)
	Delete(ctx context.Context, userToken string, scope notebooklm.Scope, notebookID, notebookName string) error
	ListSources(ctx context.Context, userToken string, scope notebooklm.Scope, notebookID string) ([]notebooklm.Source, error)
	AddSource(ctx context.Context, userToken string, scope notebooklm.Scope, notebookID string, req *dto.AddSourceRequest) ([]notebooklm.Source, error)
	UploadSource(ctx context.Context, userToken string, scope notebooklm.Scope, notebookID, fileName string, data []byte, contentType string) (*notebooklm.Source, error)
}

type notebookService struct {
	broker *credentials.Broker
	client *notebooklm.Client
}

func NewNotebookService(broker *credentials.Broker, client *notebooklm.Client) INotebookService {
	return &notebookService{
		broker: broker,
		client: client,
	}
}

func (s *notebookService) List(ctx context.Context, userToken string, scope notebooklm.Scope) ([]notebooklm.Notebook, error) {
	token, err := s.broker.ResolveAccessToken(ctx, userToken)
	if err != nil {
		return nil, err
	}
	return s.client.ListNotebooks(ctx, token, scope)
}

func (s *notebookService) Create(ctx context.Context, userToken string, scope notebooklm.Scope, title string) (*notebooklm.Notebook, error) {
	token, err := s.broker.ResolveAccessToken(ctx, userToken)
	if err != nil {
		return nil, err
	}
	return s.client.CreateNotebook(ctx, token, scope, strings.TrimSpace(title))
}

func (s *notebookService) Get(ctx context.Context, userToken string, scope notebooklm.Scope, notebookID string) (*notebooklm.Notebook, error) {
	token, err := s.broker.ResolveAccessToken(ctx, userToken)
	if err != nil {
		return nil, err
	}
	return s.client.GetNotebook(ctx, token, scope, notebookID)
}

func (s *notebookService) Delete(ctx context.Context, userToken string, scope notebooklm.Scope, notebookID, notebookName string) error {
	token, err := s.broker.ResolveAccessToken(ctx, userToken)
	if err != nil {
		return err
	}

	// batchDelete wants the full resource name; look it up when the caller
	// did not send one, and fall back to constructing it.
	if notebookName == "" {
		notebook, err := s.client.GetNotebook(ctx, token, scope, notebookID)
		if err != nil {
			log.Printf("[Notebook Service] Could not fetch notebook name, will construct it: %v", err)
		} else {
			notebookName = notebook.Name
		}
	}

	return s.client.DeleteNotebook(ctx, token, scope, notebookID, notebookName)
}

func (s *notebookService) ListSources(ctx context.Context, userToken string, scope notebooklm.Scope, notebookID string) ([]notebooklm.Source, error) {
	token, err := s.broker.ResolveAccessToken(ctx, userToken)
	if err != nil {
		return nil, err
	}
	return s.client.ListSources(ctx, token, scope, notebookID), nil
}

func (s *notebookService) AddSource(ctx context.Context, userToken string, scope notebooklm.Scope, notebookID string, req *dto.AddSourceRequest) ([]notebooklm.Source, error) {
	token, err := s.broker.ResolveAccessToken(ctx, userToken)
	if err != nil {
		return nil, err
	}

	var drive *notebooklm.DriveContent
	if req.GoogleDriveContent != nil {
		drive = &notebooklm.DriveContent{
			DocumentID: req.GoogleDriveContent.DocumentID,
			MimeType:   req.GoogleDriveContent.MimeType,
			SourceName: req.GoogleDriveContent.SourceName,
		}
	}

	return s.client.BatchCreateSources(ctx, token, scope, notebookID, req.VideoURL, drive)
}

func (s *notebookService) UploadSource(ctx context.Context, userToken string, scope notebooklm.Scope, notebookID, fileName string, data []byte, contentType string) (*notebooklm.Source, error) {
	token, err := s.broker.ResolveAccessToken(ctx, userToken)
	if err != nil {
		return nil, err
	}
	return s.client.UploadFile(ctx, token, scope, notebookID, fileName, data, detectContentType(fileName, contentType))
}

// Browsers frequently send application/octet-stream for types the upload
// endpoint does understand; the extension is a better signal then.
var contentTypesByExt = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".aac":  "audio/aac",
	".aiff": "audio/aiff",
	".amr":  "audio/amr",
	".avi":  "video/x-msvideo",
	".m4a":  "audio/m4a",
	".mid":  "audio/midi",
	".midi": "audio/midi",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".mpeg": "audio/mpeg",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".wav":  "audio/wav",
	".weba": "audio/webm",
	".wma":  "audio/x-ms-wma",
	".png":  "image/png",
	".jpg":  "image/jpg",
	".jpeg": "image/jpeg",
}

func detectContentType(fileName, provided string) string {
	if provided != "" && provided != "application/octet-stream" {
		return provided
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if contentType, ok := contentTypesByExt[ext]; ok {
		return contentType
	}
	return "application/octet-stream"
}
