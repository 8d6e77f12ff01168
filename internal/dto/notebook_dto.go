package dto

import "notebooklm-chat-be/pkg/notebooklm"

type CreateNotebookRequest struct {
	ProjectNumber    string `json:"projectNumber" validate:"required"`
	Title            string `json:"title" validate:"required"`
	Location         string `json:"location"`
	EndpointLocation string `json:"endpointLocation"`
}

type AddSourceRequest struct {
	ProjectNumber    string            `json:"projectNumber" validate:"required"`
	Location         string            `json:"location"`
	EndpointLocation string            `json:"endpointLocation"`
	VideoURL         string            `json:"videoUrl"`
	GoogleDriveContent *DriveContentDTO `json:"googleDriveContent"`
}

type DriveContentDTO struct {
	DocumentID string `json:"documentId" validate:"required"`
	MimeType   string `json:"mimeType" validate:"required"`
	SourceName string `json:"sourceName" validate:"required"`
}

type ListNotebooksResponse struct {
	Notebooks []notebooklm.Notebook `json:"notebooks"`
}

type NotebookResponse struct {
	Notebook *notebooklm.Notebook `json:"notebook"`
}

type ListSourcesResponse struct {
	Sources []notebooklm.Source `json:"sources"`
}

type AddSourceResponse struct {
	Sources []notebooklm.Source `json:"sources"`
}

type UploadSourceResponse struct {
	Source *notebooklm.Source `json:"source"`
}
