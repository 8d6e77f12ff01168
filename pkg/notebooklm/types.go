package notebooklm

import "fmt"

// Notebook mirrors the Discovery Engine notebook resource. Some responses
// inline the notebook's sources, most do not.
type Notebook struct {
	Title      string           `json:"title"`
	NotebookID string           `json:"notebookId"`
	Emoji      string           `json:"emoji"`
	Metadata   NotebookMetadata `json:"metadata"`
	Name       string           `json:"name"`
	Sources    []Source         `json:"sources,omitempty"`
}

type NotebookMetadata struct {
	UserRole    string `json:"userRole"`
	IsShared    bool   `json:"isShared"`
	IsShareable bool   `json:"isShareable"`
	LastViewed  string `json:"lastViewed,omitempty"`
	CreateTime  string `json:"createTime,omitempty"`
}

// Source is a single ingested item inside a notebook.
type Source struct {
	SourceID SourceID        `json:"sourceId"`
	Title    string          `json:"title"`
	Metadata *SourceMetadata `json:"metadata,omitempty"`
	Settings *SourceSettings `json:"settings,omitempty"`
	Name     string          `json:"name"` // full resource name
}

type SourceID struct {
	ID string `json:"id"`
}

type SourceMetadata struct {
	WordCount  int `json:"wordCount,omitempty"`
	TokenCount int `json:"tokenCount,omitempty"`
}

type SourceSettings struct {
	Status string `json:"status,omitempty"`
}

// DriveContent identifies a Google Drive document to ingest as a source.
type DriveContent struct {
	DocumentID string `json:"documentId"`
	MimeType   string `json:"mimeType"`
	SourceName string `json:"sourceName"`
}

// Scope routes a request to the right project and regional partition.
type Scope struct {
	ProjectNumber    string
	Location         string
	EndpointLocation string
}

// WithDefaults fills the optional fields the way the API expects them.
func (s Scope) WithDefaults() Scope {
	if s.Location == "" {
		s.Location = "global"
	}
	if s.EndpointLocation == "" {
		s.EndpointLocation = "us"
	}
	return s
}

// UpstreamError is a non-2xx answer from the notebook service, with the
// upstream message extracted when the body was parseable JSON.
type UpstreamError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Message)
}
