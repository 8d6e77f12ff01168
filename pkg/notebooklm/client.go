package notebooklm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client talks to the Discovery Engine notebook API. The zero BaseURL targets
// the real regional hosts; tests point it at a local server.
type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// resolveLocation substitutes the endpoint region for the default "global"
// location. The service partitions data regionally and rejects a global
// location on a regional endpoint.
func resolveLocation(location, endpointLocation string) string {
	if location == "global" && (endpointLocation == "us" || endpointLocation == "eu") {
		return endpointLocation
	}
	return location
}

func (c *Client) host(endpointLocation string) string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return fmt.Sprintf("https://%s-discoveryengine.googleapis.com", endpointLocation)
}

func (c *Client) resourceURL(scope Scope, suffix string) (string, string) {
	scope = scope.WithDefaults()
	location := resolveLocation(scope.Location, scope.EndpointLocation)
	path := fmt.Sprintf("projects/%s/locations/%s%s", scope.ProjectNumber, location, suffix)
	return fmt.Sprintf("%s/v1alpha/%s", c.host(scope.EndpointLocation), path), location
}

func (c *Client) do(ctx context.Context, token, method, url string, payload interface{}) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		payloadJson, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewBuffer(payloadJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.Client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return res.StatusCode, resBody, nil
}

// upstreamError extracts the service's error message out of a failure body.
// The shape is usually {"error":{"message":...}} but not always.
func upstreamError(op string, status int, body []byte) *UpstreamError {
	message := http.StatusText(status)
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		} else if parsed.Message != "" {
			message = parsed.Message
		}
	} else {
		log.Printf("[NotebookLM] Upstream error body (raw): %s", string(body))
	}
	return &UpstreamError{Op: op, StatusCode: status, Message: message}
}

// ListNotebooks returns the caller's recently viewed notebooks.
func (c *Client) ListNotebooks(ctx context.Context, token string, scope Scope) ([]Notebook, error) {
	url, _ := c.resourceURL(scope, "/notebooks:listRecentlyViewed")

	status, body, err := c.do(ctx, token, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	if status != http.StatusOK {
		return nil, upstreamError("list notebooks", status, body)
	}

	var data struct {
		Notebooks []Notebook `json:"notebooks"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal notebooks: %w", err)
	}
	return data.Notebooks, nil
}

func (c *Client) GetNotebook(ctx context.Context, token string, scope Scope, notebookID string) (*Notebook, error) {
	url, _ := c.resourceURL(scope, "/notebooks/"+notebookID)

	status, body, err := c.do(ctx, token, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("get notebook: %w", err)
	}
	if status != http.StatusOK {
		return nil, upstreamError("get notebook", status, body)
	}

	var notebook Notebook
	if err := json.Unmarshal(body, &notebook); err != nil {
		return nil, fmt.Errorf("unmarshal notebook: %w", err)
	}
	return &notebook, nil
}

func (c *Client) CreateNotebook(ctx context.Context, token string, scope Scope, title string) (*Notebook, error) {
	url, _ := c.resourceURL(scope, "/notebooks")

	status, body, err := c.do(ctx, token, http.MethodPost, url, map[string]string{"title": title})
	if err != nil {
		return nil, fmt.Errorf("create notebook: %w", err)
	}
	if status != http.StatusOK {
		return nil, upstreamError("create notebook", status, body)
	}

	var notebook Notebook
	if err := json.Unmarshal(body, &notebook); err != nil {
		return nil, fmt.Errorf("unmarshal notebook: %w", err)
	}
	return &notebook, nil
}

// DeleteNotebook removes a notebook through the batchDelete operation.
// notebookName is the full resource name when the caller already has it;
// otherwise it is constructed from the scope.
func (c *Client) DeleteNotebook(ctx context.Context, token string, scope Scope, notebookID, notebookName string) error {
	url, location := c.resourceURL(scope, "/notebooks:batchDelete")

	fullName := notebookName
	if fullName == "" {
		fullName = fmt.Sprintf("projects/%s/locations/%s/notebooks/%s",
			scope.WithDefaults().ProjectNumber, location, notebookID)
	}
	log.Printf("[NotebookLM] Deleting notebook with name: %s", fullName)

	status, body, err := c.do(ctx, token, http.MethodPost, url, map[string][]string{"names": {fullName}})
	if err != nil {
		return fmt.Errorf("delete notebook: %w", err)
	}
	if status != http.StatusOK {
		return upstreamError("delete notebook", status, body)
	}
	// batchDelete returns an empty body on success
	return nil
}

// ListSources enumerates a notebook's sources. Some notebook responses inline
// them, so the notebook itself is checked first; the dedicated listing
// endpoint is the fallback. Failures degrade to an empty list so callers can
// keep going.
func (c *Client) ListSources(ctx context.Context, token string, scope Scope, notebookID string) []Source {
	notebook, err := c.GetNotebook(ctx, token, scope, notebookID)
	if err == nil && len(notebook.Sources) > 0 {
		return notebook.Sources
	}
	if err != nil {
		log.Printf("[NotebookLM] Could not get notebook to check for sources: %v", err)
	}

	sources, err := c.fetchSources(ctx, token, scope, notebookID)
	if err != nil {
		log.Printf("[NotebookLM] Error listing sources: %v", err)
		return []Source{}
	}
	return sources
}

// fetchSources calls the sources listing endpoint directly. A 404 or 405
// means the endpoint is not available on this deployment, which is not an
// error: it yields an empty set.
func (c *Client) fetchSources(ctx context.Context, token string, scope Scope, notebookID string) ([]Source, error) {
	url, _ := c.resourceURL(scope, "/notebooks/"+notebookID+"/sources")

	status, body, err := c.do(ctx, token, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	if status == http.StatusNotFound || status == http.StatusMethodNotAllowed {
		log.Printf("[NotebookLM] Sources list endpoint returned %d, treating as unsupported", status)
		return []Source{}, nil
	}
	if status != http.StatusOK {
		return nil, upstreamError("list sources", status, body)
	}

	// The response shape varies: {"sources":[...]}, {"source":[...]} or a
	// bare array have all been observed.
	var wrapped struct {
		Sources []Source `json:"sources"`
		Source  []Source `json:"source"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if wrapped.Sources != nil {
			return wrapped.Sources, nil
		}
		if wrapped.Source != nil {
			return wrapped.Source, nil
		}
	}
	var bare []Source
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	log.Printf("[NotebookLM] Unexpected response format for sources: %s", string(body))
	return []Source{}, nil
}

func (c *Client) GetSource(ctx context.Context, token string, scope Scope, notebookID, sourceID string) (*Source, error) {
	url, _ := c.resourceURL(scope, "/notebooks/"+notebookID+"/sources/"+sourceID)

	status, body, err := c.do(ctx, token, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if status != http.StatusOK {
		return nil, upstreamError("get source", status, body)
	}

	var source Source
	if err := json.Unmarshal(body, &source); err != nil {
		return nil, fmt.Errorf("unmarshal source: %w", err)
	}
	return &source, nil
}

// BatchCreateSources ingests a web/video URL or a Google Drive document as a
// new source.
func (c *Client) BatchCreateSources(ctx context.Context, token string, scope Scope, notebookID, videoURL string, drive *DriveContent) ([]Source, error) {
	url, _ := c.resourceURL(scope, "/notebooks/"+notebookID+"/sources:batchCreate")

	var userContent map[string]interface{}
	switch {
	case drive != nil:
		userContent = map[string]interface{}{
			"googleDriveContent": drive,
		}
	case videoURL != "":
		// videoContent does not work for YouTube URLs; webContent does.
		userContent = map[string]interface{}{
			"webContent": map[string]string{
				"url":        videoURL,
				"sourceName": "YouTube Video - " + time.Now().Format("1/2/2006"),
			},
		}
	default:
		return nil, fmt.Errorf("either videoURL or drive content must be provided")
	}

	payload := map[string]interface{}{
		"userContents": []map[string]interface{}{userContent},
	}

	status, body, err := c.do(ctx, token, http.MethodPost, url, payload)
	if err != nil {
		return nil, fmt.Errorf("add source: %w", err)
	}
	if status != http.StatusOK {
		return nil, upstreamError("add source", status, body)
	}

	var data struct {
		Sources []Source `json:"sources"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal sources: %w", err)
	}
	return data.Sources, nil
}

// UploadFile streams raw file bytes to the upload variant of the API.
func (c *Client) UploadFile(ctx context.Context, token string, scope Scope, notebookID, fileName string, data []byte, contentType string) (*Source, error) {
	scope = scope.WithDefaults()
	location := resolveLocation(scope.Location, scope.EndpointLocation)
	url := fmt.Sprintf("%s/upload/v1alpha/projects/%s/locations/%s/notebooks/%s/sources:uploadFile",
		c.host(scope.EndpointLocation), scope.ProjectNumber, location, notebookID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Goog-Upload-File-Name", fileName)
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("Content-Type", contentType)

	res, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, upstreamError("upload file", res.StatusCode, resBody)
	}

	var source Source
	if err := json.Unmarshal(resBody, &source); err != nil {
		return nil, fmt.Errorf("unmarshal source: %w", err)
	}
	return &source, nil
}
