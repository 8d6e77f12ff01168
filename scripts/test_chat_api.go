package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(string(b))
}

// Request helper. The access token rides in a cookie, same as the browser.
func sendRequest(method, url, accessToken string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.AddCookie(&http.Cookie{Name: "google_access_token", Value: accessToken})
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("🚀 Starting NotebookLM Chat API Test\n")

	accessToken := os.Getenv("GOOGLE_CLOUD_ACCESS_TOKEN")
	projectNumber := os.Getenv("GOOGLE_CLOUD_PROJECT_NUMBER")
	if projectNumber == "" {
		color.Red("GOOGLE_CLOUD_PROJECT_NUMBER is required")
		os.Exit(1)
	}

	// 1. Auth status
	color.Yellow("\n1. Get Auth Status")
	resp, body, err := sendRequest("GET", "/auth/status", accessToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 2. List notebooks
	color.Yellow("\n2. List Notebooks")
	resp, body, err = sendRequest("GET", "/notebooks?projectNumber="+projectNumber, accessToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// Pull the first notebook id for the chat test, if any
	var listRes struct {
		Data struct {
			Notebooks []struct {
				NotebookID string `json:"notebookId"`
				Title      string `json:"title"`
			} `json:"notebooks"`
		} `json:"data"`
	}
	_ = json.Unmarshal(body, &listRes)

	notebookIDs := []string{}
	if len(listRes.Data.Notebooks) > 0 {
		nb := listRes.Data.Notebooks[0]
		color.Cyan("Using notebook %q (%s)", nb.Title, nb.NotebookID)
		notebookIDs = append(notebookIDs, nb.NotebookID)

		// 3. List its sources
		color.Yellow("\n3. List Sources")
		resp, body, err = sendRequest("GET", "/notebooks/"+nb.NotebookID+"/sources?projectNumber="+projectNumber, accessToken, nil)
		if err != nil {
			color.Red("Failed: %v", err)
		} else {
			color.Green("Status: %s", resp.Status)
			prettyPrint(body)
		}
	} else {
		color.Yellow("\n3. List Sources - skipped, no notebooks found")
	}

	// 4. Grounded chat
	color.Yellow("\n4. Send Chat Message")
	resp, body, err = sendRequest("POST", "/chat", accessToken, map[string]interface{}{
		"message":       "What sources do I have available?",
		"notebookIds":   notebookIDs,
		"projectNumber": projectNumber,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 5. Chat with history
	color.Yellow("\n5. Send Follow-up With History")
	resp, body, err = sendRequest("POST", "/chat", accessToken, map[string]interface{}{
		"message": "Summarize that in one sentence.",
		"chatHistory": []map[string]string{
			{"role": "user", "content": "What sources do I have available?"},
			{"role": "assistant", "content": "You have several sources available."},
		},
		"notebookIds":   notebookIDs,
		"projectNumber": projectNumber,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Cyan("\n✅ Test run complete")
}
