package notebooklm

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// AggregationResult pairs one notebook with whatever sources could be
// resolved for it. Notebook is never nil: when the record itself could not be
// fetched it is a synthesized placeholder carrying only the id.
type AggregationResult struct {
	Notebook *Notebook
	Sources  []Source
}

// Aggregate fetches every requested notebook and its sources concurrently.
// Each id degrades independently: a failed sources fetch yields an empty
// list, a failed notebook fetch yields a placeholder, and no failure ever
// aborts the siblings. Results come back in the caller's id order.
func (c *Client) Aggregate(ctx context.Context, token string, scope Scope, notebookIDs []string) []AggregationResult {
	scope = scope.WithDefaults()
	results := make([]AggregationResult, len(notebookIDs))

	var wg sync.WaitGroup
	for i, id := range notebookIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i] = c.aggregateOne(ctx, token, scope, id)
		}(i, id)
	}
	wg.Wait()

	return results
}

func (c *Client) aggregateOne(ctx context.Context, token string, scope Scope, notebookID string) AggregationResult {
	notebook, err := c.GetNotebook(ctx, token, scope, notebookID)
	if err == nil {
		sources := notebook.Sources
		if len(sources) == 0 {
			sources, err = c.fetchSources(ctx, token, scope, notebookID)
			if err != nil {
				log.Printf("[Aggregator] Failed to load sources for notebook %s: %v", notebookID, err)
				sources = []Source{}
			}
		}
		return AggregationResult{Notebook: notebook, Sources: sources}
	}
	log.Printf("[Aggregator] Failed to get notebook %s: %v", notebookID, err)

	// The notebook record is gone or unreadable; the sources endpoint may
	// still answer.
	sources, srcErr := c.fetchSources(ctx, token, scope, notebookID)
	if srcErr != nil {
		log.Printf("[Aggregator] Failed to get sources for notebook %s: %v", notebookID, srcErr)
		sources = []Source{}
	}

	return AggregationResult{
		Notebook: placeholderNotebook(scope, notebookID),
		Sources:  sources,
	}
}

func placeholderNotebook(scope Scope, notebookID string) *Notebook {
	location := resolveLocation(scope.Location, scope.EndpointLocation)
	return &Notebook{
		Title:      "Notebook " + notebookID,
		NotebookID: notebookID,
		Emoji:      "📓",
		Name: fmt.Sprintf("projects/%s/locations/%s/notebooks/%s",
			scope.ProjectNumber, location, notebookID),
	}
}
