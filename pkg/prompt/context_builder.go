// Package prompt assembles the grounding context block that is prepended to
// the user's chat message.
package prompt

import (
	"fmt"
	"strings"

	"notebooklm-chat-be/pkg/notebooklm"
)

// ContextBuilder renders aggregated notebook data into a single text block
// with deterministic formatting. Sources are listed twice on purpose: once
// under their notebook and once in a flat summary, so the assistant can
// answer "list all my sources" without re-deriving structure.
type ContextBuilder struct {
	results []notebooklm.AggregationResult
}

func NewContextBuilder(results []notebooklm.AggregationResult) *ContextBuilder {
	return &ContextBuilder{results: results}
}

// Build returns the composed block, or "" when there is nothing to ground on.
func (b *ContextBuilder) Build() string {
	if len(b.results) == 0 {
		return ""
	}

	var context strings.Builder

	b.writeInstructions(&context)
	b.writeNotebooks(&context)
	b.writeSummary(&context)
	b.writeUsageGuidelines(&context)

	return context.String()
}

func (b *ContextBuilder) writeInstructions(context *strings.Builder) {
	fmt.Fprintf(context,
		"You are an AI assistant helping a user who has selected %d NotebookLM notebook%s with the following sources. "+
			"You have access to information about these sources and MUST provide helpful responses based on this information.\n\n",
		len(b.results), plural(len(b.results)))

	context.WriteString("CRITICAL INSTRUCTIONS:\n")
	context.WriteString("- You MUST always work with the source information provided below\n")
	context.WriteString("- NEVER say you cannot access the sources or that you don't have access to them\n")
	context.WriteString("- Use the source titles to understand what topics they cover\n")
	context.WriteString("- Provide detailed, helpful responses based on the source titles and your knowledge of those topics\n")
	context.WriteString("- When asked about sources, list them, describe what they likely contain based on their titles, and provide relevant information\n")
	context.WriteString("- Be confident and helpful - act as if you have access to this information\n")
	context.WriteString("- FORMATTING: Whenever you mention a source name, surround it with double asterisks like this: **source name**. This helps highlight source references in the response.\n")
	context.WriteString("- TITLE FORMATTING: For section titles and headers (like \"From your notebook...\" or any major section headers), use markdown header syntax with ### followed by the title text. For example: ### From your notebook \"Notebook Name\":. This helps format titles to be larger and bolder in the response.\n\n")
}

func (b *ContextBuilder) writeNotebooks(context *strings.Builder) {
	for i, result := range b.results {
		fmt.Fprintf(context, "=== Notebook %d: %q ===\n", i+1, result.Notebook.Title)
		fmt.Fprintf(context, "Notebook ID: %s\n", result.Notebook.NotebookID)

		if len(result.Sources) == 0 {
			context.WriteString("No sources have been added to this notebook yet.\n\n")
			continue
		}

		fmt.Fprintf(context, "This notebook contains %d source%s:\n\n",
			len(result.Sources), plural(len(result.Sources)))
		for j, source := range result.Sources {
			fmt.Fprintf(context, "%d. %q", j+1, sourceTitle(source))
			if source.Metadata != nil && source.Metadata.WordCount > 0 {
				fmt.Fprintf(context, " (%d words)", source.Metadata.WordCount)
			}
			if source.Metadata != nil && source.Metadata.TokenCount > 0 {
				fmt.Fprintf(context, " (%d tokens)", source.Metadata.TokenCount)
			}
			context.WriteString("\n")
		}
		context.WriteString("\n")
	}
}

func (b *ContextBuilder) writeSummary(context *strings.Builder) {
	total := 0
	for _, result := range b.results {
		total += len(result.Sources)
	}
	if total == 0 {
		return
	}

	context.WriteString("\n=== SUMMARY: All Sources Across All Notebooks ===\n")
	index := 0
	for _, result := range b.results {
		for _, source := range result.Sources {
			index++
			fmt.Fprintf(context, "%d. %q (from notebook: %q)", index, sourceTitle(source), result.Notebook.Title)
			if source.Metadata != nil && source.Metadata.WordCount > 0 {
				fmt.Fprintf(context, " - %d words", source.Metadata.WordCount)
			}
			context.WriteString("\n")
		}
	}
	context.WriteString("\n")
}

func (b *ContextBuilder) writeUsageGuidelines(context *strings.Builder) {
	context.WriteString("\nWhen the user asks about their sources:\n")
	context.WriteString("- List all sources from all notebooks\n")
	context.WriteString("- Describe what each source likely contains based on its title\n")
	context.WriteString("- Provide relevant information, insights, or summaries based on the source topics\n")
	context.WriteString("- Reference specific source names when discussing them - ALWAYS wrap source names in **double asterisks** like **source name**\n")
	context.WriteString("- For section titles and headers (like \"From your notebook...\" headers), use ### followed by the title text\n")
	context.WriteString("- Be helpful and informative - never refuse to help or say you don't have access\n")
	context.WriteString("- Remember: Every time you mention a source title, format it as **source title**. For section headers, use ### Header Text\n\n")
}

func sourceTitle(source notebooklm.Source) string {
	if source.Title == "" {
		return "Untitled Source"
	}
	return source.Title
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
