// Package mcp renders document content as a fixed-layout context block for
// consumption by a language model. The formatter is a pure function: the same
// document always produces byte-identical output.
package mcp

import (
	"fmt"
	"strings"
	"time"
)

// DocumentContext carries the fields included in the formatted block.
type DocumentContext struct {
	DocumentID       int64
	Title            string
	Content          string
	OrganizationID   int64
	OrganizationName string
	CreatedBy        string
	CreatedAt        time.Time
}

// SystemPrompt is the fixed system message sent with every question.
const SystemPrompt = "You are a helpful assistant that answers questions about documents. " +
	"Use the provided document context to answer questions accurately."

// Format renders the context block. Timestamps are normalized to UTC RFC 3339
// so the output is deterministic regardless of the server's zone.
func Format(dc DocumentContext) string {
	var b strings.Builder
	b.WriteString("Document Context (MCP):\n")
	fmt.Fprintf(&b, "Title: %s\n", dc.Title)
	b.WriteString("Content:\n")
	b.WriteString(dc.Content)
	b.WriteString("\n\nMetadata:\n")
	fmt.Fprintf(&b, "- Document ID: %d\n", dc.DocumentID)
	fmt.Fprintf(&b, "- Organization ID: %d\n", dc.OrganizationID)
	fmt.Fprintf(&b, "- Organization Name: %s\n", valueOrNA(dc.OrganizationName))
	fmt.Fprintf(&b, "- Created: %s\n", dc.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Created By: %s\n", valueOrNA(dc.CreatedBy))
	return b.String()
}

// Prompt combines a formatted context block with the user's question.
func Prompt(contextBlock, question string) string {
	return contextBlock + "\n\nUser Question: " + question + "\n\n" +
		"Please answer the user's question based on the document context provided above. " +
		"Be concise, accurate, and helpful. If the answer cannot be determined from the " +
		"document context, please state that clearly."
}

func valueOrNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}
