package mcp

import (
	"strings"
	"testing"
	"time"
)

func sampleContext() DocumentContext {
	return DocumentContext{
		DocumentID:       7,
		Title:            "Spec",
		Content:          "Hello",
		OrganizationID:   1,
		OrganizationName: "Acme",
		CreatedBy:        "avery@example.com",
		CreatedAt:        time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestFormatIsDeterministic(t *testing.T) {
	first := Format(sampleContext())
	second := Format(sampleContext())
	if first != second {
		t.Fatal("expected byte-identical output for identical input")
	}
}

func TestFormatIncludesAllFields(t *testing.T) {
	out := Format(sampleContext())

	for _, want := range []string{
		"Title: Spec",
		"Hello",
		"- Document ID: 7",
		"- Organization ID: 1",
		"- Organization Name: Acme",
		"- Created: 2025-03-14T09:26:53Z",
		"- Created By: avery@example.com",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("formatted context missing %q:\n%s", want, out)
		}
	}
}

func TestFormatNormalizesTimezone(t *testing.T) {
	dc := sampleContext()
	zone := time.FixedZone("UTC+5", 5*3600)
	dc.CreatedAt = dc.CreatedAt.In(zone)

	if Format(dc) != Format(sampleContext()) {
		t.Fatal("expected identical output for the same instant in different zones")
	}
}

func TestFormatBlankMetadata(t *testing.T) {
	dc := sampleContext()
	dc.CreatedBy = ""
	dc.OrganizationName = "  "

	out := Format(dc)
	if !strings.Contains(out, "- Created By: N/A") {
		t.Fatalf("expected N/A for blank creator:\n%s", out)
	}
	if !strings.Contains(out, "- Organization Name: N/A") {
		t.Fatalf("expected N/A for blank organization name:\n%s", out)
	}
}

func TestPromptContainsContextAndQuestion(t *testing.T) {
	block := Format(sampleContext())
	prompt := Prompt(block, "What is this about?")

	if !strings.HasPrefix(prompt, block) {
		t.Fatal("expected prompt to start with the context block")
	}
	if !strings.Contains(prompt, "User Question: What is this about?") {
		t.Fatalf("expected question in prompt:\n%s", prompt)
	}
}
