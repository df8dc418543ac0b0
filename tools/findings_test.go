package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/lexandro/secretscan-mcp/index"
)

func newFindingIndex() *index.FindingIndex {
	fx := index.NewFindingIndex()
	fx.Replace(testEntries())
	return fx
}

func Test_FindingsHandler_All(t *testing.T) {
	h := &FindingsHandler{FindingIndex: newFindingIndex(), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, FindingsArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Found 3 findings") {
		t.Errorf("expected all findings, got:\n%s", text)
	}
	// app/ sorts before deploy/
	if strings.Index(text, "app/settings.yaml") > strings.Index(text, "deploy/prod.env") {
		t.Errorf("expected path order, got:\n%s", text)
	}
}

func Test_FindingsHandler_Filters(t *testing.T) {
	h := &FindingsHandler{FindingIndex: newFindingIndex(), Logger: testLogger()}

	result, _, _ := h.Handle(context.Background(), nil, FindingsArgs{PathGlob: "deploy/**", MinScore: 2})
	text := resultText(t, result)
	if !strings.Contains(text, "Found 1 findings") || !strings.Contains(text, "[a1]") {
		t.Errorf("expected only a1, got:\n%s", text)
	}

	result, _, _ = h.Handle(context.Background(), nil, FindingsArgs{Tag: "JWT"})
	text = resultText(t, result)
	if !strings.Contains(text, "[b1]") || strings.Contains(text, "[a1]") {
		t.Errorf("expected only b1, got:\n%s", text)
	}
}

func Test_FindingsHandler_InvalidGlob(t *testing.T) {
	h := &FindingsHandler{FindingIndex: newFindingIndex(), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, FindingsArgs{PathGlob: "[unclosed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for invalid glob")
	}
}

func Test_ShowHandler(t *testing.T) {
	h := &ShowHandler{FindingIndex: newFindingIndex(), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, ShowArgs{ID: "b1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}
	text := resultText(t, result)
	if !strings.Contains(text, "── b1 ──") || !strings.Contains(text, "app/settings.yaml") {
		t.Errorf("unexpected output:\n%s", text)
	}
}

func Test_ShowHandler_Errors(t *testing.T) {
	h := &ShowHandler{FindingIndex: newFindingIndex(), Logger: testLogger()}

	result, _, _ := h.Handle(context.Background(), nil, ShowArgs{})
	if !result.IsError || !strings.Contains(resultText(t, result), "id parameter is required") {
		t.Error("expected error for empty id")
	}

	result, _, _ = h.Handle(context.Background(), nil, ShowArgs{ID: "missing"})
	if !result.IsError || !strings.Contains(resultText(t, result), "Finding not found") {
		t.Error("expected error for unknown id")
	}
}

func Test_SearchHandler(t *testing.T) {
	ci, err := index.NewContextIndex()
	if err != nil {
		t.Fatalf("failed to create context index: %v", err)
	}
	t.Cleanup(func() { ci.Close() })

	fx := newFindingIndex()
	if err := ci.IndexEntries(fx.All()); err != nil {
		t.Fatalf("failed to index entries: %v", err)
	}
	h := &SearchHandler{ContextIndex: ci, FindingIndex: fx, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "billing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "[a1]") || strings.Contains(text, "[b1]") {
		t.Errorf("expected only a1, got:\n%s", text)
	}

	result, _, _ = h.Handle(context.Background(), nil, SearchArgs{Query: "nothing-like-this"})
	if got := resultText(t, result); got != "No matches found." {
		t.Errorf("expected no matches, got:\n%s", got)
	}

	result, _, _ = h.Handle(context.Background(), nil, SearchArgs{})
	if !result.IsError {
		t.Error("expected error for empty query")
	}
}

func Test_FilesHandler(t *testing.T) {
	fi := index.NewFileIndex()
	fi.AddFile(&index.ScannedFile{RelativePath: "deploy/prod.env", Class: "Env", SizeBytes: 10, FindingCount: 2})
	fi.AddFile(&index.ScannedFile{RelativePath: "deploy/notes.md", Class: "Docs", SizeBytes: 10})
	h := &FilesHandler{FileIndex: fi, Logger: testLogger()}

	result, _, _ := h.Handle(context.Background(), nil, FilesArgs{Pattern: "deploy/*"})
	text := resultText(t, result)
	if !strings.Contains(text, "Found 2 files") {
		t.Errorf("expected 2 files, got:\n%s", text)
	}

	result, _, _ = h.Handle(context.Background(), nil, FilesArgs{Pattern: "**", WithFindings: true})
	text = resultText(t, result)
	if !strings.Contains(text, "Found 1 files") || strings.Contains(text, "notes.md") {
		t.Errorf("expected only files with findings, got:\n%s", text)
	}

	result, _, _ = h.Handle(context.Background(), nil, FilesArgs{})
	if !result.IsError {
		t.Error("expected error for empty pattern")
	}
}
