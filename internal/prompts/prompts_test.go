package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveReference(t *testing.T) {
	text, ok := ResolveReference(Ref(PromptSystem))
	if !ok || text != "You are helpful assistant. Do what the user says." {
		t.Fatalf("unexpected system prompt ok=%v text=%q", ok, text)
	}
	if _, ok := ResolveReference("@internal/prompts/"); ok {
		t.Fatalf("expected empty name to be rejected")
	}
	if _, ok := ResolveReference("plain text"); ok {
		t.Fatalf("expected plain text not to resolve as reference")
	}
}

func TestResolve(t *testing.T) {
	got, err := Resolve("  Be brief.  ")
	if err != nil || got != "  Be brief.  " {
		t.Fatalf("plain text should pass through, got %q err=%v", got, err)
	}

	got, err = Resolve(Ref(PromptViewPrompt))
	if err != nil || got != "Return the result of this query." {
		t.Fatalf("unexpected view prompt %q err=%v", got, err)
	}

	_, err = Resolve("@internal/prompts/missing")
	var unknown *UnknownPromptError
	if !errors.As(err, &unknown) || unknown.Ref != "@internal/prompts/missing" {
		t.Fatalf("expected UnknownPromptError, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "system.md")
	if err := os.WriteFile(path, []byte("\nFrom file.\n"), 0o644); err != nil {
		t.Fatalf("write prompt: %v", err)
	}
	got, err = Resolve("@file:" + path)
	if err != nil || got != "From file." {
		t.Fatalf("unexpected file prompt %q err=%v", got, err)
	}
	if _, err := Resolve("@file:" + filepath.Join(t.TempDir(), "none.md")); err == nil {
		t.Fatalf("expected error for missing prompt file")
	}
}
