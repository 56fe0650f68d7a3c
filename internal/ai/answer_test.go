package ai

import (
	"strings"
	"testing"
)

func TestBuildAnswerMessages(t *testing.T) {
	messages := BuildAnswerMessages("report.pdf", "[Page 2] revenue grew", "What happened to revenue?")

	if len(messages) != 2 {
		t.Fatalf("expected the fixed two-message template, got %d messages", len(messages))
	}

	if messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", messages[0].Role)
	}
	if !strings.Contains(messages[0].Content, "PDF documents") {
		t.Errorf("system prompt missing role description: %q", messages[0].Content)
	}

	user := messages[1]
	if user.Role != "user" {
		t.Errorf("second message role = %q, want user", user.Role)
	}
	for _, want := range []string{
		"Context from PDF 'report.pdf':",
		"[Page 2] revenue grew",
		"Question: What happened to revenue?",
		"Answer based on the context above:",
	} {
		if !strings.Contains(user.Content, want) {
			t.Errorf("user message missing %q:\n%s", want, user.Content)
		}
	}
}
