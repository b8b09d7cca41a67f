package prompt

import (
	"strings"
	"testing"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

func TestRenderClassifierListsDepartments(t *testing.T) {
	t.Parallel()

	out, err := RenderClassifier(contractx.KnownDepartments())
	if err != nil {
		t.Fatalf("RenderClassifier() error = %v", err)
	}
	for _, dep := range contractx.KnownDepartments() {
		if !strings.Contains(out, dep) {
			t.Fatalf("prompt is missing department %q:\n%s", dep, out)
		}
	}
	if !strings.Contains(out, `"intents"`) {
		t.Fatalf("prompt must pin the JSON shape:\n%s", out)
	}
}

func TestRenderSummaryDefaultsSentenceCap(t *testing.T) {
	t.Parallel()

	out, err := RenderSummary(0)
	if err != nil {
		t.Fatalf("RenderSummary() error = %v", err)
	}
	if !strings.Contains(out, "5") {
		t.Fatalf("expected the default sentence cap rendered:\n%s", out)
	}

	out, err = RenderSummary(3)
	if err != nil {
		t.Fatalf("RenderSummary() error = %v", err)
	}
	if !strings.Contains(out, "3") {
		t.Fatalf("expected the explicit sentence cap rendered:\n%s", out)
	}
}
