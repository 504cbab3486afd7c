package instance

import (
	"strings"
	"testing"
)

func TestIDPrefersExplicitVariable(t *testing.T) {
	t.Setenv("CUPSHUP_INSTANCE_ID", "sweeper-a")
	t.Setenv("K_REVISION", "api-00012")
	if got := ID(); got != "sweeper-a" {
		t.Fatalf("expected sweeper-a got %q", got)
	}
}

func TestIDFallsBackToRevision(t *testing.T) {
	t.Setenv("CUPSHUP_INSTANCE_ID", "")
	t.Setenv("K_REVISION", "api-00012")
	if got := ID(); got != "api-00012" {
		t.Fatalf("expected revision got %q", got)
	}
}

func TestOwnerPrefixesInstance(t *testing.T) {
	t.Setenv("CUPSHUP_INSTANCE_ID", "sweeper-a")
	if got := Owner("tok"); !strings.HasPrefix(got, "sweeper-a:") {
		t.Fatalf("unexpected owner %q", got)
	}
}
