package main

import (
	"io"
	"strings"
	"testing"
)

func TestRootCmd_RejectsNonPositiveWorkers(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"--workers", "0"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--workers") {
		t.Fatalf("expected --workers error, got %v", err)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := rootCmd()
	for _, name := range []string{"count", "workers", "probe", "dsn"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("missing flag --%s", name)
		}
	}
	if f := cmd.Flags().ShorthandLookup("n"); f == nil || f.Name != "count" {
		t.Fatalf("-n should alias --count")
	}
}
