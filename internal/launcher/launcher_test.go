package launcher

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveExternalFindsOnPath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "mytool")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	got, err := resolveExternal("mytool")
	if err != nil {
		t.Fatalf("resolveExternal returned error: %v", err)
	}
	if got != bin {
		t.Errorf("resolveExternal = %q, want %q", got, bin)
	}
}

func TestResolveExternalNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if _, err := resolveExternal("definitely-not-a-real-command"); err == nil {
		t.Fatal("expected an error for a missing command")
	}
}

func TestResolveExternalAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "tool")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := resolveExternal(bin)
	if err != nil {
		t.Fatalf("resolveExternal returned error: %v", err)
	}
	if got != bin {
		t.Errorf("resolveExternal = %q, want %q", got, bin)
	}
}

func TestFlatten(t *testing.T) {
	got := flatten([][]string{{"sort"}, {"uniq", "-c"}})
	want := []string{"sort", "uniq -c"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("flatten = %v, want %v", got, want)
	}
}

func TestIsReexecStage(t *testing.T) {
	argv, ok := IsReexecStage([]string{reexecArg, "jobs"})
	if !ok || len(argv) != 1 || argv[0] != "jobs" {
		t.Errorf("IsReexecStage = (%v, %v), want ([jobs], true)", argv, ok)
	}

	if _, ok := IsReexecStage([]string{"jobs"}); ok {
		t.Error("IsReexecStage should be false for a normal argv")
	}
	if _, ok := IsReexecStage(nil); ok {
		t.Error("IsReexecStage should be false for an empty argv")
	}
}
