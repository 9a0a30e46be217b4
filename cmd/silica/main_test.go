package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListPrintsDesigns(t *testing.T) {
	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, name := range []string{"twosort", "counter", "queue", "factorial", "decode", "cpu"} {
		if !strings.Contains(out, name) {
			t.Fatalf("list output missing %s:\n%s", name, out)
		}
	}
}

func TestGenWritesVerilog(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "gen", "counter", "-o", dir)
	if err != nil {
		t.Fatalf("gen failed: %v", err)
	}
	path := filepath.Join(dir, "counter.v")
	if !strings.Contains(out, path) {
		t.Fatalf("expected %s in output:\n%s", path, out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("missing emitted file: %v", err)
	}
}

func TestGenTopWritesScaffold(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "gen", "twosort", "-o", dir, "--top"); err != nil {
		t.Fatalf("gen --top failed: %v", err)
	}
	for _, f := range []string{"twosort.v", "twosort.cpp", "twosort.mk", "Makefile", "twosort.manifest.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Fatalf("missing %s: %v", f, err)
		}
	}
}

func TestGenUnknownDesign(t *testing.T) {
	if _, err := execute(t, "gen", "nonesuch"); err == nil {
		t.Fatalf("expected error for unknown design")
	}
}

func TestGenFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "project.yaml")
	body := "designs:\n" +
		"  - name: counter\n" +
		"    dir: " + filepath.Join(dir, "out") + "\n" +
		"    top: true\n"
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := execute(t, "gen", "--config", cfg); err != nil {
		t.Fatalf("gen --config failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "counter.v")); err != nil {
		t.Fatalf("missing generated verilog: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "counter.manifest.yaml")); err != nil {
		t.Fatalf("missing manifest: %v", err)
	}
}
