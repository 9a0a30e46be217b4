package backend

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"silica/bit"
	"silica/internal/diag"
	"silica/rtl"
)

func buildBlinker(m *rtl.Module) {
	state := m.Reg(bit.Const(1, 0)).Named("state")
	state.Assign(state.Val().Not())
	m.Output("led", state.Val())
}

func TestEmitVerilogWritesModule(t *testing.T) {
	dir := t.TempDir()
	res, err := EmitVerilog("blinker", dir, buildBlinker)
	if err != nil {
		t.Fatalf("EmitVerilog failed: %v", err)
	}
	if res.MainPath != filepath.Join(dir, "blinker.v") {
		t.Fatalf("unexpected main path %s", res.MainPath)
	}
	if len(res.AuxPaths) != 0 {
		t.Fatalf("expected no aux files, got %v", res.AuxPaths)
	}
	data, err := os.ReadFile(res.MainPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(data)
	for _, want := range []string{"module blinker(", "output wire led", "endmodule"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
}

func TestEmitVerilogTopWritesScaffold(t *testing.T) {
	dir := t.TempDir()
	res, err := EmitVerilogTop("blinker", dir, buildBlinker)
	if err != nil {
		t.Fatalf("EmitVerilogTop failed: %v", err)
	}
	wantAux := []string{
		filepath.Join(dir, "blinker.cpp"),
		filepath.Join(dir, "blinker.mk"),
		filepath.Join(dir, "Makefile"),
		filepath.Join(dir, "blinker.manifest.yaml"),
	}
	if diff := cmp.Diff(wantAux, res.AuxPaths); diff != "" {
		t.Fatalf("aux files differ (-want +got):\n%s", diff)
	}

	harness, err := os.ReadFile(wantAux[0])
	if err != nil {
		t.Fatalf("read harness: %v", err)
	}
	for _, want := range []string{"Vblinker", "main_time", "gotFinish", "top->clock = 0;", "top->clock = 1;", "top->reset = 1;"} {
		if !strings.Contains(string(harness), want) {
			t.Fatalf("harness missing %q:\n%s", want, harness)
		}
	}

	mk, err := os.ReadFile(wantAux[1])
	if err != nil {
		t.Fatalf("read mk: %v", err)
	}
	if !strings.Contains(string(mk), "SILICA_ROOT") {
		t.Fatalf("module makefile should consult SILICA_ROOT:\n%s", mk)
	}

	var manifest Manifest
	raw, err := os.ReadFile(wantAux[3])
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if manifest.Module != "blinker" || manifest.Nets == 0 {
		t.Fatalf("unexpected manifest: %+v", manifest)
	}
	wantFiles := []string{"blinker.v", "blinker.cpp", "blinker.mk", "Makefile"}
	if diff := cmp.Diff(wantFiles, manifest.Files); diff != "" {
		t.Fatalf("manifest files differ (-want +got):\n%s", diff)
	}
}

func TestEmitReportsElaborationErrors(t *testing.T) {
	_, err := EmitVerilog("bad", t.TempDir(), func(m *rtl.Module) {
		bit.Const(8, 1).Add(bit.Const(4, 1))
	})
	if err == nil {
		t.Fatalf("expected width mismatch to surface as an error")
	}
	if kind, ok := diag.KindOf(err); !ok || kind != diag.WidthMismatch {
		t.Fatalf("expected width mismatch kind, got %v", err)
	}
}

func TestEmitDeterministicBytes(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	if _, err := EmitVerilog("blinker", dirA, buildBlinker); err != nil {
		t.Fatalf("first emit: %v", err)
	}
	if _, err := EmitVerilog("blinker", dirB, buildBlinker); err != nil {
		t.Fatalf("second emit: %v", err)
	}
	a, _ := os.ReadFile(filepath.Join(dirA, "blinker.v"))
	b, _ := os.ReadFile(filepath.Join(dirB, "blinker.v"))
	if string(a) != string(b) {
		t.Fatalf("emissions differ between runs")
	}
}
