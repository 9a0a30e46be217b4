// Package backend turns an elaborated module into files on disk: the
// Verilog itself, and optionally a Verilator harness, per-module
// makefile, parent Makefile and a manifest describing the bundle.
package backend

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"silica/internal/diag"
	"silica/internal/netlist"
	"silica/internal/verilog"
	"silica/rtl"
)

// Options configures emission.
type Options struct {
	// Dir receives the emitted files; created if missing.
	Dir string
	// Top additionally emits the simulator harness, makefiles and the
	// manifest.
	Top bool
	// PrimDirEnv names the environment variable the generated makefile
	// reads to locate the Verilog primitive library. Defaults to
	// SILICA_ROOT.
	PrimDirEnv string
}

// Result lists the artifacts produced during emission.
type Result struct {
	MainPath string
	AuxPaths []string
}

// Manifest is the YAML description of one emitted bundle.
type Manifest struct {
	Module string   `yaml:"module"`
	Nets   int      `yaml:"nets"`
	Files  []string `yaml:"files"`
}

// EmitVerilog elaborates the circuit described by build into a fresh
// module named name and writes <dir>/<name>.v.
func EmitVerilog(name, dir string, build func(*rtl.Module)) (Result, error) {
	return emit(name, build, Options{Dir: dir})
}

// EmitVerilogTop is EmitVerilog plus the simulation scaffold: a
// Verilator C++ harness, a per-module .mk, a parent Makefile, and the
// bundle manifest.
func EmitVerilogTop(name, dir string, build func(*rtl.Module)) (Result, error) {
	return emit(name, build, Options{Dir: dir, Top: true})
}

// Emit runs build inside a fresh elaboration and writes the artifacts
// selected by opts.
func Emit(name string, build func(*rtl.Module), opts Options) (Result, error) {
	return emit(name, build, opts)
}

func emit(name string, build func(*rtl.Module), opts Options) (res Result, err error) {
	defer diag.Recover(&err)

	nl, err := elaborate(name, build)
	if err != nil {
		return Result{}, err
	}
	if err := netlist.Check(nl); err != nil {
		return Result{}, errors.Wrap(err, "backend: netlist check")
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return Result{}, diag.Wrap(diag.IO, err, "backend: create output dir")
		}
	}

	var text bytes.Buffer
	if err := verilog.Print(&text, name, nl); err != nil {
		return Result{}, diag.Wrap(diag.IO, err, "backend: render verilog")
	}

	res.MainPath = filepath.Join(opts.Dir, name+".v")
	if err := writeFile(res.MainPath, text.Bytes()); err != nil {
		return Result{}, err
	}

	if !opts.Top {
		return res, nil
	}

	primEnv := opts.PrimDirEnv
	if primEnv == "" {
		primEnv = "SILICA_ROOT"
	}
	data := scaffoldData{Module: name, PrimDirEnv: primEnv}
	aux := []struct {
		suffix string
		render func(scaffoldData) ([]byte, error)
	}{
		{name + ".cpp", renderHarness},
		{name + ".mk", renderModuleMk},
		{"Makefile", renderMakefile},
	}
	for _, a := range aux {
		path := filepath.Join(opts.Dir, a.suffix)
		body, err := a.render(data)
		if err != nil {
			return Result{}, diag.Wrap(diag.IO, err, "backend: render "+a.suffix)
		}
		if err := writeFile(path, body); err != nil {
			return Result{}, err
		}
		res.AuxPaths = append(res.AuxPaths, path)
	}

	manifest := Manifest{
		Module: name,
		Nets:   len(nl.Nets),
		Files:  append([]string{filepath.Base(res.MainPath)}, basenames(res.AuxPaths)...),
	}
	manifestPath := filepath.Join(opts.Dir, name+".manifest.yaml")
	body, err := yaml.Marshal(&manifest)
	if err != nil {
		return Result{}, diag.Wrap(diag.IO, err, "backend: marshal manifest")
	}
	if err := writeFile(manifestPath, body); err != nil {
		return Result{}, err
	}
	res.AuxPaths = append(res.AuxPaths, manifestPath)
	return res, nil
}

func elaborate(name string, build func(*rtl.Module)) (*netlist.Netlist, error) {
	if build == nil {
		return nil, errors.New("backend: nil build function")
	}
	m := rtl.New(name)
	build(m)
	nl, err := m.Netlist()
	if err != nil {
		return nil, errors.Wrap(err, "backend: elaborate "+name)
	}
	return nl, nil
}

func writeFile(path string, body []byte) error {
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return diag.Wrap(diag.IO, err, "backend: write "+path)
	}
	return nil
}

func basenames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
