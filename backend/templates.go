package backend

import (
	"bytes"
	"text/template"
)

type scaffoldData struct {
	Module     string
	PrimDirEnv string
}

// The harness ticks the clock low then high each step, bumps a 64-bit
// timestamp, and leaves when the design executes $finish.
var harnessTemplate = template.Must(template.New("harness").Parse(
	`// Verilator harness for {{.Module}}. Generated file, do not edit.
#include <verilated.h>
#include "V{{.Module}}.h"

V{{.Module}} *top;
vluint64_t main_time = 0;

double sc_time_stamp() {
  return main_time;
}

int main(int argc, char** argv) {
  Verilated::commandArgs(argc, argv);
  top = new V{{.Module}};
  // Hold synchronous reset over the first cycles so registers latch
  // their initial values.
  top->reset = 1;
  while (!Verilated::gotFinish()) {
    top->clock = 0;
    top->eval();
    top->clock = 1;
    top->eval();
    main_time++;
    if (main_time > 1) {
      top->reset = 0;
    }
  }
  top->final();
  delete top;
  return 0;
}
`))

var moduleMkTemplate = template.Must(template.New("mk").Parse(
	`# Generated file, do not edit.
{{.PrimDirEnv}} ?= $(error please set {{.PrimDirEnv}})

{{.Module}}: {{.Module}}.v {{.Module}}.cpp
	verilator -cc {{.Module}}.v -exe {{.Module}}.cpp -o {{.Module}} \
	  -y $({{.PrimDirEnv}})/verilog -Wno-fatal \
	  --x-assign unique --x-initial unique
	make -C obj_dir -j -f V{{.Module}}.mk {{.Module}}
	cp obj_dir/{{.Module}} .

.PHONY: clean
clean:
	rm -rf obj_dir {{.Module}}
`))

var makefileTemplate = template.Must(template.New("makefile").Parse(
	`# Generated file, do not edit.
all:
	$(MAKE) -f {{.Module}}.mk

clean:
	$(MAKE) -f {{.Module}}.mk clean
`))

func renderHarness(data scaffoldData) ([]byte, error)  { return render(harnessTemplate, data) }
func renderModuleMk(data scaffoldData) ([]byte, error) { return render(moduleMkTemplate, data) }
func renderMakefile(data scaffoldData) ([]byte, error) { return render(makefileTemplate, data) }

func render(t *template.Template, data scaffoldData) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
