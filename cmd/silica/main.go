// Command silica generates Verilog (and optionally a simulation
// scaffold) for the built-in example designs.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"silica/backend"
	"silica/examples"
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "silica:", err)
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "silica",
		Short:         "silica emits Verilog for circuits described with the silica HDL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.AddCommand(newListCmd(out))
	rootCmd.AddCommand(newGenCmd(out))
	return rootCmd
}

func newListCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in example designs",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range examples.All() {
				fmt.Fprintf(out, "%-10s %s\n", d.Name, d.Description)
			}
			return nil
		},
	}
}

// projectConfig is the YAML schema accepted by gen --config.
type projectConfig struct {
	Designs []struct {
		Name string `yaml:"name"`
		Dir  string `yaml:"dir"`
		Top  bool   `yaml:"top"`
	} `yaml:"designs"`
}

func newGenCmd(out io.Writer) *cobra.Command {
	var (
		outputDir  string
		top        bool
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "gen [design...]",
		Short: "Elaborate designs and write their Verilog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				return genFromConfig(out, configPath)
			}
			if len(args) == 0 {
				return errors.New("gen requires design names or --config")
			}
			for _, name := range args {
				if err := generate(out, name, outputDir, top); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&top, "top", false, "also emit the simulator harness and makefiles")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML project file naming designs to generate")
	return cmd
}

func genFromConfig(out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}
	var cfg projectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return errors.Wrap(err, "parse config")
	}
	if len(cfg.Designs) == 0 {
		return errors.Errorf("config %s names no designs", path)
	}
	for _, d := range cfg.Designs {
		dir := d.Dir
		if dir == "" {
			dir = "."
		}
		if err := generate(out, d.Name, dir, d.Top); err != nil {
			return err
		}
	}
	return nil
}

func generate(out io.Writer, name, dir string, top bool) error {
	design, ok := examples.Lookup(name)
	if !ok {
		return errors.Errorf("unknown design: %s", name)
	}
	res, err := backend.Emit(design.Name, design.Build, backend.Options{Dir: dir, Top: top})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "wrote", res.MainPath)
	for _, aux := range res.AuxPaths {
		fmt.Fprintln(out, "wrote", aux)
	}
	return nil
}
