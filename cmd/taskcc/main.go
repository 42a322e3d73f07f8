// =============================================================================
// taskcc - Task-parallel kernel transformer
// =============================================================================
//
// This tool lowers a task-parallel C++ kernel into synthesis-ready source
// plus a machine-readable description of its task graph.
//
// THE PIPELINE:
//   1. Tree-sitter parses the translation unit into a syntax tree
//   2. The classifier maps every parameter and local to a dialect category
//   3. The graph builder expands invocations into per-replica instances and
//      checks channel connectivity
//   4. CUE validates the metadata contract (crash on schema mismatch)
//   5. OPA evaluates structural policy rules against the extracted graph
//   6. The rewriter emits the transformed source and one JSON document per
//      upper-level task
//
// WHEN INVESTIGATING BAD OUTPUT:
//   Start at the beginning of the pipeline, not the end!
//   Grammar issues -> classification issues -> graph issues
// =============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/hls-tools/taskcc/internal/config"
	"github.com/hls-tools/taskcc/internal/transform"
)

func main() {
	args := os.Args[1:]
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	if args[0] == "init" {
		runInit()
		return
	}
	if args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return
	}

	var (
		verbose    bool
		configPath string
		top        string
		outDir     string
		files      []string
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-v", "--verbose":
			verbose = true
		case "-c", "--config":
			i++
			if i >= len(args) {
				printUsage()
				os.Exit(1)
			}
			configPath = args[i]
		case "-top", "--top":
			i++
			if i >= len(args) {
				printUsage()
				os.Exit(1)
			}
			top = args[i]
		case "-o", "--output":
			i++
			if i >= len(args) {
				printUsage()
				os.Exit(1)
			}
			outDir = args[i]
		default:
			files = append(files, args[i])
		}
	}
	if len(files) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg := loadConfig(configPath)
	if top != "" {
		cfg.Top = top
	}
	if outDir != "" {
		cfg.OutputDir = outDir
	}

	t := transform.New(cfg)
	t.Verbose = verbose
	for _, file := range files {
		if err := t.Run(file); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: taskcc [command] [options] <file.cpp>...

Commands:
  init              Create a taskcc.json configuration file
  <file.cpp>        Transform the given kernel source files

Options:
  --top <name>      Name of the top-level task
  -o, --output      Output directory for generated files
  -v, --verbose     Enable verbose output
  -c, --config      Specify config file: taskcc -c config.json <file.cpp>
  -h, --help        Show this help message

Configuration:
  taskcc looks for configuration in:
    1. ./taskcc.json
    2. ./.taskcc.json
    3. ~/.config/taskcc/config.json

  Run 'taskcc init' to create a default configuration file.`)
}

func runInit() {
	configPath := "taskcc.json"

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file %s already exists. Overwrite? [y/N]: ", configPath)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - The top-level task name")
	fmt.Println("  - The output directory")
	fmt.Println("  - Policy rule severities")
}

func loadConfig(path string) *config.Config {
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config %s: %v\n", path, err)
			os.Exit(1)
		}
		return cfg
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Warning: Could not load config: %v (using defaults)\n", err)
		return config.DefaultConfig()
	}
	return cfg
}
