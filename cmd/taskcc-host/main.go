// taskcc-host generates the host-side dispatch source for a transformed
// kernel: the top-level task's body is replaced with glue that locates a
// bitstream through the environment and drives the accelerator, so the same
// translation unit links into the host program.
package main

import (
	"fmt"
	"os"

	"github.com/hls-tools/taskcc/internal/config"
	"github.com/hls-tools/taskcc/internal/transform"
)

func main() {
	args := os.Args[1:]

	var (
		top     string
		outPath string
		files   []string
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--help", "help":
			printUsage()
			return
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
			outPath = args[i]
		default:
			files = append(files, args[i])
		}
	}
	if len(files) != 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if top != "" {
		cfg.Top = top
	}

	content, err := os.ReadFile(files[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	t := transform.New(cfg)
	glue, err := t.HostGlue(files[0], content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if outPath == "" {
		os.Stdout.Write(glue)
		return
	}
	if err := os.WriteFile(outPath, glue, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: taskcc-host [options] <file.cpp>

Options:
  --top <name>      Name of the top-level task (overrides config)
  -o, --output      Write to a file instead of stdout
  -h, --help        Show this help message`)
}
