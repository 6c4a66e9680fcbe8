package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/taskleash/internal/config"
	"gopkg.in/yaml.v3"
)

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: taskleash config <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  validate   Validate the configuration file")
	fmt.Fprintln(w, "  print      Print the effective configuration as YAML")
	fmt.Fprintln(w, "  init       Write the default configuration file")
}

func runConfig(args []string) int {
	if len(args) == 0 {
		printConfigUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "validate", "print", "init":
	case "help", "-h", "--help":
		printConfigUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n\n", args[0])
		printConfigUsage(os.Stderr)
		return 2
	}

	fs := flag.NewFlagSet("config "+args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/taskleash/config.yaml)")
	var force bool
	if args[0] == "init" {
		fs.BoolVar(&force, "force", false, "Overwrite an existing config file")
	}
	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if args[0] == "init" {
		written, err := config.Init(*path, force)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("Wrote %s\n", written)
		return 0
	}

	if *path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		*path = p
	}

	res, err := config.LoadFromPath(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if args[0] == "validate" {
		if res.File == "" {
			fmt.Printf("OK (no config file at %s, using defaults)\n", *path)
		} else {
			fmt.Printf("OK (%s)\n", res.File)
		}
		return 0
	}

	data, err := yaml.Marshal(res.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal config: %v\n", err)
		return 1
	}
	os.Stdout.Write(data)
	return 0
}
