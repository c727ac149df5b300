package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"luamend/pkg/ast"
	"luamend/pkg/driver"
)

const cliToolVersion = "luamend 0.1.0-dev"

var errConfigNotFound = errors.New("luamend.yml not found")

var configFileNames = []string{"luamend.yml", "luamend.yaml", ".luamend.yml"}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "process":
		return runProcess(args[1:])
	default:
		return runProcess(args)
	}
}

func runProcess(args []string) int {
	var configPath string
	var inPlace bool
	var files []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a path")
				return 1
			}
			i++
			configPath = args[i]
		case "--in-place", "-i":
			inPlace = true
		default:
			files = append(files, args[i])
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "luamend process requires at least one Lua source file")
		return 1
	}

	config, err := resolveConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	for _, file := range files {
		if err := processFile(config, file, inPlace); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
			return 1
		}
	}
	return 0
}

func resolveConfig(path string) (*driver.Config, error) {
	if path != "" {
		return driver.LoadConfig(path)
	}
	found, err := findConfigFile(".")
	switch {
	case errors.Is(err, errConfigNotFound):
		return driver.DefaultConfig(), nil
	case err != nil:
		return nil, err
	}
	return driver.LoadConfig(found)
}

func findConfigFile(dir string) (string, error) {
	for _, name := range configFileNames {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", errConfigNotFound
}

func processFile(config *driver.Config, path string, inPlace bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	block, err := config.Rewrite(path, string(source))
	if err != nil {
		return err
	}
	rendered := ast.Render(block)
	if inPlace {
		return os.WriteFile(path, []byte(rendered), 0o644)
	}
	_, err = fmt.Fprint(os.Stdout, rendered)
	return err
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  luamend process [--config path] [--in-place] <file.lua> [...]
  luamend version
  luamend help

Virtually executes Lua sources and rewrites the code it can resolve into
literals, dropping calls whose results and effects it fully computed.

Without --in-place the processed source is written to stdout. When no
--config is given, luamend.yml is looked up in the current directory and
built-in defaults apply if it is absent.`)
}
