// Package driver loads the YAML configuration that controls a virtual
// execution run and assembles engines from it.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"luamend/pkg/ast"
	"luamend/pkg/engine"
	"luamend/pkg/luaparse"
)

// Config represents the parsed contents of a luamend.yml file.
type Config struct {
	Path string

	// Includes lists the globals the engine is allowed to model, such as
	// "math" or "tonumber". Anything not listed stays unknown.
	Includes []string

	// ThrowawayVariable receives the side-effecting arguments of removed
	// calls.
	ThrowawayVariable string

	// MaxLoopIterations bounds loop unrolling.
	MaxLoopIterations int

	// PerformMutations enables in-place rewriting of processed chunks.
	PerformMutations bool
}

const (
	defaultThrowawayVariable = "_"
	defaultMaxLoopIterations = 500
)

// ValidationError aggregates configuration validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// DefaultConfig returns the configuration used when no file is present:
// mutations on, no globals modeled.
func DefaultConfig() *Config {
	return configFile{}.toConfig("")
}

// LoadConfig parses a configuration file from disk, returning a validated
// config with defaults filled in.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()
	return ParseConfig(file, absPath)
}

// ParseConfig parses a configuration document from a reader. The path only
// identifies the source in errors.
func ParseConfig(r io.Reader, path string) (*Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			raw = configFile{}
		} else {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	config := raw.toConfig(path)
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (c *Config) validate() error {
	var errs ValidationError

	seen := make(map[string]struct{}, len(c.Includes))
	for i, name := range c.Includes {
		if name == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("includes[%d] must be a non-empty string", i))
			continue
		}
		if _, ok := engine.Builtin(name); !ok {
			errs.Issues = append(errs.Issues, fmt.Sprintf("includes[%d]: %q is not a library the engine can model", i, name))
		}
		if _, duplicate := seen[name]; duplicate {
			errs.Issues = append(errs.Issues, fmt.Sprintf("includes[%d]: %q listed twice", i, name))
		}
		seen[name] = struct{}{}
	}

	if !identifierPattern.MatchString(c.ThrowawayVariable) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("throwaway_variable %q is not a valid identifier", c.ThrowawayVariable))
	}
	if c.MaxLoopIterations <= 0 {
		errs.Issues = append(errs.Issues, "max_loop_iterations must be positive")
	}

	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// Engine assembles a fresh engine configured by this file. Each processed
// chunk needs its own engine, so call this once per chunk.
func (c *Config) Engine() *engine.Engine {
	e := engine.New().
		WithMaxLoopIterations(c.MaxLoopIterations).
		WithThrowawayName(c.ThrowawayVariable)
	if c.PerformMutations {
		e.PerformMutations()
	}
	for _, name := range c.Includes {
		if v, ok := engine.Builtin(name); ok {
			e.WithGlobalValue(name, v)
		}
	}
	return e
}

// Rewrite parses a chunk, virtually executes it, and returns the processed
// block. With mutations enabled the block carries the simplifications.
func (c *Config) Rewrite(name, source string) (*ast.Block, error) {
	block, err := luaparse.Parse(name, source)
	if err != nil {
		return nil, err
	}
	c.Engine().EvaluateChunk(block)
	return block, nil
}

type configFile struct {
	Includes          stringList `yaml:"includes"`
	ThrowawayVariable string     `yaml:"throwaway_variable"`
	MaxLoopIterations int        `yaml:"max_loop_iterations"`
	PerformMutations  *bool      `yaml:"perform_mutations"`
}

func (cf configFile) toConfig(path string) *Config {
	config := &Config{
		Path:              path,
		Includes:          cf.Includes.Clone(),
		ThrowawayVariable: strings.TrimSpace(cf.ThrowawayVariable),
		MaxLoopIterations: cf.MaxLoopIterations,
		PerformMutations:  true,
	}
	if cf.PerformMutations != nil {
		config.PerformMutations = *cf.PerformMutations
	}
	if config.ThrowawayVariable == "" {
		config.ThrowawayVariable = defaultThrowawayVariable
	}
	if config.MaxLoopIterations == 0 {
		config.MaxLoopIterations = defaultMaxLoopIterations
	}
	return config
}

type stringList []string

func (l stringList) Clone() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, item := range l {
		out = append(out, strings.TrimSpace(item))
	}
	return out
}

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			items = append(items, strings.TrimSpace(str))
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("config: expected string or sequence for list but found %s", value.ShortTag())
	}
}
