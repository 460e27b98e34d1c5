// Package config loads the sigc configuration file.
//
// The file is YAML:
//
//	workers: 4
//	context_types: [Python, Vm]
//	log_level: info
//	format: text
//	fail_on_deprecation: false
//
// Fields left out keep their defaults. Values are validated after decoding;
// a bad file yields an *errors.Error in the config phase.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/callspec/assembler"
	"github.com/wippyai/callspec/errors"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "sigc.yaml"

// Config holds the CLI settings.
type Config struct {
	// ContextTypes is the closed set of context-handle type names. A
	// path-qualified entry such as pyo3::Python matches by its last segment.
	ContextTypes []string `yaml:"context_types" validate:"omitempty,dive,required,excludesall=<>&*"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Format selects the dump output: text, json or yaml.
	Format string `yaml:"format" validate:"oneof=text json yaml"`

	// Workers bounds parallel assembly; 0 means GOMAXPROCS.
	Workers int `yaml:"workers" validate:"gte=0,lte=1024"`

	// FailOnDeprecation makes check fail when any declaration uses a
	// deprecated spelling.
	FailOnDeprecation bool `yaml:"fail_on_deprecation"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ContextTypes: append([]string(nil), assembler.DefaultContextTypes...),
		LogLevel:     "info",
		Format:       "text",
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "decode config")
	}
	if len(cfg.ContextTypes) == 0 {
		cfg.ContextTypes = append([]string(nil), assembler.DefaultContextTypes...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses path. An empty path tries DefaultFile and falls
// back to Default when it does not exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && stderrors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "validate config")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.InvalidInput(errors.PhaseConfig, strings.Join(msgs, "; "))
}

var yamlNames = map[string]string{
	"ContextTypes": "context_types",
	"LogLevel":     "log_level",
	"Format":       "format",
	"Workers":      "workers",
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.StructField()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if y, ok := yamlNames[name]; ok {
		name = y
	}
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", name, fe.Param(), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s out of range: %v", name, fe.Value())
	case "required":
		return fmt.Sprintf("%s entries must not be empty", name)
	case "excludesall":
		return fmt.Sprintf("%s entry %q is not a bare type name", name, fe.Value())
	}
	return fmt.Sprintf("%s failed %s", name, fe.Tag())
}
