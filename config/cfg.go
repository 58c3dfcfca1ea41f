// Package config defines program configuration, logging and debug reporting
// setup. Configuration is YAML superimposed on an embedded template with
// sane defaults.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"github.com/gstvribs/ng-packagr/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// EnginesConfig pins preprocessor compiler locations. Empty values fall
	// back to PATH lookup; dart_sass_path points at a locally installed
	// dart-sass binary and is preferred over the default sass when present.
	EnginesConfig struct {
		DartSassPath string `yaml:"dart_sass_path" sanitize:"path_clean" validate:"omitempty,filepath"`
		SassPath     string `yaml:"sass_path" sanitize:"path_clean" validate:"omitempty,filepath"`
		LesscPath    string `yaml:"lessc_path" sanitize:"path_clean" validate:"omitempty,filepath"`
		StylusPath   string `yaml:"stylus_path" sanitize:"path_clean" validate:"omitempty,filepath"`
	}

	CompileConfig struct {
		OutputNameTemplate string            `yaml:"output_name_template" validate:"required"`
		Browserslist       []string          `yaml:"browserslist"`
		CSSURL             common.CSSURLMode `yaml:"css_url"`
		IncludePaths       []string          `yaml:"include_paths"`
		SourceCharset      string            `yaml:"source_charset"`
		Engines            EnginesConfig     `yaml:"engines"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Compile   CompileConfig  `yaml:"compile"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to
// provide sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a
// byte slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

// Dump serializes active configuration back to YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
