// Package config loads export settings from TOML or YAML files.
// Precedence is defaults, then file, then whatever the caller applies
// afterwards (CLI flags), followed by Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/nodeadmin/hpo-parser/enricher"
	"github.com/nodeadmin/hpo-parser/source"
)

// Output formats.
const (
	FormatJSONL  = "jsonl"
	FormatJSON   = "json"
	FormatSQLite = "sqlite"
	FormatBadger = "badger"
)

// Config is the full export configuration.
type Config struct {
	DataDir           string   `toml:"data_dir" yaml:"data_dir" validate:"required"`
	OntologyURL       string   `toml:"ontology_url" yaml:"ontology_url" validate:"required"`
	OntologyFormat    string   `toml:"ontology_format" yaml:"ontology_format" validate:"omitempty,oneof=obo owl"`
	Namespace         string   `toml:"namespace" yaml:"namespace" validate:"required,obonamespace"`
	KeepObsolete      bool     `toml:"keep_obsolete" yaml:"keep_obsolete"`
	RelationshipEdges bool     `toml:"relationship_edges" yaml:"relationship_edges"`
	FetchTimeout      Duration `toml:"fetch_timeout" yaml:"fetch_timeout"`
	MetricsTextfile   string   `toml:"metrics_textfile" yaml:"metrics_textfile"`

	Output Output `toml:"output" yaml:"output"`
	Log    Log    `toml:"log" yaml:"log"`
}

// Output selects the sink.
type Output struct {
	Format string `toml:"format" yaml:"format" validate:"oneof=jsonl json sqlite badger"`
	Path   string `toml:"path" yaml:"path"`
	Pretty bool   `toml:"pretty" yaml:"pretty"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `toml:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" yaml:"format" validate:"oneof=text json"`
}

// Duration accepts Go duration strings such as "30s" in config files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		OntologyURL: source.DefaultURL,
		Namespace:   enricher.DefaultNamespace,
		Output: Output{
			Format: FormatJSONL,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns Default overlaid with the file at path. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("obonamespace", validateNamespace)
}

// validateNamespace requires an OBO id prefix such as "HP:".
func validateNamespace(fl validator.FieldLevel) bool {
	ns := fl.Field().String()
	return len(ns) > 1 && strings.HasSuffix(ns, ":") && !strings.ContainsAny(ns, " \t")
}

// Validate checks field constraints and the output path requirement of
// the database sinks.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Output.Format {
	case FormatSQLite, FormatBadger:
		if c.Output.Path == "" || c.Output.Path == "-" {
			return fmt.Errorf("invalid config: output.path is required for %s output", c.Output.Format)
		}
	}
	return nil
}
