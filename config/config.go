// Package config loads the YAML configuration of an application using the
// mapper: the Neo4j connection, mapping defaults and logging.
//
// Values of the form ${NAME} are replaced by environment variables before
// the document is parsed, so secrets need not be written to the file:
//
//	neo4j:
//	  uri: neo4j://localhost:7687
//	  username: neo4j
//	  password: ${NEO4J_PASSWORD}
//	mapping:
//	  load_depth: 2
//	log:
//	  level: debug
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/ogm/convert"
	"github.com/syssam/ogm/metadata"
)

// Config is the root configuration document.
type Config struct {
	Neo4j   Neo4j   `yaml:"neo4j"`
	Mapping Mapping `yaml:"mapping"`
	Log     Log     `yaml:"log"`
}

// Neo4j contains the Neo4j connection settings.
type Neo4j struct {
	URI               string        `yaml:"uri"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	Database          string        `yaml:"database"`
	MaxConnections    int           `yaml:"max_connections"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// Mapping contains the defaults of the mapping engine.
type Mapping struct {
	// LoadDepth is the default depth of load operations; -1 is unbounded.
	LoadDepth int `yaml:"load_depth"`
	// RelationshipTypePolicy is "inherit_nearest" or "simple_name".
	RelationshipTypePolicy string `yaml:"relationship_type_policy"`
	// SlowStatementThreshold enables slow statement warnings when positive.
	SlowStatementThreshold time.Duration `yaml:"slow_statement_threshold"`
}

// Log contains the logging settings.
type Log struct {
	Level      string `yaml:"level"`  // debug, info, warn or error.
	Format     string `yaml:"format"` // text or json.
	Statements bool   `yaml:"statements"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Neo4j: Neo4j{
			URI:               "neo4j://localhost:7687",
			Username:          "neo4j",
			MaxConnections:    100,
			ConnectionTimeout: 30 * time.Second,
		},
		Mapping: Mapping{
			LoadDepth:              1,
			RelationshipTypePolicy: metadata.InheritNearest.String(),
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a YAML document over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	expanded := os.Expand(string(data), func(name string) string {
		// Keep "$$" usable as a literal dollar sign.
		if name == "$" {
			return "$"
		}
		return os.Getenv(name)
	})
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var schemes = []string{"neo4j", "neo4j+s", "neo4j+ssc", "bolt", "bolt+s", "bolt+ssc"}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Neo4j.URI != "" {
		scheme, _, ok := strings.Cut(c.Neo4j.URI, "://")
		if !ok || !slices.Contains(schemes, scheme) {
			errs = append(errs, fmt.Errorf("config: neo4j.uri %q: unsupported scheme", c.Neo4j.URI))
		}
	}
	if c.Neo4j.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("config: neo4j.max_connections must not be negative"))
	}
	if c.Neo4j.ConnectionTimeout < 0 {
		errs = append(errs, fmt.Errorf("config: neo4j.connection_timeout must not be negative"))
	}
	if c.Mapping.LoadDepth < -1 {
		errs = append(errs, fmt.Errorf("config: mapping.load_depth must be -1 or more, got %d", c.Mapping.LoadDepth))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("config: mapping.relationship_type_policy: %w", err))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log.format %q: want text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Policy returns the relationship type policy of the mapping section.
func (c *Config) Policy() (metadata.Policy, error) {
	return metadata.ParsePolicy(c.Mapping.RelationshipTypePolicy)
}

// Registry returns an empty metadata registry using converters and the
// relationship type policy of the mapping section.
func (c *Config) Registry(converters *convert.Registry) (*metadata.Registry, error) {
	p, err := c.Policy()
	if err != nil {
		return nil, err
	}
	return metadata.New(converters, metadata.WithRelationshipTypePolicy(p)), nil
}

// Level returns the log level of the log section.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level %q: %w", c.Log.Level, err)
	}
	return l, nil
}

// Logger returns a logger writing to w as configured by the log section.
// An invalid level falls back to info.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
