// Package config provides configuration management for the sqlcomplete CLI.
package config

import (
	"strings"

	"github.com/leapstack-labs/sqlcomplete/pkg/adapter"
	"github.com/leapstack-labs/sqlcomplete/pkg/complete"
)

// Config holds all CLI configuration options.
type Config struct {
	Completion         CompletionConfig  `koanf:"completion"`
	CatalogFile        string            `koanf:"catalog_file"`
	CasingFile         string            `koanf:"casing_file"`
	GenerateCasingFile bool              `koanf:"generate_casing_file"`
	UsagePath          string            `koanf:"usage_path"`
	NamedQueries       map[string]string `koanf:"named_queries"`
	Target             *TargetConfig     `koanf:"target"`
	Environment        string            `koanf:"environment"`
	// Environments override Target per named environment.
	Environments map[string]*TargetConfig `koanf:"environments"`
	Listen       string                   `koanf:"listen"`
	Verbose      bool                     `koanf:"verbose"`
	OutputFormat string                   `koanf:"output"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// CompletionConfig holds the completion engine settings.
type CompletionConfig struct {
	SearchPathFilter    bool   `koanf:"search_path_filter"`
	GenerateAliases     bool   `koanf:"generate_aliases"`
	QualifyColumns      string `koanf:"qualify_columns"`
	AsteriskColumnOrder string `koanf:"asterisk_column_order"`
	KeywordCasing       string `koanf:"keyword_casing"`
}

// TargetConfig describes the database the catalog is read from.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	DSN      string            `koanf:"dsn"`
	Path     string            `koanf:"path"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Options  map[string]string `koanf:"options"`
	Params   map[string]any    `koanf:"params"`
}

// Default configuration values.
const (
	DefaultUsageFile           = ".sqlcomplete/usage.db"
	DefaultOutput              = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultListen              = "127.0.0.1:8484"
	DefaultQualifyColumns      = string(complete.QualifyIfMoreThanOneTable)
	DefaultAsteriskColumnOrder = string(complete.ColumnOrderTable)
	DefaultKeywordCasing       = string(complete.KeywordCasingUpper)
)

// Settings converts the completion section into engine settings.
func (c *Config) Settings() complete.Settings {
	return complete.Settings{
		SearchPathFilter:    c.Completion.SearchPathFilter,
		GenerateAliases:     c.Completion.GenerateAliases,
		QualifyColumns:      complete.QualifyPolicy(c.Completion.QualifyColumns),
		AsteriskColumnOrder: complete.ColumnOrder(c.Completion.AsteriskColumnOrder),
		KeywordCasing:       complete.ParseKeywordCasing(c.Completion.KeywordCasing),
	}
}

// NamedQueryNames returns the configured saved query names.
func (c *Config) NamedQueryNames() []string {
	names := make([]string, 0, len(c.NamedQueries))
	for name := range c.NamedQueries {
		names = append(names, name)
	}
	return names
}

// AdapterConfig converts the target into an introspector config.
func (t *TargetConfig) AdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     strings.ToLower(t.Type),
		DSN:      t.DSN,
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Options:  t.Options,
		Params:   t.Params,
	}
}

// Scope names the target for usage counts: type plus database or path.
func (t *TargetConfig) Scope() string {
	if t == nil || t.Type == "" {
		return "default"
	}
	name := t.Database
	if name == "" {
		name = t.Path
	}
	if name == "" {
		name = t.Host
	}
	return strings.ToLower(t.Type) + ":" + name
}
