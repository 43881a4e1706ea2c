package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlcomplete/pkg/adapter"
	"github.com/leapstack-labs/sqlcomplete/pkg/complete"
)

// Validate checks if the configuration is valid. Keyword casing is not
// checked; unknown values fall back to upper case.
func (c *Config) Validate() error {
	switch complete.QualifyPolicy(c.Completion.QualifyColumns) {
	case complete.QualifyAlways, complete.QualifyNever, complete.QualifyIfMoreThanOneTable:
	default:
		return fmt.Errorf("invalid completion.qualify_columns %q (want always, never or if_more_than_one_table)", c.Completion.QualifyColumns)
	}

	switch complete.ColumnOrder(c.Completion.AsteriskColumnOrder) {
	case complete.ColumnOrderTable, complete.ColumnOrderAlphabetic:
	default:
		return fmt.Errorf("invalid completion.asterisk_column_order %q (want table_order or alphabetic)", c.Completion.AsteriskColumnOrder)
	}

	switch c.OutputFormat {
	case "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("invalid output %q (want auto, text, markdown or json)", c.OutputFormat)
	}

	if c.Target != nil {
		if err := c.Target.Validate(); err != nil {
			return fmt.Errorf("invalid target configuration: %w", err)
		}
	}
	return nil
}

// Validate checks that the target type names a registered introspector.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}
