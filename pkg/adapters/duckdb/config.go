package duckdb

import "github.com/leapstack-labs/sqlcomplete/pkg/adapter"

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	adapter.CommonParams `mapstructure:",squash"`

	// Extensions to install and load before the catalog is read
	// (e.g., "json", "spatial"). Their functions become completable.
	Extensions []string `mapstructure:"extensions"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// ParseParams decodes adapter params into Params.
func ParseParams(params map[string]any) (*Params, error) {
	p := &Params{}
	if err := adapter.DecodeParams(params, p); err != nil {
		return nil, err
	}
	return p, nil
}
