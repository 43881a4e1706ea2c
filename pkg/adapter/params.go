package adapter

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// CommonParams are the Config.Params keys every introspector accepts.
type CommonParams struct {
	// Parallelism bounds concurrent catalog queries.
	Parallelism int `mapstructure:"parallelism"`
}

// DecodeParams decodes params into out, a pointer to a struct with
// mapstructure tags. Scalars are converted loosely so values written as
// strings in YAML or the environment still decode.
func DecodeParams(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid adapter params: %w", err)
	}
	return nil
}
