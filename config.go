package grainfm

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cbegin/grainfm-go/internal/grain"
)

// LoadParams reads a TOML file over grain.DefaultParams. Keys the engine
// does not know are an error, so a misspelt option is never silently
// ignored.
func LoadParams(path string) (grain.Params, error) {
	p := grain.DefaultParams()
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return grain.Params{}, fmt.Errorf("load %s: %w", path, err)
	}
	return checkDecoded(p, md)
}

// ParseParams is LoadParams for TOML text.
func ParseParams(data string) (grain.Params, error) {
	p := grain.DefaultParams()
	md, err := toml.Decode(data, &p)
	if err != nil {
		return grain.Params{}, fmt.Errorf("parse params: %w", err)
	}
	return checkDecoded(p, md)
}

func checkDecoded(p grain.Params, md toml.MetaData) (grain.Params, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return grain.Params{}, fmt.Errorf("%w: unknown keys: %s", grain.ErrInvalidParams, strings.Join(keys, ", "))
	}
	if err := p.Validate(); err != nil {
		return grain.Params{}, err
	}
	return p, nil
}
