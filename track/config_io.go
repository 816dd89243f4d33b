package track

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// LoadConfig reads a Config from a JSON file at path, starting from DefaultConfig so that an
// omitted field keeps its default rather than zeroing out.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	r, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "opening tracker config %q", path)
	}
	defer utils.UncheckedErrorFunc(r.Close)

	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing tracker config %q", path)
	}
	return cfg, nil
}
