package plushie

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/plushie/pkg/errors"
)

// LoadParams reads a params file. The format follows the extension: .yaml
// and .yml are YAML, everything else TOML. Keys missing from the file keep
// their default value.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Params{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "params file %s", path)
		}
		return Params{}, fmt.Errorf("read params: %w", err)
	}
	return DecodeParams(data, formatOf(path))
}

// DecodeParams parses params in the given format ("toml" or "yaml") on top
// of DefaultParams and validates the result.
func DecodeParams(data []byte, format string) (Params, error) {
	params := DefaultParams()
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &params)
	case "toml":
		_, err = toml.Decode(string(data), &params)
	default:
		return Params{}, errors.New(errors.ErrCodeInvalidFormat, "unknown params format %q", format)
	}
	if err != nil {
		return Params{}, errors.Wrap(errors.ErrCodeInvalidParams, err, "cannot decode %s params", format)
	}
	if err := params.Validate(); err != nil {
		return Params{}, err
	}
	return params, nil
}

// WriteParams writes params as TOML, or YAML for .yaml/.yml paths.
func WriteParams(path string, params Params) error {
	var buf bytes.Buffer
	if err := EncodeParams(&buf, params, formatOf(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write params: %w", err)
	}
	return nil
}

// EncodeParams writes params to w in the given format.
func EncodeParams(w io.Writer, params Params, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(params); err != nil {
			return fmt.Errorf("encode params: %w", err)
		}
		return enc.Close()
	case "toml":
		if err := toml.NewEncoder(w).Encode(params); err != nil {
			return fmt.Errorf("encode params: %w", err)
		}
		return nil
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unknown params format %q", format)
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "toml"
}
