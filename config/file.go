package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// ReadJSON5 reads a json5 file and merges a sibling `<name>.local.<ext>`
// over it when present. Zero values in the local file do not override. It
// returns os.ErrNotExist when neither file exists.
func ReadJSON5[T any](name string) (T, error) {
	var out T
	found := false

	data, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(data) > 0 {
		if err := json5.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("config: parse %s: %w", name, err)
		}
		found = true
	}

	local := localPath(name)
	data, err = os.ReadFile(local)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(data) > 0 {
		var override T
		if err := json5.Unmarshal(data, &override); err != nil {
			return out, fmt.Errorf("config: parse %s: %w", local, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// LoadFile overlays the settings in a json5 file, then its `.local`
// sibling, onto base. Only keys present in a file are changed, so explicit
// false, 0 and "" values override base too.
func LoadFile(base *Config, path string) (*Config, error) {
	merged := *base
	found := false
	for _, name := range []string{path, localPath(path)} {
		data, err := os.ReadFile(name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := json5.Unmarshal(data, &merged); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", name, err)
		}
		found = true
	}
	if !found {
		return nil, fmt.Errorf("config: %s not found", path)
	}

	merged.ReferenceStrategy = strings.ToLower(merged.ReferenceStrategy)
	merged.FetchMode = strings.ToLower(merged.FetchMode)
	return &merged, nil
}

func localPath(name string) string {
	dir := filepath.Dir(name)
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, prefix+".local"+ext)
}
