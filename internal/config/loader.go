package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadResult is a loaded configuration together with where it came from.
type LoadResult struct {
	Config *Config
	File   string // empty when defaults were used
}

func DefaultConfigPath() (string, error) {
	if override := os.Getenv("TASKLEASH_CONFIG"); override != "" {
		return override, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "taskleash", "config.yaml"), nil
}

// Load reads the configuration from the standard location.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	res, err := LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadFromPath reads path over the defaults. A missing file yields the
// defaults; unknown keys are rejected.
func LoadFromPath(path string) (*LoadResult, error) {
	cfg := DefaultConfig()

	exists, err := pathExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &LoadResult{Config: cfg}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := decodeStrictYAML(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &LoadResult{Config: cfg, File: path}, nil
}

// Init writes the default configuration to path, or to DefaultConfigPath
// when path is empty, and returns where it was written. An existing file is
// replaced only when force is set.
func Init(path string, force bool) (string, error) {
	target := path
	if target == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		target = p
	}

	exists, err := pathExists(target)
	if err != nil {
		return "", err
	}
	if exists && !force {
		return "", fmt.Errorf("config file already exists: %s", target)
	}

	cfg := DefaultConfig()
	if path == "" {
		err = cfg.Save()
	} else {
		err = cfg.SaveTo(path)
	}
	if err != nil {
		return "", err
	}
	return target, nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
