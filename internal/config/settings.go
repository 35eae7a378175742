package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Provider describes one model provider from settings.json.
type Provider struct {
	ID             string   `json:"id"`
	EnvVars        []string `json:"env_vars"`
	Endpoint       string   `json:"endpoint"`
	ModelsEndpoint string   `json:"models_endpoint,omitempty"`
	Models         []string `json:"models"`
	Referer        string   `json:"referer,omitempty"`
	Title          string   `json:"title,omitempty"`
	UserAgent      string   `json:"user_agent,omitempty"`
}

// Settings is the provider catalog loaded from settings.json.
type Settings struct {
	Providers []Provider `json:"providers"`
}

// FindProvider returns the provider with the given id, or nil.
func (s *Settings) FindProvider(id string) *Provider {
	for i := range s.Providers {
		if s.Providers[i].ID == id {
			return &s.Providers[i]
		}
	}
	return nil
}

// HasModel reports whether the provider lists the given model id.
func (p *Provider) HasModel(model string) bool {
	for _, m := range p.Models {
		if m == model {
			return true
		}
	}
	return false
}

// ResolveAPIKey returns the first non-empty credential for the provider,
// checking the process environment first and then the provider.env overrides.
func (p *Provider) ResolveAPIKey(fileEnv map[string]string) string {
	for _, name := range p.EnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	for _, name := range p.EnvVars {
		if v := fileEnv[name]; v != "" {
			return v
		}
	}
	return ""
}

// LoadSettings reads settings.json from dir. A missing file yields an empty
// catalog.
func LoadSettings(dir string) (Settings, error) {
	var s Settings

	data, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings.json: %w", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings.json: %w", err)
	}
	return s, nil
}

// LoadProviderEnv parses provider.env in dir as KEY=value lines. Blank lines
// and lines starting with '#' are skipped. A missing file yields an empty map.
func LoadProviderEnv(dir string) (map[string]string, error) {
	env := make(map[string]string)

	f, err := os.Open(filepath.Join(dir, "provider.env"))
	if err != nil {
		if os.IsNotExist(err) {
			return env, nil
		}
		return nil, fmt.Errorf("open provider.env: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		env[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read provider.env: %w", err)
	}
	return env, nil
}
