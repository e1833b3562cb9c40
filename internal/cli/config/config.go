package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName     = "querydesk.json"
	YAMLConfigFileName = "querydesk.yaml"
)

// configFileNames lists the accepted project config names in lookup order
var configFileNames = []string{ConfigFileName, YAMLConfigFileName, "querydesk.yml"}

// Server represents a QueryDesk API server configuration
type Server struct {
	URL      string `json:"url" yaml:"url"`
	Alias    string `json:"alias" yaml:"alias"`
	Insecure bool   `json:"insecure,omitempty" yaml:"insecure,omitempty"` // Skip TLS verification (self-signed dev servers)
}

// Validate checks that the server URL is an absolute http(s) URL
func (s *Server) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("server URL is empty. Please edit %s and add a valid URL", ConfigFileName)
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", s.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server URL %q: scheme must be http or https", s.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server URL %q: missing host", s.URL)
	}
	return nil
}

// Config represents the CLI configuration file
type Config struct {
	Servers []Server `json:"servers" yaml:"servers"`
}

// DefaultConfig returns a default configuration with an example server
func DefaultConfig() *Config {
	return &Config{
		Servers: []Server{
			{
				URL:   "",
				Alias: "e.g. production",
			},
		},
	}
}

// FindConfigFile searches for querydesk.json (or .yaml) in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find a config file or reach root
	dir := currentDir
	for {
		for _, name := range configFileNames {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURL returns a server by its URL, ignoring a trailing slash
func (c *Config) GetServerByURL(rawURL string) (*Server, error) {
	want := strings.TrimRight(rawURL, "/")
	for i := range c.Servers {
		if strings.TrimRight(c.Servers[i].URL, "/") == want {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with URL '%s' not found", rawURL)
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	}
	return &c.Servers[0], nil
}
