package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// StoreConfig selects and configures the location store implementation.
type StoreConfig struct {
	Type string `yaml:"type" toml:"type"`
	Path string `yaml:"path" toml:"path"`
}

// GeocoderConfig holds connection details for the Nominatim-compatible geocoder.
type GeocoderConfig struct {
	BaseURL           string  `yaml:"base_url" toml:"base_url"`
	UserAgent         string  `yaml:"user_agent" toml:"user_agent"`
	Email             string  `yaml:"email,omitempty" toml:"email,omitempty"`
	TimeoutSecs       int     `yaml:"timeout_secs" toml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries" toml:"max_retries"`
}

// PatternConfig is an entity ruler pattern: a regular expression labeled as an entity.
type PatternConfig struct {
	Label   string `yaml:"label" toml:"label"`
	Pattern string `yaml:"pattern" toml:"pattern"`
}

// AnnotatorConfig configures entity recognition and lemmatization.
type AnnotatorConfig struct {
	Type     string          `yaml:"type" toml:"type"`
	Patterns []PatternConfig `yaml:"patterns" toml:"patterns"`
}

// SegmenterConfig configures how documents are split into chapters and paragraphs.
type SegmenterConfig struct {
	Protagonist  string   `yaml:"protagonist" toml:"protagonist"`
	EndMarkers   []string `yaml:"end_markers" toml:"end_markers"`
	MetadataKeys []string `yaml:"metadata_keys" toml:"metadata_keys"`
	Workers      int      `yaml:"workers" toml:"workers"`
}

// IndexConfig configures the topic-space search index.
type IndexConfig struct {
	Type            string  `yaml:"type" toml:"type"`
	NumTopics       int     `yaml:"num_topics" toml:"num_topics"`
	NoBelowFraction float64 `yaml:"no_below_fraction" toml:"no_below_fraction"`
	NoAbove         float64 `yaml:"no_above" toml:"no_above"`
	KeepN           int     `yaml:"keep_n" toml:"keep_n"`
	MinScore        float64 `yaml:"min_score" toml:"min_score"`
}

// FilterConfig configures the relevance rule applied to resolved locations.
type FilterConfig struct {
	MinGroupCount   int      `yaml:"min_group_count" toml:"min_group_count"`
	ExcludedTypes   []string `yaml:"excluded_types" toml:"excluded_types"`
	ExcludedClasses []string `yaml:"excluded_classes" toml:"excluded_classes"`
	AllowedClasses  []string `yaml:"allowed_classes" toml:"allowed_classes"`
	AllowedTypes    []string `yaml:"allowed_types" toml:"allowed_types"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file,omitempty" toml:"file,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Store     StoreConfig     `yaml:"store" toml:"store"`
	Geocoder  GeocoderConfig  `yaml:"geocoder" toml:"geocoder"`
	Annotator AnnotatorConfig `yaml:"annotator" toml:"annotator"`
	Segmenter SegmenterConfig `yaml:"segmenter" toml:"segmenter"`
	Index     IndexConfig     `yaml:"index" toml:"index"`
	Filter    FilterConfig    `yaml:"filter" toml:"filter"`
	Log       LogConfig       `yaml:"log" toml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./geotext.yaml first, then ~/.config/geotext/config.yaml.
// If neither exists, it writes defaults to ~/.config/geotext/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "geotext.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultStorePath returns the store file used when none is configured.
func DefaultStorePath(storeType string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	name := "locations.db"
	if storeType == "bolt" {
		name = "locations.bolt"
	}
	return filepath.Join(home, ".geotext", "data", name), nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "geotext", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Store:     StoreConfig{Type: "sqlite"},
		Annotator: AnnotatorConfig{Type: "prose"},
		Log:       LogConfig{Level: "info"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

// DefaultPatterns mirrors the entity ruler shipped for "Around the World in Eighty Days".
func DefaultPatterns() []PatternConfig {
	return []PatternConfig{
		{Label: "PERSON", Pattern: `(?:Phileas|Mr\.?)\s+Fogg`},
		{Label: "PERSON", Pattern: `Fogg`},
		{Label: "PERSON", Pattern: `Passepartout`},
		{Label: "PERSON", Pattern: `Fix`},
		{Label: "GPE", Pattern: `Calcutta`},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Store.Type == "" {
		cfg.Store.Type = "sqlite"
	}
	if cfg.Geocoder.BaseURL == "" {
		cfg.Geocoder.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.Geocoder.UserAgent == "" {
		cfg.Geocoder.UserAgent = "geotext/0.1"
	}
	if cfg.Geocoder.TimeoutSecs == 0 {
		cfg.Geocoder.TimeoutSecs = 10
	}
	if cfg.Geocoder.RequestsPerSecond == 0 {
		cfg.Geocoder.RequestsPerSecond = 1
	}
	if cfg.Geocoder.MaxRetries == 0 {
		cfg.Geocoder.MaxRetries = 3
	}
	if cfg.Annotator.Type == "" {
		cfg.Annotator.Type = "prose"
	}
	if cfg.Annotator.Patterns == nil {
		cfg.Annotator.Patterns = DefaultPatterns()
	}
	if cfg.Segmenter.Protagonist == "" {
		cfg.Segmenter.Protagonist = "Fogg"
	}
	if len(cfg.Segmenter.EndMarkers) == 0 {
		cfg.Segmenter.EndMarkers = []string{
			"End of Project Gutenberg",
			"*** END OF THE PROJECT GUTENBERG",
			"*** END OF THIS PROJECT GUTENBERG",
		}
	}
	if len(cfg.Segmenter.MetadataKeys) == 0 {
		cfg.Segmenter.MetadataKeys = []string{"title", "author", "release date", "last updated", "language"}
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "lsi"
	}
	if cfg.Index.NumTopics == 0 {
		cfg.Index.NumTopics = 100
	}
	if cfg.Index.NoBelowFraction == 0 {
		cfg.Index.NoBelowFraction = 0.1
	}
	if cfg.Index.NoAbove == 0 {
		cfg.Index.NoAbove = 0.5
	}
	if cfg.Index.KeepN == 0 {
		cfg.Index.KeepN = 100000
	}
	if cfg.Index.MinScore == 0 {
		cfg.Index.MinScore = 0.01
	}
	if cfg.Filter.MinGroupCount == 0 {
		cfg.Filter.MinGroupCount = 5
	}
	if cfg.Filter.ExcludedTypes == nil {
		cfg.Filter.ExcludedTypes = []string{"continent"}
	}
	if cfg.Filter.ExcludedClasses == nil {
		cfg.Filter.ExcludedClasses = []string{"highway"}
	}
	if cfg.Filter.AllowedClasses == nil {
		cfg.Filter.AllowedClasses = []string{"natural", "waterway"}
	}
	if cfg.Filter.AllowedTypes == nil {
		cfg.Filter.AllowedTypes = []string{"sea", "ocean", "lighthouse"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// applyEnv lets the environment (and a .env file loaded by main) override a few settings.
func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("GEOTEXT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("GEOTEXT_USER_AGENT"); v != "" {
		cfg.Geocoder.UserAgent = v
	}
}
