package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/imgajeed76/pgrid/internal/util"
)

// Config holds pgrid settings stored in the user's config directory
type Config struct {
	Search  SearchConfig  `toml:"search"`
	Display DisplayConfig `toml:"display"`
	State   StateConfig   `toml:"state"`
	Log     LogConfig     `toml:"log"`
}

// SearchConfig controls how in-table search scans the grid
type SearchConfig struct {
	BatchSize     int  `toml:"batch_size" config:"search.batch_size" default:"200" min:"1" max:"100000" desc:"Rows scanned per batch"`
	BatchDelayMS  int  `toml:"batch_delay_ms" config:"search.batch_delay_ms" default:"0" min:"0" max:"1000" desc:"Pause between batches in milliseconds"`
	CaseSensitive bool `toml:"case_sensitive" config:"search.case_sensitive" default:"false" desc:"Match letter case exactly"`
}

// DisplayConfig controls how values are rendered
type DisplayConfig struct {
	ColumnWidth    int    `toml:"column_width" config:"display.column_width" default:"30" min:"3" max:"500" desc:"Max column width before truncation"`
	NullText       string `toml:"null_text" config:"display.null_text" default:"NULL" desc:"Text shown for missing values"`
	DateFormat     string `toml:"date_format" config:"display.date_format" default:"2006-01-02 15:04:05" desc:"Go time layout for dates"`
	HighlightColor string `toml:"highlight_color" config:"display.highlight_color" default:"#F59E0B" desc:"Background of search matches"`
	ActiveColor    string `toml:"active_color" config:"display.active_color" default:"#7C3AED" desc:"Background of the active match"`
}

// StateConfig controls persistence of the search state between sessions
type StateConfig struct {
	Backend  string `toml:"backend" config:"state.backend" default:"file" oneof:"file,postgres,none" desc:"Where search state is saved"`
	URL      string `toml:"url" config:"state.url" desc:"PostgreSQL URL for the postgres backend"`
	Autosave bool   `toml:"autosave" config:"state.autosave" default:"true" desc:"Save search state when the viewer exits"`
}

// LogConfig controls the diagnostic log
type LogConfig struct {
	Level string `toml:"level" config:"log.level" default:"info" oneof:"trace,debug,info,warn,error,disabled" desc:"Log level"`
	File  string `toml:"file" config:"log.file" desc:"Log file (empty = pgrid.log in the config dir)"`
}

// Default returns a config with every field set from its default tag
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg, false)
	return cfg
}

// Path returns the path to the config file
func Path() string {
	return filepath.Join(util.ConfigDir(), util.ConfigFile)
}

// Load reads the config file, falling back to defaults if it doesn't exist
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads a config file at path
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// Empty strings and out-of-range zeros written by hand fall back too

	applyDefaults(cfg, true)
	return cfg, nil
}

// Save writes the config file
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

// BatchDelay returns the configured pause between scan batches
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Search.BatchDelayMS) * time.Millisecond
}

// LogPath returns the log file path
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(util.ConfigDir(), util.LogFile)
}

// GetValue returns a config value by key
func (c *Config) GetValue(key string) (string, bool) {
	return getFieldValue(c, key)
}

// SetValue sets a config value by key with validation
func (c *Config) SetValue(key, value string) error {
	return setFieldValue(c, key, value)
}
