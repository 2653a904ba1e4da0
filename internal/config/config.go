package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/yokitheyo/formupload/internal/form"
	"github.com/yokitheyo/formupload/internal/model"
	"github.com/yokitheyo/formupload/internal/view"
)

type Config struct {
	Upload struct {
		Action    string        `yaml:"action"`
		TimeoutMS int           `yaml:"timeout_ms"`
		Fields    []FieldConfig `yaml:"fields"`
		Files     []FileConfig  `yaml:"files"`
	} `yaml:"upload"`
	UI struct {
		Locale   string        `yaml:"locale"`
		Messages view.Messages `yaml:"messages"`
	} `yaml:"ui"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

type FieldConfig struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type FileConfig struct {
	Field string `yaml:"field"`
	Path  string `yaml:"path"`
}

// LoadConfig reads the YAML file at path. An empty path yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Upload.TimeoutMS <= 0 {
		c.Upload.TimeoutMS = int(model.DefaultTimeout / time.Millisecond)
	}
	if c.UI.Locale == "" {
		c.UI.Locale = "en"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// LoadDotEnv loads path into the environment. A missing file is ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file values with UPLOAD_* and LOG_* variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("UPLOAD_ACTION"); v != "" {
		c.Upload.Action = v
	}
	if v := os.Getenv("UPLOAD_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return fmt.Errorf("invalid UPLOAD_TIMEOUT_MS %q", v)
		}
		c.Upload.TimeoutMS = ms
	}
	if v := os.Getenv("UPLOAD_LOCALE"); v != "" {
		c.UI.Locale = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Upload.TimeoutMS) * time.Millisecond
}

// Messages returns the locale catalog with configured overrides applied.
func (c *Config) Messages() (view.Messages, error) {
	m, err := view.MessagesFor(c.UI.Locale)
	if err != nil {
		return view.Messages{}, err
	}
	m = m.Merge(c.UI.Messages)
	if err := m.Validate(); err != nil {
		return view.Messages{}, err
	}
	return m, nil
}

// Form builds the submission form. It returns nil when no action is
// configured.
func (c *Config) Form() *form.Form {
	if strings.TrimSpace(c.Upload.Action) == "" {
		return nil
	}
	f := &form.Form{Action: c.Upload.Action}
	for _, fld := range c.Upload.Fields {
		f.Fields = append(f.Fields, form.Field{Name: fld.Name, Value: fld.Value})
	}
	for _, file := range c.Upload.Files {
		f.Files = append(f.Files, form.File{Name: file.Field, Path: file.Path})
	}
	return f
}
