// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file and
// environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// ProductsFile is the path of the JSON product catalog.
	ProductsFile string `json:"products_file"`

	// JWTSecret signs bearer tokens. A random key is used when empty.
	JWTSecret string `json:"jwt_secret"`

	// UsersFile is an optional YAML credential table replacing the built-in users.
	UsersFile string `json:"users_file"`

	// StaticDir, when set, is served at / as the frontend.
	StaticDir string `json:"static_dir"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// CORSOrigins lists the allowed origins for browser clients.
	CORSOrigins []string `json:"cors_origins"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// envOverrides maps environment variables to the option they override.
var envOverrides = []struct {
	name string
	set  func(o *Options, v string)
}{
	{"SERVER_ADDRESS", func(o *Options, v string) { o.Port = v }},
	{"PRODUCTS_FILE", func(o *Options, v string) { o.ProductsFile = v }},
	{"JWT_SECRET_KEY", func(o *Options, v string) { o.JWTSecret = v }},
	{"USERS_FILE", func(o *Options, v string) { o.UsersFile = v }},
	{"STATIC_DIR", func(o *Options, v string) { o.StaticDir = v }},
	{"LOG_LEVEL", func(o *Options, v string) { o.LogLevel = v }},
	{"CORS_ORIGINS", func(o *Options, v string) { o.CORSOrigins = splitList(v) }},
}

// RegisterFlags binds the options to fs with their default values.
func (o *Options) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Port, "address", "a", "localhost:5000", "run on ip:port server")
	fs.StringVarP(&o.ProductsFile, "products", "f", "products.json", "path to the products JSON file")
	fs.StringVar(&o.JWTSecret, "jwt-secret", "", "token signing secret (random when empty)")
	fs.StringVar(&o.UsersFile, "users", "", "path to a YAML users file")
	fs.StringVar(&o.StaticDir, "static", "", "directory with frontend files served at /")
	fs.StringVar(&o.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringSliceVar(&o.CORSOrigins, "cors-origin", []string{"*"}, "allowed CORS origins")
	fs.StringVarP(&o.Config, "config", "c", "config.json", "path to config file")
}

// Load applies, in order, the config file and the environment on top of
// the values already parsed from flags. A .env file in the working
// directory is loaded into the environment first if present.
func (o *Options) Load() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}

	if o.Config != "" {
		data, err := os.ReadFile(o.Config)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return fmt.Errorf("error while reading config file: %w", err)
		default:
			if err := json.Unmarshal(data, o); err != nil {
				return fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	for _, e := range envOverrides {
		if v := os.Getenv(e.name); v != "" {
			e.set(o, v)
		}
	}

	if o.ProductsFile == "" {
		return errors.New("products file path is empty")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
