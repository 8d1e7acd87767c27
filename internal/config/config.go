// Package config loads dofuscap's runtime configuration from flags,
// environment variables (with DOFUSCAP_ prefix), a .env file, and a
// config file, in that precedence order via viper.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	Interface  string // live capture device name
	Port       uint16 // TCP port to filter on
	SchemaPath string // path to the schema catalog JSON
	DBPath     string // sqlite path backing chat history
	WSPort     uint16 // port the chat UI event websocket listens on
}

// Load reads configuration from (in increasing precedence) built-in
// defaults, a config file at configFile (missing is not an error), and
// DOFUSCAP_-prefixed environment variables. A .env file at envFile
// (missing is not an error) is first loaded into the process environment
// without overriding variables already set, so its values rank above the
// config file and below variables set in the real environment.
func Load(configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: load env file: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("DOFUSCAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("interface", "en0")
	v.SetDefault("port", 5555)
	v.SetDefault("schema_path", "schema.json")
	v.SetDefault("db_path", "dofuscap.db")
	v.SetDefault("ws_port", 8081)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			_, isNotFound := err.(viper.ConfigFileNotFoundError)
			if !isNotFound && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read config file: %w", err)
			}
		}
	}

	return &Config{
		Interface:  v.GetString("interface"),
		Port:       uint16(v.GetUint32("port")),
		SchemaPath: v.GetString("schema_path"),
		DBPath:     v.GetString("db_path"),
		WSPort:     uint16(v.GetUint32("ws_port")),
	}, nil
}
