// Package config holds application configuration loaded from file, env and
// defaults.
package config

import "runtime"

// Config holds all application configuration.
type Config struct {
	GitHub GitHub `mapstructure:"github"`
	Index  Index  `mapstructure:"index"`
	Server Server `mapstructure:"server"`
}

// GitHub holds API access configuration.
type GitHub struct {
	Token  string `mapstructure:"token"`
	APIURL string `mapstructure:"api_url"`
}

// Index holds storage and index-run configuration.
type Index struct {
	DBPath   string `mapstructure:"db_path"`
	CacheDir string `mapstructure:"cache_dir"`
	Workers  int    `mapstructure:"workers"`
}

// Server holds HTTP server configuration.
type Server struct {
	Addr string `mapstructure:"addr"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		GitHub: GitHub{
			APIURL: "https://api.github.com",
		},
		Index: Index{
			DBPath:   "starsearch.db",
			CacheDir: "readme_cache",
			Workers:  runtime.NumCPU(),
		},
		Server: Server{
			Addr: ":5000",
		},
	}
}
