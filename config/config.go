// Package config loads the insien configuration from file, environment, and
// flags, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adityaraj-09/insien-editor/constants/lipgloss"
)

// configCacheEntry holds a loaded configuration keyed to its file mtime.
type configCacheEntry struct {
	config  *Config
	modTime time.Time
}

var (
	configCache = make(map[string]*configCacheEntry)
	cacheMutex  sync.RWMutex
)

// Config is the resolved application configuration.
type Config struct {
	Version     string `mapstructure:"version"`
	Theme       string `mapstructure:"theme"`
	BackendURL  string `mapstructure:"backend_url"`
	AuthToken   string `mapstructure:"auth_token"`
	UserID      string `mapstructure:"user_id"`
	Model       string `mapstructure:"model"`
	EnableCache bool   `mapstructure:"enable_cache"`
	Summarize   bool   `mapstructure:"summarize_context"`
}

// DefaultConfig values.
var DefaultConfig = Config{
	Version:     "0.3.1",
	Theme:       "dracula",
	BackendURL:  "http://localhost:4000",
	EnableCache: true,
	Summarize:   true,
}

// cfgFile holds the path to the configuration file (set via CLI).
var cfgFile string

// LoadConfigs resolves the configuration from defaults, config file,
// environment, and flags.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	setDefaults()
	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else {
		viper.SetConfigName("insien-config")
		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				fmt.Println(lipgloss.Yellow.Render("No configuration file found, using defaults"))
			}
		}
	}

	bindFlags(rootCmd)

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("backend_url", DefaultConfig.BackendURL)
	viper.SetDefault("auth_token", DefaultConfig.AuthToken)
	viper.SetDefault("user_id", DefaultConfig.UserID)
	viper.SetDefault("model", DefaultConfig.Model)
	viper.SetDefault("enable_cache", DefaultConfig.EnableCache)
	viper.SetDefault("summarize_context", DefaultConfig.Summarize)
}

func bindEnv() {
	_ = viper.BindEnv("theme", "INSIEN_THEME")
	_ = viper.BindEnv("backend_url", "INSIEN_BACKEND_URL")
	_ = viper.BindEnv("auth_token", "INSIEN_AUTH_TOKEN")
	_ = viper.BindEnv("user_id", "INSIEN_USER_ID")
	_ = viper.BindEnv("model", "INSIEN_MODEL")
	_ = viper.BindEnv("enable_cache", "INSIEN_ENABLE_CACHE")
	_ = viper.BindEnv("summarize_context", "INSIEN_SUMMARIZE_CONTEXT")
}

func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("backend_url", rootCmd.PersistentFlags().Lookup("backend_url"))
	_ = viper.BindPFlag("auth_token", rootCmd.PersistentFlags().Lookup("auth_token"))
	_ = viper.BindPFlag("user_id", rootCmd.PersistentFlags().Lookup("user_id"))
	_ = viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("enable_cache", rootCmd.PersistentFlags().Lookup("enable_cache"))
	_ = viper.BindPFlag("summarize_context", rootCmd.PersistentFlags().Lookup("summarize_context"))
}

// InitFlags registers the persistent flags on the root command.
func InitFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a configuration file (JSON or YAML).")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Highlight theme for rendered replies (e.g. 'dracula', 'light', 'dark').")
	rootCmd.PersistentFlags().String("backend_url", DefaultConfig.BackendURL, "Base URL of the insien ingestion backend.")
	rootCmd.PersistentFlags().String("auth_token", DefaultConfig.AuthToken, "Bearer token for the backend.")
	rootCmd.PersistentFlags().String("user_id", DefaultConfig.UserID, "User id feeding the project identity hash.")
	rootCmd.PersistentFlags().String("model", DefaultConfig.Model, "Chat model id; empty resolves the server default.")
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Cache file contents between syncs.")
	rootCmd.PersistentFlags().Bool("summarize_context", DefaultConfig.Summarize, "Prepend declaration summaries of attached context files to chat messages.")

	rootCmd.Flags().BoolP("version", "v", false, "Print the application version.")
}

// GetConfigFileType returns the config format implied by a file name.
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}

// LoadConfigWithCache loads configuration, reusing a cached copy while the
// config file's mtime is unchanged.
func LoadConfigWithCache(rootCmd *cobra.Command, cwd string) *Config {
	var configFilePath string

	if cfgFile != "" {
		configFilePath = cfgFile
	} else {
		for _, candidate := range []string{
			fmt.Sprintf("%s/insien-config.yaml", cwd),
			fmt.Sprintf("%s/insien-config.yml", cwd),
			fmt.Sprintf("%s/insien-config.json", cwd),
		} {
			if _, err := os.Stat(candidate); err == nil {
				configFilePath = candidate
				break
			}
		}
	}

	if configFilePath == "" {
		return LoadConfigs(rootCmd, cwd)
	}

	fileInfo, err := os.Stat(configFilePath)
	if err != nil {
		return LoadConfigs(rootCmd, cwd)
	}

	cacheMutex.RLock()
	if cached, exists := configCache[configFilePath]; exists {
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.config
		}
	}
	cacheMutex.RUnlock()

	config := LoadConfigs(rootCmd, cwd)

	cacheMutex.Lock()
	configCache[configFilePath] = &configCacheEntry{config: config, modTime: fileInfo.ModTime()}
	cacheMutex.Unlock()

	return config
}

// ClearConfigCache drops every cached configuration.
func ClearConfigCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	configCache = make(map[string]*configCacheEntry)
}
