package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/avenirdata/ckansync/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables, and .env files. Flag values override these
// after cobra parses the command line.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Catalog connection
	CatalogURL string
	APIKey     string

	// Input files
	MetadataFile      string
	ResourceFolder    string
	OrganizationsFile string
	UsersFile         string

	// Import behavior
	SchemaName  string
	ScopeMode   string
	TokenName   string
	OwnerOrg    string
	DatasetType string
	DryRun      bool

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// Scope modes selecting how per-user catalog sessions are established.
const (
	ScopeToken      = "token"
	ScopeSubstitute = "substitute"
)

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.ckansync.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	bindCatalogEnv()

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".ckansync")
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		CatalogURL: firstNonEmpty(viper.GetString("catalog_url"), viper.GetString("CKAN_URL")),
		APIKey:     firstNonEmpty(viper.GetString("api_key"), viper.GetString("CKAN_API_KEY")),

		MetadataFile:      viper.GetString("metadata_file"),
		ResourceFolder:    viper.GetString("resource_folder"),
		OrganizationsFile: viper.GetString("organizations_file"),
		UsersFile:         viper.GetString("users_file"),

		SchemaName:  viper.GetString("schema"),
		ScopeMode:   viper.GetString("scope"),
		TokenName:   viper.GetString("token_name"),
		OwnerOrg:    viper.GetString("owner_org"),
		DatasetType: viper.GetString("dataset_type"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	// Defaults
	if config.SchemaName == "" {
		config.SchemaName = "country-code"
	}
	if config.ScopeMode == "" {
		config.ScopeMode = ScopeToken
	}

	return config, nil
}

// Validate checks the configuration before a load run touches the
// network. A dry run only needs the input files.
func (c *Config) Validate() error {
	if c.MetadataFile == "" {
		return errors.NewConfigError("load", "metadata file is required", nil)
	}
	if c.DryRun {
		return nil
	}
	if c.CatalogURL == "" {
		return errors.NewConfigError("load", "catalog URL is required (set CKAN_URL or --url)", nil)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.NewConfigError("load", "API key is required (set CKAN_API_KEY)", nil)
	}
	if c.ScopeMode != ScopeToken && c.ScopeMode != ScopeSubstitute {
		return errors.NewConfigError("load", "scope must be \"token\" or \"substitute\"", nil)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags so
// flag values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel, logFormat string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if logFormat != "" {
		c.LogFormat = logFormat
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// bindCatalogEnv explicitly binds the catalog connection environment
// variables to Viper.
func bindCatalogEnv() {
	for _, key := range []string{"CKAN_URL", "CKAN_API_KEY"} {
		_ = viper.BindEnv(key)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
