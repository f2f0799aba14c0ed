package app

import (
	"os"
	"testing"
)

// TestLoadConfig verifies basic config loading and defaults.
func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config == nil {
		t.Fatal("LoadConfig() returned nil config")
	}

	if config.SchemaName != "country-code" {
		t.Errorf("SchemaName = %s, want country-code", config.SchemaName)
	}
	if config.ScopeMode != ScopeToken {
		t.Errorf("ScopeMode = %s, want %s", config.ScopeMode, ScopeToken)
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
}

// TestConfig_EnvironmentVariables verifies catalog env var loading.
func TestConfig_EnvironmentVariables(t *testing.T) {
	oldURL := os.Getenv("CKAN_URL")
	oldKey := os.Getenv("CKAN_API_KEY")
	defer func() {
		os.Setenv("CKAN_URL", oldURL)
		os.Setenv("CKAN_API_KEY", oldKey)
	}()

	os.Setenv("CKAN_URL", "https://catalog.example.org")
	os.Setenv("CKAN_API_KEY", "admin-key")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.CatalogURL != "https://catalog.example.org" {
		t.Errorf("CatalogURL = %s, want https://catalog.example.org", config.CatalogURL)
	}
	if config.APIKey != "admin-key" {
		t.Errorf("APIKey = %s, want admin-key", config.APIKey)
	}
}

// TestConfig_Validate verifies pre-run validation rules.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "complete",
			config: Config{
				MetadataFile: "meta.csv",
				CatalogURL:   "https://catalog.example.org",
				APIKey:       "key",
				ScopeMode:    ScopeToken,
			},
			wantErr: false,
		},
		{
			name:    "missing metadata file",
			config:  Config{CatalogURL: "https://catalog.example.org", APIKey: "key", ScopeMode: ScopeToken},
			wantErr: true,
		},
		{
			name:    "missing catalog URL",
			config:  Config{MetadataFile: "meta.csv", APIKey: "key", ScopeMode: ScopeToken},
			wantErr: true,
		},
		{
			name:    "blank API key",
			config:  Config{MetadataFile: "meta.csv", CatalogURL: "https://catalog.example.org", APIKey: "   ", ScopeMode: ScopeToken},
			wantErr: true,
		},
		{
			name:    "unknown scope mode",
			config:  Config{MetadataFile: "meta.csv", CatalogURL: "https://catalog.example.org", APIKey: "key", ScopeMode: "proxy"},
			wantErr: true,
		},
		{
			name:    "dry run only needs the metadata file",
			config:  Config{MetadataFile: "meta.csv", DryRun: true},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_UpdateFromFlags verifies flag precedence over loaded values.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{LogLevel: "info", LogFormat: "json"}

	config.UpdateFromFlags(true, false, true, "debug", "")

	if !config.Verbose {
		t.Error("Verbose not updated from flag")
	}
	if !config.NoColor {
		t.Error("NoColor not updated from flag")
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", config.LogLevel)
	}
	if config.LogFormat != "json" {
		t.Errorf("LogFormat = %s, want json (empty flag must not clear it)", config.LogFormat)
	}
}
