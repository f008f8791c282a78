package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# ChartSight Configuration

[access]
# Master key granting admin access (issue/revoke access codes).
# Override with CHARTSIGHT_MASTER_KEY.
master_key = "SIGNAL-MASTER-2024"

[store]
# Postgres DSN for the remote store. Leave empty to use the local
# fallback store. Override with CHARTSIGHT_REMOTE_DSN.
remote_dsn = ""
# Path of the local fallback database (default: <configdir>/chartsight.db)
local_path = ""

[analyzer]
# Vision-capable model used for chart analysis
model = "gpt-4o"
# Images are downscaled so their long edge does not exceed this
max_image_edge = 1280

[ui]
# Enable colored output
color_enabled = true
# Time format
time_format = "15:04:05"
`

const credentialsTemplate = `# ChartSight Credentials
# Keep this file private (chmod 600).

[openai]
api_key = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}
	return nil
}
