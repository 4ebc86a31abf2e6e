package config

import "time"

type Sheets struct {
	ExportBaseURL string        `env:"SHEETS_EXPORT_BASE_URL" envDefault:"https://docs.google.com"`
	Timeout       time.Duration `env:"SHEETS_TIMEOUT" envDefault:"30s"`
	// Sources lists "sheetID:gid" pairs synced in the background.
	Sources      []string      `env:"SHEETS_SOURCES" envSeparator:","`
	SyncInterval time.Duration `env:"SHEETS_SYNC_INTERVAL" envDefault:"10m"`
}
