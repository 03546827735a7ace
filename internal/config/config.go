package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Storage
	DBPath string

	// Spreadsheet template
	TemplatePath string
	SheetName    string
	HeaderAnchor string
	HeaderRow    int
	ClearRows    int

	// Column schema
	SchemaPath string

	// Line reconstruction
	RowTolerance float64
	GapThreshold float64
	PageWorkers  int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("MBSYNC_API_KEY"),

		DBPath: os.Getenv("MBSYNC_DB_PATH"),

		TemplatePath: os.Getenv("MBSYNC_TEMPLATE_PATH"),
		SheetName:    envOr("MBSYNC_SHEET_NAME", "Change Request"),
		HeaderAnchor: envOr("MBSYNC_HEADER_ANCHOR", "WRIN"),
		HeaderRow:    envInt("MBSYNC_HEADER_ROW", 5),
		ClearRows:    envInt("MBSYNC_CLEAR_ROWS", 200),

		SchemaPath: os.Getenv("MBSYNC_SCHEMA_PATH"),

		RowTolerance: envFloat("ROW_TOLERANCE", 5),
		GapThreshold: envFloat("GAP_THRESHOLD", 4),
		PageWorkers:  envInt("PAGE_WORKERS", 4),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 20),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20971520), // 20MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.HeaderRow <= 0 {
		cfg.HeaderRow = 5
	}
	if cfg.ClearRows <= 0 {
		cfg.ClearRows = 200
	}
	if cfg.PageWorkers <= 0 {
		cfg.PageWorkers = 4
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20971520
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("MBSYNC_API_KEY is required")
	}
	if c.RowTolerance <= 0 {
		return fmt.Errorf("ROW_TOLERANCE must be positive, got %v", c.RowTolerance)
	}
	if c.GapThreshold <= 0 {
		return fmt.Errorf("GAP_THRESHOLD must be positive, got %v", c.GapThreshold)
	}
	if c.TemplatePath != "" {
		if _, err := os.Stat(c.TemplatePath); err != nil {
			return fmt.Errorf("MBSYNC_TEMPLATE_PATH: %w", err)
		}
	}
	return nil
}

// DatabasePath returns DBPath, or a file under the XDG data directory when
// unset. The parent directory is created.
func (c Config) DatabasePath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	return xdg.DataFile("mbsync/sessions.db")
}

// SchemaFile returns SchemaPath, or the XDG config location of the column
// schema when unset. The file need not exist.
func (c Config) SchemaFile() string {
	if c.SchemaPath != "" {
		return c.SchemaPath
	}
	return DefaultSchemaFile()
}

// DefaultSchemaFile is $XDG_CONFIG_HOME/mbsync/schema.toml.
func DefaultSchemaFile() string {
	if p, err := xdg.SearchConfigFile("mbsync/schema.toml"); err == nil {
		return p
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
