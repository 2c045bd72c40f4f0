package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

const (
	StorageDriverFile     = "file"
	StorageDriverPostgres = "postgres"

	// DefaultDocumentURLTemplate must match the default of DocumentURLTemplate.
	DefaultDocumentURLTemplate = "https://buessing.schule/plaene/VertretungsplanA4_{day}.pdf"
)

// ErrHelpRequested is returned when --help was passed and usage was printed.
var ErrHelpRequested = errors.New("help requested")

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken string `long:"telegram-token" env:"TELEGRAM_TOKEN" description:"Telegram bot token (required)"`

	StorageDriver   string `long:"storage-driver" env:"STORAGE_DRIVER" default:"file" choice:"file" choice:"postgres" description:"Where snapshots and subscriptions are kept"`
	SubscribersFile string `long:"subscribers-file" env:"SUBSCRIBERS_FILE" description:"JSON file holding group subscriptions (required for the file driver)"`
	SnapshotDir     string `long:"snapshot-dir" env:"SNAPSHOT_DIR" default:"./pdf-jsons" description:"Directory for per-weekday schedule snapshots"`
	DatabaseURL     string `long:"database-url" env:"DATABASE_URL" description:"PostgreSQL DSN (required for the postgres driver)"`

	DocumentUser        string        `long:"document-user" env:"DOCUMENT_USER" description:"Basic auth user for the plan server (required with the default URL template)"`
	DocumentPassword    string        `long:"document-password" env:"DOCUMENT_PASSWORD" description:"Basic auth password for the plan server (required with the default URL template)"`
	DocumentURLTemplate string        `long:"document-url-template" env:"DOCUMENT_URL_TEMPLATE" default:"https://buessing.schule/plaene/VertretungsplanA4_{day}.pdf" description:"Plan URL, {day} is replaced by the German weekday name"`
	DocumentSourcesFile string        `long:"document-sources-file" env:"DOCUMENT_SOURCES_FILE" description:"Optional YAML file mapping weekdays to plan URLs"`
	FetchTimeout        time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"20s" description:"Timeout for a single plan download"`

	TabulaCommand string `long:"tabula-command" env:"TABULA_COMMAND" default:"java -jar /opt/tabula/tabula.jar" description:"Command used to extract tables from a plan"`
	TempDir       string `long:"temp-dir" env:"TEMP_DIR" default:"/tmp/substitution-bot" description:"Scratch directory for downloaded plans"`

	PollInterval  time.Duration `long:"poll-interval" env:"POLL_INTERVAL" default:"20s" description:"Time between poll launches"`
	CycleTimeout  time.Duration `long:"cycle-timeout" env:"CYCLE_TIMEOUT" default:"2m" description:"Upper bound for one poll cycle"`
	CheckNextDay  bool          `long:"check-next-day" env:"CHECK_NEXT_DAY" description:"Also poll the following school day on every tick"`
	SkipWeekends  bool          `long:"skip-weekends" env:"SKIP_WEEKENDS" description:"Do not poll on Saturdays and Sundays"`
	TrackedGroups []string      `long:"tracked-group" env:"TRACKED_GROUPS" env-delim:"," description:"Groups checked even without subscribers"`

	LogLevel    string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level"`
	Environment string `long:"environment" env:"ENVIRONMENT" default:"development" description:"Deployment environment"`
}

// Load reads configuration from environment variables, a .env file (if
// present) and command line flags.
func Load(args []string) (*AppConfig, error) {
	// Errors are ignored if the file doesn't exist. godotenv never overrides
	// variables that are already set.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, ErrHelpRequested
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	switch c.StorageDriver {
	case StorageDriverFile:
		if c.SubscribersFile == "" {
			return fmt.Errorf("SUBSCRIBERS_FILE is not set")
		}
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	// The school's plan server answers 401 without credentials.
	if c.DocumentURLTemplate == DefaultDocumentURLTemplate && c.DocumentSourcesFile == "" &&
		(c.DocumentUser == "" || c.DocumentPassword == "") {
		return fmt.Errorf("DOCUMENT_USER and DOCUMENT_PASSWORD are required for the default plan server")
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid POLL_INTERVAL %s", c.PollInterval)
	}

	c.LogLevel = strings.ToLower(c.LogLevel)
	c.Environment = strings.ToLower(c.Environment)

	groups := c.TrackedGroups[:0]
	for _, g := range c.TrackedGroups {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	c.TrackedGroups = groups

	return nil
}
