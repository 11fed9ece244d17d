package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

const (
	defaultEnvFile = ".env"

	// Storage pricing fallback applied when a tenant has no configured
	// StoragePricing row. Fees must always be computable, so these values
	// are never allowed to be absent.
	defaultStorageFreeDays  = 7
	defaultStorageDailyRate = 2.00
	defaultStorageCurrency  = "USD"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Firestore      FirestoreConfig
	StorageDefault StorageDefaultConfig
	LogLevel       string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// StorageDefaultConfig is the fallback storage pricing used when a tenant
// has no active StoragePricing row.
type StorageDefaultConfig struct {
	FreeDays  int
	DailyRate float64
	Currency  string
}

// Option customises configuration loading.
type Option func(*loader)

type loader struct {
	envFile string
	lookup  func(string) (string, bool)
}

// WithEnvFile overrides the .env file consulted before process env vars.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		l.envFile = path
	}
}

// WithLookup overrides environment lookup, used by tests.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(l *loader) {
		if lookup != nil {
			l.lookup = lookup
		}
	}
}

// Load assembles Config from the environment, falling back to the optional
// .env file for keys absent from the process environment.
func Load(opts ...Option) (Config, error) {
	l := &loader{envFile: defaultEnvFile, lookup: os.LookupEnv}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	fileVals, err := readEnvFile(l.envFile)
	if err != nil {
		return Config{}, err
	}

	get := func(key string) string {
		if val, ok := l.lookup(key); ok {
			return strings.TrimSpace(val)
		}
		return strings.TrimSpace(fileVals[key])
	}

	cfg := Config{
		Firestore: FirestoreConfig{
			ProjectID:    get("FIRESTORE_PROJECT_ID"),
			EmulatorHost: get("FIRESTORE_EMULATOR_HOST"),
		},
		StorageDefault: StorageDefaultConfig{
			FreeDays:  defaultStorageFreeDays,
			DailyRate: defaultStorageDailyRate,
			Currency:  defaultStorageCurrency,
		},
		LogLevel: get("LOG_LEVEL"),
	}

	if raw := get("STORAGE_DEFAULT_FREE_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return Config{}, fmt.Errorf("config: invalid STORAGE_DEFAULT_FREE_DAYS %q", raw)
		}
		cfg.StorageDefault.FreeDays = days
	}
	if raw := get("STORAGE_DEFAULT_DAILY_RATE"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate < 0 {
			return Config{}, fmt.Errorf("config: invalid STORAGE_DEFAULT_DAILY_RATE %q", raw)
		}
		cfg.StorageDefault.DailyRate = rate
	}
	if raw := get("STORAGE_DEFAULT_CURRENCY"); raw != "" {
		unit, err := currency.ParseISO(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid STORAGE_DEFAULT_CURRENCY %q", raw)
		}
		cfg.StorageDefault.Currency = unit.String()
	}

	return cfg, nil
}

// readEnvFile parses KEY=VALUE lines, ignoring comments and blank lines.
// A missing file is not an error.
func readEnvFile(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: open env file %s: %w", path, err)
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key != "" {
			values[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}
