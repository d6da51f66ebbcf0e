// Package config loads scraper settings from a JSON settings file in
// the user config directory, with YTLEADS_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/leadhunt/ytleads/internal/domain"
)

// DefaultAllowedCountries is the stock allow-set (ISO 3166-1 alpha-2):
// US/CA/GB/AU plus the African states. Set allowed_countries to an
// empty list to allow all countries.
var DefaultAllowedCountries = []string{
	"US", "CA", "GB", "AU",
	"DZ", "AO", "BJ", "BW", "BF", "BI", "CM", "CV", "CF", "TD", "KM", "CG", "CD", "DJ", "EG",
	"GQ", "ER", "SZ", "ET", "GA", "GM", "GH", "GN", "GW", "KE", "LS", "LR", "LY", "MG", "MW",
	"ML", "MR", "MU", "MA", "MZ", "NA", "NE", "NG", "RW", "ST", "SN", "SC", "SL", "SO", "ZA",
	"SS", "SD", "TZ", "TG", "TN", "UG", "ZM", "ZW",
}

// Settings carries everything the scraper needs beyond per-run params.
type Settings struct {
	APIKeys            []string `mapstructure:"api_keys"`
	SheetID            string   `mapstructure:"sheet_id"`
	SheetName          string   `mapstructure:"sheet_name"`
	ServiceAccountFile string   `mapstructure:"service_account_file"`
	CheckpointFile     string   `mapstructure:"checkpoint_file"`
	AllowedCountries   []string `mapstructure:"allowed_countries"`
	MaxResultsPerPage  int64    `mapstructure:"max_results_per_page"`
	MaxValidPerKeyword int      `mapstructure:"max_valid_per_keyword"`
	Workers            int      `mapstructure:"workers"`
}

// Load reads settings from path, or from the default location
// (~/.config/ytleads/settings.json) when path is empty. A missing file
// yields the defaults; environment variables like YTLEADS_API_KEYS
// override file values either way.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetDefault("sheet_name", "Sheet1")
	v.SetDefault("checkpoint_file", "youtube_checkpoint.json")
	v.SetDefault("allowed_countries", DefaultAllowedCountries)
	v.SetDefault("max_results_per_page", 50)
	v.SetDefault("max_valid_per_keyword", 100)
	v.SetDefault("workers", 5)

	v.SetEnvPrefix("ytleads")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// AutomaticEnv alone does not surface env-only keys to Unmarshal.
	for _, key := range []string{"api_keys", "sheet_id", "service_account_file"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserConfigDir()
		if err == nil {
			v.SetConfigFile(filepath.Join(home, "ytleads", "settings.json"))
		}
	}
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	// Env vars supply the key list as one comma-separated string.
	if len(s.APIKeys) == 1 && strings.Contains(s.APIKeys[0], ",") {
		s.APIKeys = strings.Split(s.APIKeys[0], ",")
	}
	var keys []string
	for _, k := range s.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	s.APIKeys = keys

	return &s, nil
}

// Validate fails fast, before any network call, on configuration the
// scraper cannot run without.
func (s *Settings) Validate() error {
	if len(s.APIKeys) == 0 {
		return errors.New("no YouTube API keys configured (api_keys / YTLEADS_API_KEYS)")
	}
	if s.SheetID == "" {
		return errors.New("sheet_id is not configured")
	}
	if s.SheetName == "" {
		return errors.New("sheet_name is not configured")
	}
	if s.ServiceAccountFile == "" {
		return errors.New("service_account_file is not configured")
	}
	return nil
}

// FilterConfig builds the process-wide filter limits from settings.
func (s *Settings) FilterConfig() domain.FilterConfig {
	allowed := make(map[string]struct{}, len(s.AllowedCountries))
	for _, c := range s.AllowedCountries {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			allowed[c] = struct{}{}
		}
	}
	return domain.FilterConfig{
		AllowedCountries:   allowed,
		MaxResultsPerPage:  s.MaxResultsPerPage,
		MaxValidPerKeyword: s.MaxValidPerKeyword,
	}
}
