package registry

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mediagen/internal/domain"
)

// Endpoint holds the wiring needed to reach a provider's API. Providers
// without a base URL are served by the synthetic in-process generator.
type Endpoint struct {
	BaseURL string
	APIKey  string
}

type catalogProvider struct {
	ID                 string   `toml:"id"`
	DisplayName        string   `toml:"display_name"`
	Kinds              []string `toml:"kinds"`
	MaxDurationSeconds int      `toml:"max_duration_seconds"`
	QualityTiers       []string `toml:"quality_tiers"`
	Features           []string `toml:"features"`
	CostTier           int      `toml:"cost_tier"`
	ExpectedSeconds    int      `toml:"expected_seconds"`
	Callback           bool     `toml:"callback"`
	Reliability        float64  `toml:"reliability"`
	BaseURL            string   `toml:"base_url"`
	APIKeyEnv          string   `toml:"api_key_env"`
}

type catalogFile struct {
	Providers []catalogProvider `toml:"providers"`
}

const (
	defaultExpectedSeconds = 120
	defaultReliability     = 0.9
)

// LoadCatalog reads the provider catalog from a TOML file. The returned
// providers carry their seed stats; endpoints are keyed by provider id.
func LoadCatalog(path string) ([]domain.Provider, map[string]Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read provider catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog bytes.
func ParseCatalog(data []byte) ([]domain.Provider, map[string]Endpoint, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parse provider catalog: %w", err)
	}
	if len(file.Providers) == 0 {
		return nil, nil, fmt.Errorf("provider catalog is empty")
	}

	providers := make([]domain.Provider, 0, len(file.Providers))
	endpoints := make(map[string]Endpoint, len(file.Providers))
	seen := make(map[string]struct{}, len(file.Providers))
	for i, cp := range file.Providers {
		id := strings.TrimSpace(cp.ID)
		if id == "" {
			return nil, nil, fmt.Errorf("provider %d: id is required", i)
		}
		if _, dup := seen[id]; dup {
			return nil, nil, fmt.Errorf("provider %q: duplicate id", id)
		}
		seen[id] = struct{}{}

		kinds := make([]domain.JobKind, 0, len(cp.Kinds))
		for _, k := range cp.Kinds {
			switch kind := domain.JobKind(k); kind {
			case domain.JobKindPodcast, domain.JobKindVideo:
				kinds = append(kinds, kind)
			default:
				return nil, nil, fmt.Errorf("provider %q: unknown kind %q", id, k)
			}
		}
		if len(kinds) == 0 {
			return nil, nil, fmt.Errorf("provider %q: at least one kind is required", id)
		}
		if cp.MaxDurationSeconds <= 0 {
			return nil, nil, fmt.Errorf("provider %q: max_duration_seconds is required", id)
		}

		costTier := cp.CostTier
		if costTier < 1 {
			costTier = 1
		}
		if costTier > domain.MaxCostTier {
			costTier = domain.MaxCostTier
		}
		expected := cp.ExpectedSeconds
		if expected <= 0 {
			expected = defaultExpectedSeconds
		}
		reliability := cp.Reliability
		if reliability <= 0 || reliability > 1 {
			reliability = defaultReliability
		}

		providers = append(providers, domain.Provider{
			ID:          id,
			DisplayName: displayName(cp.DisplayName, id),
			Capabilities: domain.Capabilities{
				Kinds:              kinds,
				MaxDurationSeconds: cp.MaxDurationSeconds,
				QualityTiers:       cp.QualityTiers,
				Features:           cp.Features,
			},
			CostTier:        costTier,
			ExpectedSeconds: expected,
			Callback:        cp.Callback,
			Stats: domain.ProviderStats{
				Reliability:       reliability,
				AvgLatencySeconds: float64(expected),
			},
		})
		endpoints[id] = Endpoint{
			BaseURL: strings.TrimSpace(cp.BaseURL),
			APIKey:  os.Getenv(strings.TrimSpace(cp.APIKeyEnv)),
		}
	}
	return providers, endpoints, nil
}

var titleCaser = cases.Title(language.English)

func displayName(explicit, id string) string {
	if name := strings.TrimSpace(explicit); name != "" {
		return name
	}
	return titleCaser.String(strings.NewReplacer("-", " ", "_", " ").Replace(id))
}
