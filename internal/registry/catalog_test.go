package registry

import (
	"strings"
	"testing"

	"mediagen/internal/domain"
)

const sampleCatalog = `
[[providers]]
id = "cinegen"
kinds = ["video"]
max_duration_seconds = 900
quality_tiers = ["standard", "premium"]
features = ["subtitles"]
cost_tier = 4
expected_seconds = 300
reliability = 0.93
callback = true
base_url = "https://api.cinegen.example"
api_key_env = "CINEGEN_API_KEY"

[[providers]]
id = "quick_clip"
kinds = ["video", "podcast"]
max_duration_seconds = 300
`

func TestParseCatalog(t *testing.T) {
	providers, endpoints, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("len(providers) = %d, want 2", len(providers))
	}

	cine := providers[0]
	if cine.ID != "cinegen" {
		t.Fatalf("providers[0].ID = %q, want cinegen", cine.ID)
	}
	if !cine.Callback {
		t.Fatalf("cinegen should be callback-capable")
	}
	if cine.Stats.Reliability != 0.93 {
		t.Fatalf("cinegen seed reliability = %v, want 0.93", cine.Stats.Reliability)
	}
	if ep := endpoints["cinegen"]; ep.BaseURL != "https://api.cinegen.example" {
		t.Fatalf("cinegen base url = %q", ep.BaseURL)
	}

	quick := providers[1]
	if quick.DisplayName != "Quick Clip" {
		t.Fatalf("derived display name = %q, want %q", quick.DisplayName, "Quick Clip")
	}
	if quick.CostTier != 1 {
		t.Fatalf("default cost tier = %d, want 1", quick.CostTier)
	}
	if quick.ExpectedSeconds != defaultExpectedSeconds {
		t.Fatalf("default expected seconds = %d, want %d", quick.ExpectedSeconds, defaultExpectedSeconds)
	}
	if quick.Stats.Reliability != defaultReliability {
		t.Fatalf("default reliability = %v, want %v", quick.Stats.Reliability, defaultReliability)
	}
	if !quick.Capabilities.SupportsKind(domain.JobKindPodcast) {
		t.Fatalf("quick_clip should support podcast")
	}
}

func TestParseCatalogRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		toml string
		want string
	}{
		{"empty", "", "catalog is empty"},
		{"missing id", "[[providers]]\nkinds = [\"video\"]\nmax_duration_seconds = 10\n", "id is required"},
		{"duplicate id", sampleCatalog + "\n[[providers]]\nid = \"cinegen\"\nkinds = [\"video\"]\nmax_duration_seconds = 10\n", "duplicate id"},
		{"unknown kind", "[[providers]]\nid = \"x\"\nkinds = [\"hologram\"]\nmax_duration_seconds = 10\n", "unknown kind"},
		{"no kinds", "[[providers]]\nid = \"x\"\nmax_duration_seconds = 10\n", "at least one kind"},
		{"no duration", "[[providers]]\nid = \"x\"\nkinds = [\"video\"]\n", "max_duration_seconds"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseCatalog([]byte(tc.toml))
			if err == nil {
				t.Fatalf("ParseCatalog accepted invalid catalog")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %q, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestParseCatalogClampsCostTier(t *testing.T) {
	providers, _, err := ParseCatalog([]byte("[[providers]]\nid = \"x\"\nkinds = [\"video\"]\nmax_duration_seconds = 10\ncost_tier = 42\n"))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if providers[0].CostTier != domain.MaxCostTier {
		t.Fatalf("cost tier = %d, want clamp to %d", providers[0].CostTier, domain.MaxCostTier)
	}
}
