package rules

import "newsharvest/internal/models"

// DefaultThreshold is the cutoff used by the built-in sites.
const DefaultThreshold = "2017-01-01T00:00:00Z"

// ISO8601Layouts covers the datetime attribute forms published by Spiegel.
var ISO8601Layouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

const (
	Spiegel = "spiegel"
	Tonline = "tonline"
)

// Presets returns the built-in site configurations, keyed by name.
func Presets() map[string]models.SiteConfig {
	return map[string]models.SiteConfig{
		Spiegel: {
			Name:          Spiegel,
			AllowedDomain: "spiegel.de",
			StartURLs:     []string{"https://www.spiegel.de/"},
			Threshold:     DefaultThreshold,
			Rule: models.RuleConfig{
				LinkSelector:    "//a/@href",
				DateSelector:    "time::attr(datetime)",
				DateLayouts:     append([]string(nil), ISO8601Layouts...),
				BodySelector:    `//div[@data-sara-click-el="body_element"]//div[contains(@class, "RichText")]//p//text()`,
				ExcludeLinks:    []string{"abo."},
				IneligiblePaths: []string{"/international/"},
			},
		},
		Tonline: {
			Name:          Tonline,
			AllowedDomain: "t-online.de",
			StartURLs:     []string{"https://www.t-online.de/"},
			Threshold:     DefaultThreshold,
			Rule: models.RuleConfig{
				FrontPageLinkSelector: "//article//a/@href",
				LinkSelector:          "//a/@href",
				DateSelector:          "span.text-manatee.text-12.leading-15::text",
				DatePattern:           `(\d{2}\.\d{2}\.\d{4})`,
				DateLayouts:           []string{"02.01.2006"},
				BodySelector:          `//p[contains(@class, "text-18")]/text() | //p[contains(@class, "text-18")]//a/text()`,
				ExcludeLinks:          []string{"/podcasts/"},
				IneligiblePaths:       []string{"/podcasts/"},
			},
		},
	}
}

// PresetSites returns the built-in sites in a stable order.
func PresetSites() []models.SiteConfig {
	p := Presets()
	return []models.SiteConfig{p[Spiegel], p[Tonline]}
}
