package rules

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsharvest/internal/domain"
	"newsharvest/internal/models"
	"newsharvest/internal/page"
)

const spiegelArticle = `<html><body>
	<a href="/politik/deutschland/artikel-a">A</a>
	<a href="https://abo.spiegel.de/angebot">Abo</a>
	<a href="mailto:leserbriefe@spiegel.de">Mail</a>
	<a href="/international/world/b">B</a>
	<time datetime="2018-05-01 10:15:00">1. Mai 2018</time>
	<div data-sara-click-el="body_element">
		<div class="RichText RichText--iconLinks"><p>  Erster Absatz. </p><p>Zweiter <a href="/x">Link</a> Absatz.</p></div>
	</div>
	<div class="RichText"><p>Nicht im Artikel</p></div>
</body></html>`

const tonlineFront = `<html><body>
	<nav><a href="/nachrichten/">Nachrichten</a></nav>
	<article><a href="/nachrichten/id_1/artikel.html">Eins</a></article>
	<article><a href="/podcasts/id_2/folge.html">Podcast</a></article>
</body></html>`

const tonlineArticle = `<html><body>
	<span class="text-manatee text-12 leading-15">Aktualisiert am 03.02.2019 - 14:32 Uhr</span>
	<p class="text-18 leading-24">Erster <a href="/y">Teil</a> des Textes.</p>
	<p class="text-16">Werbung</p>
</body></html>`

func newTestPage(t *testing.T, url, body string) domain.Page {
	t.Helper()
	p, err := page.NewPage(url, strings.NewReader(body), nil)
	require.NoError(t, err)
	return p
}

func mustPreset(t *testing.T, name string) *Rule {
	t.Helper()
	r, err := Compile(Presets()[name].Rule)
	require.NoError(t, err)
	return r
}

func TestSpiegel_CandidateLinks(t *testing.T) {
	r := mustPreset(t, Spiegel)
	p := newTestPage(t, "https://www.spiegel.de/politik/x", spiegelArticle)

	links := r.CandidateLinks(p, false)
	assert.Equal(t, []string{
		"https://www.spiegel.de/politik/deutschland/artikel-a",
		"https://www.spiegel.de/international/world/b",
		"https://www.spiegel.de/x",
	}, links)
	for _, l := range links {
		assert.NotContains(t, l, "abo.")
	}
}

func TestCandidateLinks_AllAnchorsWithoutSelector(t *testing.T) {
	cfg := Presets()[Spiegel].Rule
	cfg.LinkSelector = ""
	r, err := Compile(cfg)
	require.NoError(t, err)
	p := newTestPage(t, "https://www.spiegel.de/politik/x", spiegelArticle)

	assert.Equal(t, mustPreset(t, Spiegel).CandidateLinks(p, false), r.CandidateLinks(p, false))
	assert.Len(t, r.CandidateLinks(p, true), 3)
}

func TestSpiegel_Extraction(t *testing.T) {
	r := mustPreset(t, Spiegel)
	p := newTestPage(t, "https://www.spiegel.de/politik/x", spiegelArticle)

	raw, ok := r.ExtractDate(p)
	require.True(t, ok)
	assert.Equal(t, "2018-05-01 10:15:00", raw)

	at, err := r.ParseDate(raw)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 5, 1, 10, 15, 0, 0, time.UTC), at)

	assert.Equal(t, "Erster Absatz. Zweiter Link Absatz.", JoinBody(r.ExtractBody(p)))

	assert.True(t, r.IsEligible("https://www.spiegel.de/politik/x"))
	assert.False(t, r.IsEligible("https://www.spiegel.de/international/world/b"))
}

func TestTonline_FrontPageLinks(t *testing.T) {
	r := mustPreset(t, Tonline)
	p := newTestPage(t, "https://www.t-online.de/", tonlineFront)

	assert.Equal(t, []string{"https://www.t-online.de/nachrichten/id_1/artikel.html"}, r.CandidateLinks(p, true))
	assert.Equal(t, []string{
		"https://www.t-online.de/nachrichten/",
		"https://www.t-online.de/nachrichten/id_1/artikel.html",
	}, r.CandidateLinks(p, false))
}

func TestTonline_Extraction(t *testing.T) {
	r := mustPreset(t, Tonline)
	p := newTestPage(t, "https://www.t-online.de/nachrichten/id_1/artikel.html", tonlineArticle)

	raw, ok := r.ExtractDate(p)
	require.True(t, ok)
	assert.Equal(t, "03.02.2019", raw)

	at, err := r.ParseDate(raw)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, 2, 3, 0, 0, 0, 0, time.UTC), at)

	assert.Equal(t, "Erster Teil des Textes.", JoinBody(r.ExtractBody(p)))
	assert.False(t, r.IsEligible("https://www.t-online.de/podcasts/id_2/folge.html"))
}

func TestParseDate_DiscardsOffset(t *testing.T) {
	r := mustPreset(t, Spiegel)
	at, err := r.ParseDate("2017-01-01T00:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2017, 1, 1, 0, 30, 0, 0, time.UTC), at)
}

func TestParseDate_FormatError(t *testing.T) {
	r := mustPreset(t, Tonline)
	_, err := r.ParseDate("31.13.2019")

	var dfe *DateFormatError
	require.ErrorAs(t, err, &dfe)
	assert.Equal(t, "31.13.2019", dfe.Raw)
}

func TestExtractDate_Absent(t *testing.T) {
	r := mustPreset(t, Tonline)
	p := newTestPage(t, "https://www.t-online.de/", tonlineFront)
	_, ok := r.ExtractDate(p)
	assert.False(t, ok)
	assert.Empty(t, r.ExtractBody(p))
}

func TestJoinBody(t *testing.T) {
	assert.Equal(t, "Hello world", JoinBody([]string{"  Hello ", "world  "}))
	assert.Equal(t, "", JoinBody([]string{"  ", "\n\t", ""}))
	assert.Equal(t, "", JoinBody(nil))
}

func TestCompile_Validation(t *testing.T) {
	valid := Presets()[Spiegel].Rule

	tests := []struct {
		name   string
		mutate func(c *models.RuleConfig)
		want   error
	}{
		{"no date selector", func(c *models.RuleConfig) { c.DateSelector = " " }, errNoDateSelector},
		{"no layouts", func(c *models.RuleConfig) { c.DateLayouts = nil }, errNoDateLayouts},
		{"no body selector", func(c *models.RuleConfig) { c.BodySelector = "" }, errNoBodySelector},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := Compile(cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	cfg := valid
	cfg.DatePattern = "(["
	_, err := Compile(cfg)
	assert.Error(t, err)

	cfg = valid
	cfg.BodySelector = "//p["
	_, err = Compile(cfg)
	assert.Error(t, err)
}
