package page

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"newsharvest/internal/selector"
)

var (
	errIncorrectURL   = errors.New("page url must be absolute")
	errUnsupportedRef = errors.New("unsupported link scheme")
)

type page struct {
	url  *url.URL
	doc  *goquery.Document
	slog *zap.SugaredLogger
}

// NewPage parses raw as HTML served at pageURL. pageURL is the final URL after
// redirects and is the base for resolving relative links.
func NewPage(pageURL string, raw io.Reader, slog *zap.SugaredLogger) (*page, error) {
	if slog == nil {
		slog = zap.NewNop().Sugar()
	}
	u, err := url.Parse(pageURL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q", errIncorrectURL, pageURL)
	}
	doc, err := goquery.NewDocumentFromReader(raw)
	if err != nil {
		slog.Debugf("can't be parsed: %s", err)
		return nil, err
	}
	return &page{url: u, doc: doc, slog: slog}, nil
}

func (p *page) URL() string {
	return p.url.String()
}

// GetLinks returns the raw href of every anchor in document order.
func (p *page) GetLinks() []string {
	var urls []string
	p.doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		url, ok := s.Attr("href")
		if ok {
			urls = append(urls, url)
		}
	})
	return urls
}

// Resolve turns href into an absolute http(s) URL relative to the page.
// Query and fragment are kept as they are.
func (p *page) Resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	abs := p.url.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", errUnsupportedRef, href)
	}
	return abs.String(), nil
}

func (p *page) Select(sel selector.Selector) []string {
	return sel.Eval(p.doc)
}
