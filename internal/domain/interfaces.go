package domain

import (
	"context"

	"newsharvest/internal/models"
	"newsharvest/internal/selector"
)

// Page is a fetched and parsed document. It is owned by the step that received it.
type Page interface {
	URL() string
	GetLinks() []string
	Resolve(href string) (string, error)
	Select(sel selector.Selector) []string
}

type Requester interface {
	Get(ctx context.Context, url string) (Page, error)
}

//Crawler - интерфейс (контракт) краулера
type Crawler interface {
	Scan(ctx context.Context, seeds []string) error
	ChanResult() <-chan models.CrawlResult
	State() models.CrawlState
	Stats() models.CrawlStats
}

// Sink receives emitted records one at a time and owns their persistence.
type Sink interface {
	Write(ctx context.Context, rec models.ArticleRecord) error
	Close() error
}
