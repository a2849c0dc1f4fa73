package models

// ArticleRecord is the unit emitted for every qualifying article.
// Content is never empty and Date is the string exactly as found on the page.
type ArticleRecord struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

// CrawlResult is published by the crawler for every emitted record and for every
// page-level failure. Exactly one of Record and Err is set.
type CrawlResult struct {
	URL    string
	Record *ArticleRecord
	Err    error
}
