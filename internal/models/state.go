package models

// CrawlState is the lifecycle position of a crawl run.
type CrawlState int32

const (
	StateIdle CrawlState = iota
	StateSeeding
	StateDraining
	StateDone
)

func (s CrawlState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSeeding:
		return "seeding"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// CrawlStats counts what happened to the pages of one crawl run.
type CrawlStats struct {
	PagesFetched     int `json:"pages_fetched"`
	FetchErrors      int `json:"fetch_errors"`
	LinksOffered     int `json:"links_offered"`
	LinksAccepted    int `json:"links_accepted"`
	RecordsEmitted   int `json:"records_emitted"`
	SkippedPath      int `json:"skipped_path"`
	SkippedNoDate    int `json:"skipped_no_date"`
	SkippedTooOld    int `json:"skipped_too_old"`
	SkippedEmptyBody int `json:"skipped_empty_body"`
	SkippedOffsite   int `json:"skipped_offsite"`
	SkippedDuplicate int `json:"skipped_duplicate"`
	DateErrors       int `json:"date_errors"`
	Pending          int `json:"pending"`
	Visited          int `json:"visited"`
}
