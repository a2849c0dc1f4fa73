package domain

import (
	"errors"
	"fmt"
)

// ErrOffsite is wrapped by a FetchError for URLs outside the site's allowed domain.
// The fetch layer refuses them without a request.
var ErrOffsite = errors.New("url outside allowed domain")

// FetchError reports that a URL could not be turned into a Page.
// The crawl treats it as an accepted loss: the page is simply not processed.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
