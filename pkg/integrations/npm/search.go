package npm

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/matzehuels/npmreg/pkg/errors"
)

// MaxSearchSize is the largest page the search endpoint returns.
const MaxSearchSize = 250

// SearchCriteria are the query parameters of a package search. Zero values
// are left out of the query so the registry applies its defaults.
type SearchCriteria struct {
	// Text is the full-text query. It supports the registry's qualifiers,
	// such as "author:sindresorhus" or "keywords:cli".
	Text string

	// Size is the number of results to return, at most MaxSearchSize.
	Size int

	// From is the offset of the first result.
	From int

	// Quality, Popularity and Maintenance weight the ranking, each in [0, 1].
	Quality     float64
	Popularity  float64
	Maintenance float64
}

// Validate checks the criteria before any request is made.
func (c SearchCriteria) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "search text is required")
	}
	if c.Size < 0 || c.Size > MaxSearchSize {
		return errors.New(errors.ErrCodeInvalidInput, "search size %d out of range [0, %d]", c.Size, MaxSearchSize)
	}
	if c.From < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "search offset %d is negative", c.From)
	}
	for name, w := range map[string]float64{
		"quality":     c.Quality,
		"popularity":  c.Popularity,
		"maintenance": c.Maintenance,
	} {
		if w < 0 || w > 1 {
			return errors.New(errors.ErrCodeInvalidInput, "search %s weight %v out of range [0, 1]", name, w)
		}
	}
	return nil
}

// Query encodes the criteria as URL query parameters, sorted by key.
func (c SearchCriteria) Query() url.Values {
	q := url.Values{}
	q.Set("text", c.Text)
	if c.Size > 0 {
		q.Set("size", strconv.Itoa(c.Size))
	}
	if c.From > 0 {
		q.Set("from", strconv.Itoa(c.From))
	}
	setWeight := func(key string, w float64) {
		if w > 0 {
			q.Set(key, strconv.FormatFloat(w, 'f', -1, 64))
		}
	}
	setWeight("quality", c.Quality)
	setWeight("popularity", c.Popularity)
	setWeight("maintenance", c.Maintenance)
	return q
}
