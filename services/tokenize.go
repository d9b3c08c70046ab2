package services

import (
	"regexp"
	"strings"

	"fipe-garimpo/models"
)

var yearRegexp = regexp.MustCompile(`\d{4}`)

// QueryFromTitle derives a best-effort (brand, model, year) query from a
// listing title: the year is the first 4-digit run anywhere in the title,
// brand and model are the first two whitespace tokens, lower-cased.
func QueryFromTitle(title string) models.ReferencePriceQuery {
	var q models.ReferencePriceQuery
	q.Year = yearRegexp.FindString(title)

	tokens := strings.Fields(title)
	if len(tokens) > 0 {
		q.Brand = strings.ToLower(tokens[0])
	}
	if len(tokens) > 1 {
		q.Model = strings.ToLower(tokens[1])
	}
	return q
}
