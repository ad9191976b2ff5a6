package clerk

import (
	"regexp"
	"strings"

	"clerkconnect/config"
	"clerkconnect/record"

	"github.com/PuerkitoBio/goquery"
)

var rowDatePattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)

// Row is one search result of a listing page
type Row struct {
	FileNumber string `json:"file_number"`
	Title      string `json:"title"`
	Date       string `json:"date,omitempty"`
	Href       string `json:"href"`
}

// ParseResults reads the rows of the result table, the first row is the header
func ParseResults(doc *goquery.Document, base string) []Row {
	rows := []Row{}
	doc.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := tr.Find("td")
		link := tr.Find("a[href]").First()
		href, ok := link.Attr("href")
		if cells.Length() == 0 || !ok {
			return
		}

		r := Row{
			FileNumber: record.CleanText(link.Text()),
			Href:       config.ResolveURL(base, href),
		}
		if r.FileNumber == "" {
			r.FileNumber = record.CleanText(cells.First().Text())
		}
		if cells.Length() > 1 {
			r.Title = record.CleanText(cells.Eq(1).Text())
		}
		r.Date = rowDatePattern.FindString(tr.Text())
		rows = append(rows, r)
	})
	return rows
}

// isNoResults tells whether the listing banner announces an empty search
func isNoResults(banner string) bool {
	return strings.Contains(strings.ToLower(banner), noResultsText)
}
