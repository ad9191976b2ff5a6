package record

import (
	"regexp"
	"strings"

	"clerkconnect/config"

	"github.com/PuerkitoBio/goquery"
)

var datePattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)

// ParseOnlineDocuments reads the online documents table, rows without a link are skipped
func ParseOnlineDocuments(doc *goquery.Document, base string) []Document {
	docs := []Document{}
	doc.Find(DocumentsContainer + " tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		link := row.Find("a[href]").First()
		href, _ := link.Attr("href")
		if !isDocumentHref(href) {
			return
		}

		title := textOf(link)
		if title == "" {
			title = textOf(cells.First())
		}
		docs = append(docs, Document{
			Title: title,
			Date:  rowDate(cells),
			Href:  config.ResolveURL(base, href),
		})
	})
	return docs
}

// rowDate is the first cell holding a date, the last cell otherwise
func rowDate(cells *goquery.Selection) string {
	date := ""
	cells.EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if m := datePattern.FindString(c.Text()); m != "" {
			date = m
			return false
		}
		return true
	})
	if date == "" && cells.Length() > 1 {
		date = textOf(cells.Last())
	}
	return date
}

func isDocumentHref(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(href), "javascript:")
}
