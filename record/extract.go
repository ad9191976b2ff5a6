package record

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Extract builds a Record from a loaded detail page, attachments behind popups are left to the caller
func Extract(doc *goquery.Document, pageURL string) *Record {
	r := &Record{
		URL:             pageURL,
		Fields:          ParseFields(doc.Find(DetailContainer).First()),
		OnlineDocuments: ParseOnlineDocuments(doc, pageURL),
		Votes:           ParseVotes(doc),
		Activities:      ParseActivities(doc, pageURL),
		ScrapedAt:       time.Now().UTC(),
	}

	r.Title, _ = r.Field(titleTitle)
	r.FileNumber = fileNumber(r, pageURL)
	return r
}

func fileNumber(r *Record, pageURL string) string {
	if v, ok := r.Field(fileNumberTitle); ok && v != "" {
		return v
	}
	if u, err := url.Parse(pageURL); err == nil {
		for key, vals := range u.Query() {
			if strings.EqualFold(key, "cfnumber") && len(vals) > 0 {
				return strings.TrimSpace(vals[0])
			}
		}
	}
	return ""
}
