package record

import (
	"path"
	"regexp"
	"strings"

	"clerkconnect/config"

	"github.com/PuerkitoBio/goquery"
)

var popupPattern = regexp.MustCompile(`window\.open\(\s*['"]([^'"]+)['"]`)

// PopupURL extracts the target of a window.open(...) call, empty when there is none
func PopupURL(script string) string {
	m := popupPattern.FindStringSubmatch(script)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ParseActivities reads the file activities table. Plain document links in a row
// become attachments, a link opening a popup is kept in PopupURL for the browser.
func ParseActivities(doc *goquery.Document, base string) []Activity {
	activities := []Activity{}
	doc.Find(ActivitiesContainer + " tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		a := Activity{
			Date:     textOf(cells.Eq(0)),
			Activity: textOf(cells.Eq(1)),
			RowIndex: i,
		}
		if a.Date == "" && a.Activity == "" {
			return
		}

		row.Find("a").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			onclick, _ := link.Attr("onclick")
			if popup := PopupURL(onclick + " " + href); popup != "" {
				a.PopupURL = config.ResolveURL(base, popup)
				return
			}
			if !isDocumentHref(href) {
				return
			}
			a.Attachments = append(a.Attachments, newAttachment(link, base, href))
		})
		activities = append(activities, a)
	})
	return activities
}

// ParseAttachments reads the links of an attachment popup page
func ParseAttachments(doc *goquery.Document, base string) []Attachment {
	scope := doc.Find(AttachmentContainer)
	if scope.Length() == 0 {
		scope = doc.Find("body")
	}

	attachments := []Attachment{}
	seen := map[string]bool{}
	scope.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !isDocumentHref(href) || PopupURL(href) != "" {
			return
		}
		att := newAttachment(link, base, href)
		if seen[att.Href] {
			return
		}
		seen[att.Href] = true
		attachments = append(attachments, att)
	})
	return attachments
}

func newAttachment(link *goquery.Selection, base, href string) Attachment {
	resolved := config.ResolveURL(base, href)
	title := textOf(link)
	if title == "" {
		title, _ = link.Attr("title")
		title = CleanText(title)
	}
	if title == "" {
		title = path.Base(strings.SplitN(resolved, "?", 2)[0])
	}
	return Attachment{Title: title, Href: resolved}
}
