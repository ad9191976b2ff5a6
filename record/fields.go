package record

import (
	"github.com/PuerkitoBio/goquery"
)

var sectionMatcher = goquery.Single(sectionSel)

// ParseFields walks the sections of container in document order and returns
// their title/value pairs. A right node holding sections of its own produces
// nested fields, its remaining text becomes the value.
func ParseFields(container *goquery.Selection) []Field {
	fields := []Field{}
	topSections(container).Each(func(_ int, s *goquery.Selection) {
		if f, ok := parseSection(s); ok {
			fields = append(fields, f)
		}
	})
	return fields
}

// topSections are the sections under container with no other section in between
func topSections(container *goquery.Selection) *goquery.Selection {
	return container.Find(sectionSel).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsUntilSelection(container).Filter(sectionSel).Length() == 0
	})
}

// own returns the first match of sel that belongs to section s and not to a nested section
func own(s *goquery.Selection, sel string) *goquery.Selection {
	if direct := s.ChildrenFiltered(sel); direct.Length() > 0 {
		return direct.First()
	}
	return s.Find(sel).FilterFunction(func(_ int, x *goquery.Selection) bool {
		return x.ParentsUntilSelection(s).Filter(sectionSel).Length() == 0
	}).First()
}

func parseSection(s *goquery.Selection) (Field, bool) {
	f := Field{Title: trimLabel(textOf(own(s, leftSel)))}
	if f.Title == "" {
		return f, false
	}

	right := own(s, rightSel)
	if right.Length() == 0 {
		return f, true
	}
	if right.Find(sectionSel).Length() == 0 {
		f.Value = textOf(right)
		return f, true
	}

	f.Value = textExcluding(right, sectionMatcher)
	nested := ParseFields(right)
	if len(nested) > 0 {
		f.Fields = nested
	}
	return f, true
}

// trimLabel drops the trailing colon the site puts on some titles
func trimLabel(s string) string {
	for len(s) > 0 && s[len(s)-1] == ':' {
		s = s[:len(s)-1]
	}
	return CleanText(s)
}
