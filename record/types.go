// Package record extracts council file records from City Clerk Connect pages
package record

import (
	"strings"
	"time"
)

// Record is everything scraped from one council file detail page
type Record struct {
	URL             string     `json:"url"`
	FileNumber      string     `json:"file_number"`
	Title           string     `json:"title"`
	Fields          []Field    `json:"fields"`
	OnlineDocuments []Document `json:"online_documents"`
	Votes           []Vote     `json:"votes"`
	Activities      []Activity `json:"file_activities"`
	ScrapedAt       time.Time  `json:"scraped_at"`
}

// Field is a title/value pair from a section node, nested sections end up in Fields
type Field struct {
	Title  string  `json:"title"`
	Value  string  `json:"value,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// Document is a row of the online documents table
type Document struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Href  string `json:"href"`
}

// Vote is one council vote on the file
type Vote struct {
	MeetingDate string   `json:"meeting_date"`
	MeetingType string   `json:"meeting_type,omitempty"`
	VoteAction  string   `json:"vote_action,omitempty"`
	VoteGiven   string   `json:"vote_given,omitempty"`
	Members     []Member `json:"members,omitempty"`
	Tally       Tally    `json:"tally"`
}

// Member is how a single council member voted
type Member struct {
	Name     string `json:"name"`
	District string `json:"district,omitempty"`
	Vote     string `json:"vote"`
}

// Tally counts the member votes of a Vote
type Tally struct {
	Yes    int `json:"yes"`
	No     int `json:"no"`
	Absent int `json:"absent"`
	Other  int `json:"other"`
}

// Activity is a row of the file activities table
type Activity struct {
	Date        string       `json:"date"`
	Activity    string       `json:"activity"`
	Attachments []Attachment `json:"attachments,omitempty"`

	// PopupURL is the attachment list opened by the row, if any
	PopupURL string `json:"-"`
	// RowIndex is the position of the row among all rows of the activities table
	RowIndex int `json:"-"`
}

// Attachment is a document linked from a file activity
type Attachment struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// Field looks up a primary field by title, case insensitive, searching nested fields too
func (r *Record) Field(title string) (string, bool) {
	return findField(r.Fields, title)
}

func findField(fields []Field, title string) (string, bool) {
	for _, f := range fields {
		if strings.EqualFold(f.Title, title) {
			return f.Value, true
		}
		if v, ok := findField(f.Fields, title); ok {
			return v, true
		}
	}
	return "", false
}

// Documents lists the online documents followed by every activity attachment
func (r *Record) Documents() []Document {
	docs := make([]Document, 0, len(r.OnlineDocuments))
	docs = append(docs, r.OnlineDocuments...)
	for _, a := range r.Activities {
		for _, att := range a.Attachments {
			docs = append(docs, Document{Title: att.Title, Date: a.Date, Href: att.Href})
		}
	}
	return docs
}
