package output

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"clerkconnect/record"
)

const maxTitle = 60

// Summary renders one table row per record
func Summary(w io.Writer, records []*record.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"File", "Title", "Fields", "Documents", "Votes", "Activities", "Attachments"})

	var docs, votes, activities, attachments int
	for _, r := range records {
		n := 0
		for _, a := range r.Activities {
			n += len(a.Attachments)
		}
		t.AppendRow(table.Row{
			r.FileNumber,
			truncate(r.Title, maxTitle),
			len(r.Fields),
			len(r.OnlineDocuments),
			len(r.Votes),
			len(r.Activities),
			n,
		})
		docs += len(r.OnlineDocuments)
		votes += len(r.Votes)
		activities += len(r.Activities)
		attachments += n
	}

	t.AppendFooter(table.Row{"Total", len(records), "", docs, votes, activities, attachments})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
