package record

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

const recordURL = "https://cityclerk.lacity.org/lacityclerkconnect/index.cfm?fa=ccfi.viewrecord&cfnumber=20-0002-S64"

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseFields(t *testing.T) {
	doc := loadFixture(t, "record.html")

	expected := []Field{
		{Title: "Council File", Value: "20-0002-S64"},
		{Title: "Title", Value: "Legislative Program / SB 939 (Wiener) / COVID-19 Emergency Commercial Tenant Protections"},
		{Title: "Date Received / Introduced", Value: "04/29/2020"},
		{
			Title: "Council District",
			Value: "Citywide",
			Fields: []Field{
				{Title: "Mover", Value: "DAVID RYU"},
				{Title: "Second", Value: "PAUL KORETZ"},
			},
		},
	}

	fields := ParseFields(doc.Find(DetailContainer))
	if diff := cmp.Diff(expected, fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFieldsWrappedNodes(t *testing.T) {
	doc := mustDoc(t, `<div id="c">
		<div class="section"><span><b class="left">Status</b></span><p class="right">Pending</p></div>
		<div class="section"><div class="left">Only title</div></div>
	</div>`)

	fields := ParseFields(doc.Find("#c"))
	require.Equal(t, []Field{
		{Title: "Status", Value: "Pending"},
		{Title: "Only title"},
	}, fields)
}

func TestParseOnlineDocuments(t *testing.T) {
	doc := loadFixture(t, "record.html")

	expected := []Document{
		{
			Title: "Mayor Concurrence/Council Action",
			Date:  "05/22/2020",
			Href:  "https://clkrep.lacity.org/onlinedocs/2020/20-0002-S64_CAF_05-22-2020.pdf",
		},
		{
			Title: "Communication from Chief Legislative Analyst",
			Date:  "05/11/2020",
			Href:  "https://clkrep.lacity.org/onlinedocs/2020/20-0002-s64_rpt_CLA_05-11-2020.pdf",
		},
		{
			Title: "Resolution",
			Date:  "04/29/2020",
			Href:  "https://clkrep.lacity.org/onlinedocs/2020/20-0002-S64_reso_04-29-2020.pdf",
		},
	}

	require.Equal(t, expected, ParseOnlineDocuments(doc, recordURL))
}

func TestParseOnlineDocumentsMissingTable(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>nothing</p></body></html>`)
	docs := ParseOnlineDocuments(doc, recordURL)
	require.NotNil(t, docs)
	require.Empty(t, docs)
}

func TestParseVotes(t *testing.T) {
	doc := loadFixture(t, "record.html")

	votes := ParseVotes(doc)
	require.Len(t, votes, 2)

	first := votes[0]
	require.Equal(t, "05/20/2020", first.MeetingDate)
	require.Equal(t, "Regular", first.MeetingType)
	require.Equal(t, "Adopted", first.VoteAction)
	require.Equal(t, "(3 - 1 - 1)", first.VoteGiven)
	require.Len(t, first.Members, 5)
	require.Equal(t, Member{Name: "BOB BLUMENFIELD", District: "3", Vote: "NO"}, first.Members[2])
	require.Equal(t, Tally{Yes: 3, No: 1, Absent: 1}, first.Tally)

	second := votes[1]
	require.Equal(t, "Special", second.MeetingType)
	require.Empty(t, second.Members)
	require.Equal(t, Tally{Yes: 12, Absent: 3}, second.Tally)
}

func TestTallyCountsOtherVotes(t *testing.T) {
	v := Vote{Members: []Member{
		{Name: "A", Vote: "YES"},
		{Name: "B", Vote: "RECUSED"},
		{Name: "C", Vote: "ABSENT"},
	}}
	require.Equal(t, Tally{Yes: 1, Absent: 1, Other: 1}, tally(v))
}

func TestParseActivities(t *testing.T) {
	doc := loadFixture(t, "record.html")

	expected := []Activity{
		{
			Date:     "05/22/2020",
			Activity: "Mayor transmitted file to City Clerk.",
			PopupURL: "https://cityclerk.lacity.org/lacityclerkconnect/index.cfm?fa=ccfi.viewattachments&cfnumber=20-0002-S64&id=1",
			RowIndex: 1,
		},
		{
			Date:     "05/20/2020",
			Activity: "Council adopted item forthwith.",
			Attachments: []Attachment{
				{Title: "Vote", Href: "https://cityclerk.lacity.org/onlinedocs/2020/20-0002-S64_vote_05-20-2020.pdf"},
			},
			RowIndex: 2,
		},
		{
			Date:     "04/29/2020",
			Activity: "Document(s) referred to Rules, Elections, and Intergovernmental Relations Committee.",
			RowIndex: 3,
		},
	}

	if diff := cmp.Diff(expected, ParseActivities(doc, recordURL)); diff != "" {
		t.Fatalf("activities mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAttachments(t *testing.T) {
	doc := loadFixture(t, "popup.html")
	base := "https://cityclerk.lacity.org/lacityclerkconnect/index.cfm?fa=ccfi.viewattachments&cfnumber=20-0002-S64&id=1"

	require.Equal(t, []Attachment{
		{Title: "Mayor Concurrence", Href: "https://cityclerk.lacity.org/onlinedocs/2020/20-0002-S64_misc_05-22-2020.pdf"},
		{Title: "20-0002-S64_caf_05-22-2020.pdf", Href: "https://clkrep.lacity.org/onlinedocs/2020/20-0002-S64_caf_05-22-2020.pdf"},
	}, ParseAttachments(doc, base))
}

func TestPopupURL(t *testing.T) {
	cases := map[string]string{
		`window.open('index.cfm?fa=x&id=2','w')`: "index.cfm?fa=x&id=2",
		`javascript:window.open( "popup.cfm" )`:  "popup.cfm",
		`javascript:void(0)`:                     "",
		``:                                       "",
	}
	for in, want := range cases {
		require.Equal(t, want, PopupURL(in), in)
	}
}

func TestExtract(t *testing.T) {
	doc := loadFixture(t, "record.html")

	rec := Extract(doc, recordURL)
	require.Equal(t, recordURL, rec.URL)
	require.Equal(t, "20-0002-S64", rec.FileNumber)
	require.True(t, strings.HasPrefix(rec.Title, "Legislative Program"))
	require.Len(t, rec.OnlineDocuments, 3)
	require.Len(t, rec.Votes, 2)
	require.Len(t, rec.Activities, 3)
	require.False(t, rec.ScrapedAt.IsZero())

	mover, ok := rec.Field("mover")
	require.True(t, ok)
	require.Equal(t, "DAVID RYU", mover)

	_, ok = rec.Field("Not There")
	require.False(t, ok)
}

func TestExtractFileNumberFromURL(t *testing.T) {
	doc := mustDoc(t, `<div id="CFI_DataContent"><div class="section"><div class="left">Title</div><div class="right">Budget</div></div></div>`)

	rec := Extract(doc, "https://example.test/index.cfm?fa=ccfi.viewrecord&cfnumber=21-1234")
	require.Equal(t, "21-1234", rec.FileNumber)
	require.Equal(t, "Budget", rec.Title)
	require.Empty(t, rec.Votes)
}

func TestRecordDocuments(t *testing.T) {
	rec := Record{
		OnlineDocuments: []Document{{Title: "Report", Date: "01/02/2020", Href: "a.pdf"}},
		Activities: []Activity{
			{Date: "01/03/2020", Attachments: []Attachment{{Title: "Motion", Href: "b.pdf"}}},
			{Date: "01/04/2020"},
		},
	}

	want := []Document{
		{Title: "Report", Date: "01/02/2020", Href: "a.pdf"},
		{Title: "Motion", Date: "01/03/2020", Href: "b.pdf"},
	}
	if diff := cmp.Diff(want, rec.Documents(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("documents mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "a b c", CleanText("  a\n\t b   c​ "))
	require.Equal(t, "", CleanText(" \n "))
}
