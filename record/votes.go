package record

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var voteGivenPattern = regexp.MustCompile(`\(\s*(\d+)\s*-\s*(\d+)\s*-\s*(\d+)\s*\)`)

// ParseVotes walks the votes container in document order. A Meeting Date
// section opens a new vote, the sections and member tables after it belong
// to that vote until the next Meeting Date.
func ParseVotes(doc *goquery.Document) []Vote {
	container := doc.Find(VotesContainer).First()
	votes := []Vote{}
	if container.Length() == 0 {
		return votes
	}

	var cur *Vote
	container.Find(sectionSel + ", table").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "table" {
			if cur != nil {
				cur.Members = append(cur.Members, parseMembers(s)...)
			}
			return
		}
		if s.ParentsUntilSelection(container).Filter(sectionSel).Length() > 0 {
			return
		}
		f, ok := parseSection(s)
		if !ok {
			return
		}
		switch {
		case strings.EqualFold(f.Title, meetingDateTitle):
			votes = append(votes, Vote{MeetingDate: f.Value})
			cur = &votes[len(votes)-1]
		case cur == nil:
		case strings.EqualFold(f.Title, meetingTypeTitle):
			cur.MeetingType = f.Value
		case strings.EqualFold(f.Title, voteActionTitle):
			cur.VoteAction = f.Value
		case strings.EqualFold(f.Title, voteGivenTitle):
			cur.VoteGiven = f.Value
		}
	})

	for i := range votes {
		votes[i].Tally = tally(votes[i])
	}
	return votes
}

func parseMembers(table *goquery.Selection) []Member {
	members := []Member{}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		var m Member
		switch cells.Length() {
		case 2:
			m = Member{Name: textOf(cells.Eq(0)), Vote: textOf(cells.Eq(1))}
		case 3:
			m = Member{Name: textOf(cells.Eq(0)), District: textOf(cells.Eq(1)), Vote: textOf(cells.Eq(2))}
		default:
			return
		}
		if m.Name == "" {
			return
		}
		m.Vote = strings.ToUpper(m.Vote)
		members = append(members, m)
	})
	return members
}

// tally counts member votes, falling back to the "(yes - no - absent)" summary
func tally(v Vote) Tally {
	var t Tally
	if len(v.Members) == 0 {
		if m := voteGivenPattern.FindStringSubmatch(v.VoteGiven); m != nil {
			t.Yes, _ = strconv.Atoi(m[1])
			t.No, _ = strconv.Atoi(m[2])
			t.Absent, _ = strconv.Atoi(m[3])
		}
		return t
	}
	for _, m := range v.Members {
		switch m.Vote {
		case "YES", "Y", "AYE":
			t.Yes++
		case "NO", "N", "NAY":
			t.No++
		case "ABSENT", "A":
			t.Absent++
		default:
			t.Other++
		}
	}
	return t
}
