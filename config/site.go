package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Site holds the City Clerk Connect endpoints
type Site struct {
	SearchURL string `yaml:"search_url" json:"search_url" validate:"required,url"`
	// RecordURL is a fmt template taking the council file number
	RecordURL string `yaml:"record_url" json:"record_url" validate:"required,contains=%s"`
}

// DefaultSite points at the Los Angeles City Clerk Connect
func DefaultSite() Site {
	return Site{
		SearchURL: "https://cityclerk.lacity.org/lacityclerkconnect/index.cfm?fa=c.search",
		RecordURL: "https://cityclerk.lacity.org/lacityclerkconnect/index.cfm?fa=ccfi.viewrecord&cfnumber=%s",
	}
}

// RecordURLFor returns the detail page URL of a council file
func (s Site) RecordURLFor(fileNumber string) string {
	return fmt.Sprintf(s.RecordURL, url.QueryEscape(strings.TrimSpace(fileNumber)))
}

// ResolveURL resolves href against base, returning href untouched when either fails to parse
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return href
	}
	return b.ResolveReference(ref).String()
}
