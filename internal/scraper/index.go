package scraper

import (
	"regexp"
	"strings"
	"time"

	"airwaves/internal/markup"
	"airwaves/internal/textutil"
)

// Discovery is one dated show link found on the index page.
type Discovery struct {
	Date        time.Time
	PlaylistURL string
	Title       string
	ExternalID  string
}

const showLinkSelector = `a[href*="/playlists/shows/"]`

var (
	callToActionPhrases = []string{"see the playlist", "find the show"}
	externalIDPattern   = regexp.MustCompile(`shows/(\d+)`)
	datePattern         = regexp.MustCompile(`(\w+\s+\d{1,2},\s+\d{4})|(\d{1,2}/\d{1,2}/\d{4})`)
	titleBoilerplate    = []*regexp.Regexp{
		regexp.MustCompile(`(?i)see the playlist`),
		regexp.MustCompile(`(?i)listen:`),
	}
	dateLayouts = []string{"January 2, 2006", "Jan 2, 2006", "1/2/2006"}
)

// DiscoverShows returns the index entries dated in year, in page order.
func DiscoverShows(doc markup.Node, year int, resolve func(string) (string, error)) []Discovery {
	var shows []Discovery
	for _, link := range doc.Find(showLinkSelector) {
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			continue
		}
		if !textutil.ContainsAnyFold(link.Text(), callToActionPhrases...) {
			continue
		}
		idMatch := externalIDPattern.FindStringSubmatch(href)
		if idMatch == nil {
			continue
		}
		var context string
		if item, ok := link.Closest("li"); ok {
			context = textutil.CollapseWhitespace(item.Text())
		}
		dateText := datePattern.FindString(context)
		if dateText == "" {
			continue
		}
		date, ok := ParseShowDate(dateText)
		if !ok || date.Year() != year {
			continue
		}
		playlistURL, err := resolve(href)
		if err != nil {
			continue
		}
		shows = append(shows, Discovery{
			Date:        date,
			PlaylistURL: playlistURL,
			Title:       DeriveTitle(context),
			ExternalID:  idMatch[1],
		})
	}
	return shows
}

// ParseShowDate parses "March 1, 2020", "Mar 1, 2020" or "3/1/2020".
func ParseShowDate(text string) (time.Time, bool) {
	text = textutil.CollapseWhitespace(text)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DeriveTitle strips the first date and the link boilerplate from an index
// entry. Remainders of three characters or fewer are not titles.
func DeriveTitle(context string) string {
	title := replaceFirst(datePattern, context)
	for _, pattern := range titleBoilerplate {
		title = replaceFirst(pattern, title)
	}
	title = strings.TrimSpace(title)
	if len(title) <= 3 {
		return ""
	}
	return title
}

func replaceFirst(pattern *regexp.Regexp, s string) string {
	loc := pattern.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}
