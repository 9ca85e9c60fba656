package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"airwaves/internal/catalog"
	"airwaves/internal/markup"
	"airwaves/internal/textutil"
)

var (
	yearPattern      = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	artistTitleSplit = regexp.MustCompile(`^(.+?)\s*[-–]\s*(.+?)$`)
)

const fallbackTrackSelector = `.playlist-item, .track, [class*="playlist"]`

// ParseTracks reads the playlist table. When no table row yields a track the
// "Artist - Title" item fallback is used. Table positions are source row
// indexes, so a skipped row leaves a gap.
func ParseTracks(doc markup.Node) []catalog.Track {
	var tracks []catalog.Track
	for index, row := range doc.Find("table tr") {
		if index == 0 {
			continue
		}
		cells := row.Find("td")
		if len(cells) < 2 {
			continue
		}
		if track, ok := trackFromCells(cells); ok {
			track.Position = index
			tracks = append(tracks, track)
		}
	}
	if len(tracks) > 0 {
		return tracks
	}

	for index, item := range doc.Find(fallbackTrackSelector) {
		match := artistTitleSplit.FindStringSubmatch(strings.TrimSpace(item.Text()))
		if match == nil {
			continue
		}
		artist, title := strings.TrimSpace(match[1]), strings.TrimSpace(match[2])
		if artist == "" || title == "" {
			continue
		}
		tracks = append(tracks, catalog.Track{Position: index + 1, Artist: artist, Title: title})
	}
	return tracks
}

func trackFromCells(cells []markup.Node) (catalog.Track, bool) {
	text := func(i int) string {
		return textutil.Normalize(cells[i].Text())
	}
	track := catalog.Track{Artist: text(0), Title: text(1)}
	if track.Artist == "" || track.Title == "" {
		return catalog.Track{}, false
	}
	if len(cells) > 2 {
		track.Album = text(2)
	}
	if len(cells) > 3 {
		track.Label = text(3)
	}
	if len(cells) > 4 {
		track.Year = ParseYear(text(4))
	}
	return track, true
}

// ParseYear finds a four digit year between 1900 and 2099.
func ParseYear(text string) *int {
	match := yearPattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}
	return &year
}
