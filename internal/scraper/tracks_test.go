package scraper

import (
	"testing"

	"airwaves/internal/markup"
)

func mustParse(t *testing.T, html string) *markup.Document {
	t.Helper()
	doc, err := markup.ParseString(html)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestParseTracksTable(t *testing.T) {
	doc := mustParse(t, `<html><body><table>
<tr><th>Artist</th><th>Title</th><th>Album</th><th>Label</th><th>Year</th></tr>
<tr><td> Can </td><td>Vitamin C</td><td>Ege Bamyasi</td><td>United Artists</td><td>1972</td></tr>
<tr><td></td><td>No Artist</td></tr>
<tr><td>Suicide</td><td>Ghost Rider</td><td>Suicide</td><td>Red Star</td><td>reissue</td></tr>
<tr><td>only one cell</td></tr>
<tr><td>Neu!</td><td>Hallogallo</td></tr>
</table></body></html>`)

	tracks := ParseTracks(doc)
	if len(tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d: %+v", len(tracks), tracks)
	}
	first := tracks[0]
	if first.Position != 1 || first.Artist != "Can" || first.Title != "Vitamin C" || first.Album != "Ege Bamyasi" || first.Label != "United Artists" {
		t.Fatalf("unexpected first track %+v", first)
	}
	if first.Year == nil || *first.Year != 1972 {
		t.Fatalf("expected year 1972, got %v", first.Year)
	}
	if tracks[1].Position != 3 || tracks[1].Year != nil {
		t.Fatalf("expected skipped row to leave a gap and reissue to have no year, got %+v", tracks[1])
	}
	if tracks[2].Position != 5 || tracks[2].Album != "" || tracks[2].Label != "" {
		t.Fatalf("unexpected two-cell track %+v", tracks[2])
	}
}

func TestParseTracksFallback(t *testing.T) {
	doc := mustParse(t, `<html><body>
<div class="playlist-item">Sun Ra - Space Is The Place</div>
<div class="playlist-item">just some text</div>
<div class="track">Alice Coltrane – Journey in Satchidananda</div>
</body></html>`)

	tracks := ParseTracks(doc)
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d: %+v", len(tracks), tracks)
	}
	if tracks[0].Artist != "Sun Ra" || tracks[0].Title != "Space Is The Place" || tracks[0].Position != 1 {
		t.Fatalf("unexpected first fallback track %+v", tracks[0])
	}
	if tracks[1].Artist != "Alice Coltrane" || tracks[1].Title != "Journey in Satchidananda" || tracks[1].Position != 3 {
		t.Fatalf("unexpected second fallback track %+v", tracks[1])
	}
}

func TestParseTracksFallbackOnlyWhenTableEmpty(t *testing.T) {
	doc := mustParse(t, `<html><body><table>
<tr><th>Artist</th><th>Title</th></tr>
<tr><td>Can</td><td>Halleluhwah</td></tr>
</table>
<div class="playlist-item">Sun Ra - Space Is The Place</div>
</body></html>`)

	tracks := ParseTracks(doc)
	if len(tracks) != 1 || tracks[0].Artist != "Can" {
		t.Fatalf("expected only the table track, got %+v", tracks)
	}
}

func TestParseYear(t *testing.T) {
	cases := map[string]int{"1999": 1999, "rel. 2005 (UK)": 2005, "1850": 0, "21000": 0, "": 0}
	for text, want := range cases {
		got := ParseYear(text)
		if want == 0 {
			if got != nil {
				t.Fatalf("ParseYear(%q) = %d, want none", text, *got)
			}
			continue
		}
		if got == nil || *got != want {
			t.Fatalf("ParseYear(%q) = %v, want %d", text, got, want)
		}
	}
}
