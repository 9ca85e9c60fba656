package scraper

import (
	"net/url"
	"testing"
	"time"
)

func resolveAgainst(base string) func(string) (string, error) {
	root, _ := url.Parse(base)
	return func(href string) (string, error) {
		ref, err := url.Parse(href)
		if err != nil {
			return "", err
		}
		return root.ResolveReference(ref).String(), nil
	}
}

const indexPage = `<html><body><ul>
<li>March 1, 2020 <a href="/playlists/shows/91234">See the playlist</a> Noise Hour</li>
<li>3/8/2020 <a href="/playlists/shows/91300">Find the show</a></li>
<li>December 30, 2019 <a href="/playlists/shows/90000">See the playlist</a> Last Year</li>
<li>April 5, 2020 <a href="/playlists/shows/91500">Playlist archive</a></li>
<li>No date here <a href="/playlists/shows/91600">See the playlist</a></li>
<li>May 3, 2020 <a href="/playlists/shows/latest">See the playlist</a></li>
<li>June 7,
    2020 <a href="https://wfmu.org/playlists/shows/91700">See the playlist</a> Listen: Late Night Drone</li>
</ul>
<a href="/playlists/shows/91800">See the playlist</a> July 1, 2020
</body></html>`

func TestDiscoverShows(t *testing.T) {
	doc := mustParse(t, indexPage)
	shows := DiscoverShows(doc, 2020, resolveAgainst("https://wfmu.org"))

	if len(shows) != 3 {
		t.Fatalf("expected 3 shows, got %d: %+v", len(shows), shows)
	}
	first := shows[0]
	if first.ExternalID != "91234" || first.PlaylistURL != "https://wfmu.org/playlists/shows/91234" {
		t.Fatalf("unexpected first show %+v", first)
	}
	if !first.Date.Equal(time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first date %v", first.Date)
	}
	if first.Title != "Noise Hour" {
		t.Fatalf("unexpected first title %q", first.Title)
	}
	second := shows[1]
	if second.ExternalID != "91300" || !second.Date.Equal(time.Date(2020, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected second show %+v", second)
	}
	if second.Title != "Find the show" {
		t.Fatalf("unexpected second title %q", second.Title)
	}
	third := shows[2]
	if third.ExternalID != "91700" || third.PlaylistURL != "https://wfmu.org/playlists/shows/91700" || third.Title != "Late Night Drone" {
		t.Fatalf("unexpected third show %+v", third)
	}
	if !third.Date.Equal(time.Date(2020, 6, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected third date %v", third.Date)
	}
}

func TestDiscoverShowsOtherYear(t *testing.T) {
	doc := mustParse(t, indexPage)
	shows := DiscoverShows(doc, 2019, resolveAgainst("https://wfmu.org"))
	if len(shows) != 1 || shows[0].ExternalID != "90000" || shows[0].Title != "Last Year" {
		t.Fatalf("unexpected 2019 shows %+v", shows)
	}
}

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"March 1, 2020 see the playlist Noise Hour", "Noise Hour"},
		{"3/1/2020 See The Playlist", ""},
		{"March 1, 2020 see the playlist abc", ""},
		{"March 1, 2020 Listen: see the playlist The Long Show", "The Long Show"},
		{"March 1, 2020 see the playlist Hour see the playlist", "Hour see the playlist"},
	}
	for _, tc := range cases {
		if got := DeriveTitle(tc.in); got != tc.want {
			t.Fatalf("DeriveTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseShowDate(t *testing.T) {
	cases := map[string]time.Time{
		"March 1, 2020":      time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		"Mar 1, 2020":        time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		"December  31, 2019": time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
		"12/31/2019":         time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	for text, want := range cases {
		got, ok := ParseShowDate(text)
		if !ok || !got.Equal(want) {
			t.Fatalf("ParseShowDate(%q) = %v (%v), want %v", text, got, ok, want)
		}
	}
	if _, ok := ParseShowDate("Someday 1, 2020"); ok {
		t.Fatal("expected unknown month to fail")
	}
}
