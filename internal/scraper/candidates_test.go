package scraper

import (
	"reflect"
	"testing"
)

func TestDirectCandidates(t *testing.T) {
	doc := mustParse(t, `<html><body>
<a href="/archive/nd200301.ogg">ogg</a>
<a href="https://cdn.example/nd.m4a">m4a</a>
<a href="/nd.aac">aac</a>
<a href="/mp3/nd_320K.mp3">mp3</a>
<a href="/stream.mp3?session=1">stream</a>
<a href="/archive/nd200301.ogg">again</a>
<p>Listen in 128k MP3: http://legacy.example/old.mp3 (legacy)</p>
</body></html>`)

	got := DirectCandidates(doc, resolveAgainst("https://wfmu.org"))
	want := []Candidate{
		{Format: "ogg", URL: "https://wfmu.org/archive/nd200301.ogg"},
		{Format: "aac", URL: "https://cdn.example/nd.m4a"},
		{Format: "aac", URL: "https://wfmu.org/nd.aac"},
		{Format: "mp3", URL: "https://wfmu.org/mp3/nd_320K.mp3", Quality: "320k"},
		{Format: "mp3", URL: "https://wfmu.org/stream.mp3?session=1"},
		{Format: "mp3", URL: "http://legacy.example/old.mp3", Quality: "128k"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DirectCandidates mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestDirectCandidatesLegacyPhraseRequired(t *testing.T) {
	doc := mustParse(t, `<html><body><p>Stream at http://legacy.example/old.mp3</p></body></html>`)
	if got := DirectCandidates(doc, resolveAgainst("https://wfmu.org")); len(got) != 0 {
		t.Fatalf("expected no candidates without the quality phrase, got %+v", got)
	}
}

func TestArchiveIDs(t *testing.T) {
	doc := mustParse(t, `<html><body>
<a href="/flashplayer.php?version=3&archive=111&show=5">Listen</a>
<a href="/flashplayer.php?archive=111">Listen again</a>
<a href="https://wfmu.org/flashplayer.php?archive=222">Pop-up</a>
<a href="/flashplayer.php?show=5">No archive</a>
</body></html>`)

	if got := ArchiveIDs(doc); !reflect.DeepEqual(got, []string{"111", "222"}) {
		t.Fatalf("unexpected archive ids %v", got)
	}
}

func TestPlayerSources(t *testing.T) {
	doc := mustParse(t, `<html><body data-hls-url="/hls/nd.m3u8">
<audio id="audio-player" src="https://cdn.example/nd.mp3"></audio>
<video id="other"><source src="/media/nd.ogg"><source src="https://cdn.example/nd.mp3"></video>
</body></html>`)

	got := PlayerSources(doc, resolveAgainst("https://wfmu.org"))
	want := []Candidate{
		{Format: "ogg", URL: "https://wfmu.org/media/nd.ogg"},
		{Format: "mp3", URL: "https://cdn.example/nd.mp3"},
		{Format: "mp3", URL: "https://wfmu.org/hls/nd.m3u8"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("PlayerSources mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestFormatFromURL(t *testing.T) {
	cases := map[string]string{
		"https://x.example/a.OGG":        "ogg",
		"https://x.example/a":            "mp3",
		"https://x.example/a.m3u8":       "mp3",
		"https://x.example/a.flac?dl=1":  "flac",
		"https://x.example/dir.m4a/file": "mp3",
	}
	for raw, want := range cases {
		if got := FormatFromURL(raw); got != want {
			t.Fatalf("FormatFromURL(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestArchiveResolverURL(t *testing.T) {
	got := ArchiveResolverURL("https://wfmu.org/", "111", "91234")
	if got != "https://wfmu.org/archiveplayer/?archive=111&show=91234" {
		t.Fatalf("unexpected resolver url %q", got)
	}
}
