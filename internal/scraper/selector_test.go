package scraper

import "testing"

func TestSelectBestPrefersFormatPriority(t *testing.T) {
	best, ok := SelectBest([]Candidate{
		{Format: "mp3", URL: "u2", Quality: "128k"},
		{Format: "ogg", URL: "u1"},
		{Format: "mp3", URL: "u3", Quality: "320k"},
	})
	if !ok || best.URL != "u1" || best.Format != "ogg" {
		t.Fatalf("expected ogg u1, got %+v", best)
	}
}

func TestSelectBestBreaksTiesOnBitrate(t *testing.T) {
	best, ok := SelectBest([]Candidate{
		{Format: "mp3", URL: "u2", Quality: "128k"},
		{Format: "mp3", URL: "u3", Quality: "320k"},
	})
	if !ok || best.URL != "u3" || best.Quality != "320k" {
		t.Fatalf("expected mp3 u3 320k, got %+v", best)
	}
}

func TestSelectBestEmpty(t *testing.T) {
	if _, ok := SelectBest(nil); ok {
		t.Fatal("expected no candidate for empty input")
	}
}

func TestSelectBestDominatesEveryCandidate(t *testing.T) {
	candidates := []Candidate{
		{Format: "ra", URL: "a"},
		{Format: "m3u8", URL: "b", Quality: "999k"},
		{Format: "aac", URL: "c", Quality: "64k"},
		{Format: "m4a", URL: "d", Quality: "256k"},
		{Format: "mp4", URL: "e"},
		{Format: "mp3", URL: "f", Quality: "320k"},
	}
	best, ok := SelectBest(candidates)
	if !ok {
		t.Fatal("expected a candidate")
	}
	for _, c := range candidates {
		if FormatPriority(c.Format) > FormatPriority(best.Format) {
			t.Fatalf("%+v outranks selected %+v", c, best)
		}
		if FormatPriority(c.Format) == FormatPriority(best.Format) && QualityBitrate(c.Quality) > QualityBitrate(best.Quality) {
			t.Fatalf("%+v has higher bitrate than selected %+v", c, best)
		}
	}
	if best.URL != "d" {
		t.Fatalf("expected m4a 256k, got %+v", best)
	}
}

func TestSelectBestDoesNotReorderInput(t *testing.T) {
	in := []Candidate{{Format: "mp3", URL: "a"}, {Format: "ogg", URL: "b"}}
	SelectBest(in)
	if in[0].URL != "a" {
		t.Fatalf("input slice was reordered: %+v", in)
	}
}

func TestFormatPriorityTable(t *testing.T) {
	cases := map[string]int{"ogg": 100, "aac": 90, "m4a": 90, "mp3": 80, "mp4": 70, "ra": 10, "flac": 0, "": 0, "OGG": 100}
	for format, want := range cases {
		if got := FormatPriority(format); got != want {
			t.Fatalf("FormatPriority(%q) = %d, want %d", format, got, want)
		}
	}
}

func TestQualityBitrate(t *testing.T) {
	cases := map[string]int{"128k": 128, "320K": 320, "": 0, "k": 0, "64kbps": 64, " 192k": 192}
	for quality, want := range cases {
		if got := QualityBitrate(quality); got != want {
			t.Fatalf("QualityBitrate(%q) = %d, want %d", quality, got, want)
		}
	}
}
