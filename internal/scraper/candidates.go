package scraper

import (
	"context"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"airwaves/internal/logging"
	"airwaves/internal/markup"
)

// Candidate is one audio source found on a show page.
type Candidate struct {
	Format  string `json:"format"`
	URL     string `json:"url"`
	Quality string `json:"quality,omitempty"`
}

const (
	archivePlayerSegment = "flashplayer.php"
	archiveResolverPath  = "/archiveplayer/"
	playbackAttr         = "data-hls-url"
	legacyQualityPhrase  = "128k MP3"
)

var (
	qualityPattern  = regexp.MustCompile(`(?i)(\d+k)`)
	bareMP3Pattern  = regexp.MustCompile(`(https?://[^\s]+\.mp3)`)
	knownExtensions = map[string]bool{
		"ogg": true, "aac": true, "m4a": true, "mp3": true,
		"mp4": true, "ra": true, "wav": true, "flac": true,
	}
	// resolver results are ordered by this before merging
	archivePreference = []string{"ogg", "aac", "m4a", "mp3", "mp4", "ra"}
)

type directRule struct {
	selector string
	format   string
	quality  bool
}

var directRules = []directRule{
	{selector: `a[href$=".ogg"]`, format: "ogg"},
	{selector: `a[href$=".m4a"], a[href$=".aac"]`, format: "aac"},
	{selector: `a[href$=".mp3"], a[href*=".mp3?"]`, format: "mp3", quality: true},
}

// candidateSet keeps the first candidate seen for each URL.
type candidateSet struct {
	seen  map[string]bool
	items []Candidate
}

func (s *candidateSet) add(c Candidate) {
	if c.URL == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[c.URL] {
		return
	}
	s.seen[c.URL] = true
	s.items = append(s.items, c)
}

// DirectCandidates collects audio links present on the page itself.
func DirectCandidates(doc markup.Node, resolve func(string) (string, error)) []Candidate {
	var set candidateSet
	for _, rule := range directRules {
		for _, href := range markup.AttrValues(doc, rule.selector, "href") {
			full, err := resolve(href)
			if err != nil {
				continue
			}
			c := Candidate{Format: rule.format, URL: full}
			if rule.quality {
				c.Quality = extractQuality(href)
			}
			set.add(c)
		}
	}
	if strings.Contains(doc.Text(), legacyQualityPhrase) {
		if match := bareMP3Pattern.FindString(doc.Text()); match != "" {
			set.add(Candidate{Format: "mp3", URL: match, Quality: "128k"})
		}
	}
	return set.items
}

func extractQuality(href string) string {
	match := qualityPattern.FindString(href)
	return strings.ToLower(match)
}

// ArchiveIDs returns the distinct archive identifiers referenced by player
// links, in page order.
func ArchiveIDs(doc markup.Node) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, href := range markup.AttrValues(doc, `a[href*="`+archivePlayerSegment+`"]`, "href") {
		parsed, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			continue
		}
		id := parsed.Query().Get("archive")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// PlayerSources reads the media URLs off a resolved archive player page.
func PlayerSources(doc markup.Node, resolve func(string) (string, error)) []Candidate {
	var raw []string
	raw = append(raw, markup.AttrValues(doc, "video#audio-player, audio#audio-player", "src")...)
	raw = append(raw, markup.AttrValues(doc, "source", "src")...)
	raw = append(raw, markup.AttrValues(doc, "body", playbackAttr)...)

	var set candidateSet
	for _, src := range raw {
		full, err := resolve(src)
		if err != nil {
			continue
		}
		set.add(Candidate{Format: FormatFromURL(full), URL: full})
	}
	sort.SliceStable(set.items, func(i, j int) bool {
		return preferenceIndex(set.items[i].Format) < preferenceIndex(set.items[j].Format)
	})
	return set.items
}

func preferenceIndex(format string) int {
	for i, f := range archivePreference {
		if f == format {
			return i
		}
	}
	return len(archivePreference)
}

// FormatFromURL infers an audio format from the URL path extension. Missing or
// unrecognized extensions are treated as mp3.
func FormatFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "mp3"
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(parsed.Path), "."))
	if knownExtensions[ext] {
		return ext
	}
	return "mp3"
}

// ArchiveResolverURL is the player page for one archive of a show.
func ArchiveResolverURL(baseURL, archiveID, externalID string) string {
	q := url.Values{}
	q.Set("archive", archiveID)
	q.Set("show", externalID)
	return strings.TrimRight(baseURL, "/") + archiveResolverPath + "?" + q.Encode()
}

// Candidates gathers direct and archive-player candidates for one show page.
// Archive resolution failures are logged and contribute nothing.
func (s *Scraper) Candidates(ctx context.Context, doc markup.Node, externalID string) []Candidate {
	var set candidateSet
	for _, c := range DirectCandidates(doc, s.fetcher.Resolve) {
		set.add(c)
	}
	for _, archiveID := range ArchiveIDs(doc) {
		for _, c := range s.resolveArchive(ctx, externalID, archiveID) {
			set.add(c)
		}
	}
	return set.items
}

func (s *Scraper) resolveArchive(ctx context.Context, externalID, archiveID string) []Candidate {
	target := ArchiveResolverURL(s.fetcher.BaseURL(), archiveID, externalID)
	page, err := s.fetcher.Page(ctx, target)
	if err != nil {
		logging.WarnWithContext(s.logger, "archive player resolution failed", "archive_resolve_failed",
			logging.String("external_id", externalID),
			logging.String("archive_id", archiveID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the show keeps any directly linked audio"),
			logging.String(logging.FieldImpact, "no candidates from this archive"),
		)
		return nil
	}
	candidates := PlayerSources(page, s.fetcher.Resolve)
	s.logger.Debug("archive player resolved",
		logging.String("archive_id", archiveID),
		logging.Int("candidates", len(candidates)),
	)
	return candidates
}
