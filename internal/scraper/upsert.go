package scraper

import (
	"airwaves/internal/catalog"
)

// ComputeUpsertPatch decides which empty fields of an existing show a fresh
// discovery can fill. Title fills independently; archive URL and audio format
// fill together. It reports false when nothing would change.
func ComputeUpsertPatch(existing *catalog.Show, discovered Discovery, best *Candidate) (catalog.Patch, bool) {
	var patch catalog.Patch
	if existing == nil {
		return patch, false
	}
	if existing.Title == "" && discovered.Title != "" {
		title := discovered.Title
		patch.Title = &title
	}
	if existing.ArchiveURL == "" && best != nil && best.URL != "" {
		archiveURL, format := best.URL, best.Format
		patch.ArchiveURL = &archiveURL
		patch.AudioFormat = &format
	}
	return patch, !patch.Empty()
}
