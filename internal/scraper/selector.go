package scraper

import (
	"sort"
	"strconv"
	"strings"
)

var formatPriority = map[string]int{
	"ogg": 100,
	"aac": 90,
	"m4a": 90,
	"mp3": 80,
	"mp4": 70,
	"ra":  10,
}

// FormatPriority ranks a format; unknown formats rank 0.
func FormatPriority(format string) int {
	return formatPriority[strings.ToLower(format)]
}

// QualityBitrate parses the leading digits of a quality token such as "320k".
func QualityBitrate(quality string) int {
	quality = strings.TrimSpace(quality)
	end := 0
	for end < len(quality) && quality[end] >= '0' && quality[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(quality[:end])
	if err != nil {
		return 0
	}
	return n
}

// SelectBest picks the highest priority candidate, breaking ties on bitrate.
func SelectBest(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := FormatPriority(ranked[i].Format), FormatPriority(ranked[j].Format)
		if pi != pj {
			return pi > pj
		}
		return QualityBitrate(ranked[i].Quality) > QualityBitrate(ranked[j].Quality)
	})
	return ranked[0], true
}
