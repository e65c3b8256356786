package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// MiB is the unit used for format size labels and deduplication
const MiB = 1024 * 1024

// VideoMetadata is the result of a metadata-only extraction.
// Formats keep the order returned by the engine.
type VideoMetadata struct {
	ID              string
	Title           string
	DurationSeconds int
	Uploader        *string
	ViewCount       *int64
	Formats         []FormatDescriptor
}

// FormatDescriptor describes one encoding offered by the engine
type FormatDescriptor struct {
	FormatID      string // opaque engine identifier, passed through unchanged
	Height        *int
	Resolution    *string
	Extension     string
	FileSizeBytes *int64
}

// FormatKey is the equality key used to drop duplicate formats
type FormatKey struct {
	Height     int
	Resolution string
	Extension  string
	SizeTenths int64 // file size in MiB rounded to one decimal, times ten
}

// Key returns the deduplication key of the format
func (f FormatDescriptor) Key() FormatKey {
	key := FormatKey{Extension: strings.ToUpper(f.Extension)}
	if f.Height != nil {
		key.Height = *f.Height
	}
	if f.Resolution != nil {
		key.Resolution = *f.Resolution
	}
	if f.FileSizeBytes != nil && *f.FileSizeBytes > 0 {
		key.SizeTenths = int64(math.Round(float64(*f.FileSizeBytes) / MiB * 10))
	}
	return key
}

// Label returns a human readable description, e.g.
// "1080p | 1920x1080 | MP4 | 85.8MB". Missing parts are left out.
func (f FormatDescriptor) Label() string {
	parts := make([]string, 0, 4)
	if f.Height != nil && *f.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dp", *f.Height))
	}
	if f.Resolution != nil && *f.Resolution != "" {
		parts = append(parts, *f.Resolution)
	}
	parts = append(parts, strings.ToUpper(f.Extension))
	if f.FileSizeBytes != nil && *f.FileSizeBytes > 0 {
		parts = append(parts, fmt.Sprintf("%.1fMB", float64(*f.FileSizeBytes)/MiB))
	}
	return strings.Join(parts, " | ")
}

func (f FormatDescriptor) rankHeight() int {
	if f.Height == nil {
		return 0
	}
	return *f.Height
}

func (f FormatDescriptor) rankSize() int64 {
	if f.FileSizeBytes == nil {
		return 0
	}
	return *f.FileSizeBytes
}

// RankFormats sorts formats by (height, file size) descending and drops
// duplicates, keeping the highest ranked occurrence of every key.
// Ties keep their input order. The input slice is not modified.
func RankFormats(formats []FormatDescriptor) []FormatDescriptor {
	sorted := make([]FormatDescriptor, len(formats))
	copy(sorted, formats)
	sort.SliceStable(sorted, func(i, j int) bool {
		hi, hj := sorted[i].rankHeight(), sorted[j].rankHeight()
		if hi != hj {
			return hi > hj
		}
		return sorted[i].rankSize() > sorted[j].rankSize()
	})
	return DedupFormats(sorted)
}

// DedupFormats drops formats whose key was already seen, preserving order
func DedupFormats(formats []FormatDescriptor) []FormatDescriptor {
	seen := make(map[FormatKey]struct{}, len(formats))
	unique := make([]FormatDescriptor, 0, len(formats))
	for _, f := range formats {
		key := f.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, f)
	}
	return unique
}

// FindFormat returns the format with the given id
func FindFormat(formats []FormatDescriptor, id string) (FormatDescriptor, bool) {
	for _, f := range formats {
		if f.FormatID == id {
			return f, true
		}
	}
	return FormatDescriptor{}, false
}

// FormatClock renders seconds as m:ss, e.g. 65 -> "1:05"
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// BestHeight returns the height of the first format that has one
func BestHeight(formats []FormatDescriptor) (int, bool) {
	for _, f := range formats {
		if f.Height != nil && *f.Height > 0 {
			return *f.Height, true
		}
	}
	return 0, false
}
