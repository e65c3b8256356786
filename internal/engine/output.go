package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ytget/vidgrab/internal/model"
)

const (
	errorPrefix   = "ERROR:"
	warningPrefix = "WARNING:"
)

var (
	reDestination = regexp.MustCompile(`^\[download\] Destination: (.+)$`)
	reMerging     = regexp.MustCompile(`^\[Merger\] Merging formats into "(.+)"$`)
	reAlready     = regexp.MustCompile(`^\[download\] (.+) has already been downloaded(?: and merged)?$`)
)

const (
	pipeStdout = "stdout"
	pipeStderr = "stderr"
)

// outputLine is one line of engine output with the pipe it was written to
type outputLine struct {
	pipe string
	text string
}

// outputLines returns the run's output in the order yt-dlp produced it
func outputLines(result *ytdlp.Result) []outputLine {
	if result == nil {
		return nil
	}
	lines := make([]outputLine, 0, len(result.OutputLogs))
	for _, l := range result.OutputLogs {
		if l == nil {
			continue
		}
		lines = append(lines, outputLine{pipe: l.Pipe, text: l.Line})
	}
	return lines
}

// IsAlreadyDownloaded reports whether a yt-dlp output line is the notice
// that the target file exists and the transfer was skipped
func IsAlreadyDownloaded(line string) bool {
	return alreadyDownloadedFile(line) != ""
}

// alreadyDownloadedFile returns the file named by the already-downloaded
// notice, or "" for any other line. Destination lines never match, whatever
// the file name says.
func alreadyDownloadedFile(line string) string {
	line = strings.TrimSpace(line)
	if reDestination.MatchString(line) {
		return ""
	}
	if m := reAlready.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// routeOutput feeds yt-dlp output lines to the logger in production order.
// On stdout only screen messages are forwarded; progress template lines are
// skipped. When the run failed, ERROR lines are left out since they become
// the returned error.
func routeOutput(lines []outputLine, logger Logger, failed bool) {
	if logger == nil {
		return
	}
	for _, l := range lines {
		line := strings.TrimRight(l.text, "\r ")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if l.pipe == pipeStdout && !isScreenLine(line) {
			continue
		}
		if failed && strings.HasPrefix(line, errorPrefix) {
			continue
		}
		routeLine(line, logger)
	}
}

func isScreenLine(line string) bool {
	return strings.HasPrefix(line, "[") ||
		strings.HasPrefix(line, errorPrefix) ||
		strings.HasPrefix(line, warningPrefix)
}

func routeLine(line string, logger Logger) {
	switch {
	case strings.HasPrefix(line, errorPrefix):
		logger.Error(strings.TrimSpace(strings.TrimPrefix(line, errorPrefix)))
	case strings.HasPrefix(line, warningPrefix):
		logger.Warning(strings.TrimSpace(strings.TrimPrefix(line, warningPrefix)))
	default:
		logger.Debug(line)
	}
}

// scanDownloadOutput extracts the final file name and the already-downloaded
// flag from yt-dlp's stdout
func scanDownloadOutput(stdout string) *DownloadResult {
	res := &DownloadResult{}
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if file := alreadyDownloadedFile(line); file != "" {
			res.AlreadyDownloaded = true
			res.Filename = file
			continue
		}
		if m := reMerging.FindStringSubmatch(line); m != nil {
			res.Filename = m[1]
			continue
		}
		if m := reDestination.FindStringSubmatch(line); m != nil {
			res.Filename = m[1]
		}
	}
	return res
}

type rawFormat struct {
	FormatID   string   `json:"format_id"`
	Ext        string   `json:"ext"`
	Height     *float64 `json:"height"`
	Resolution *string  `json:"resolution"`
	Filesize   *float64 `json:"filesize"`
}

type rawInfo struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Duration  *float64    `json:"duration"`
	Uploader  *string     `json:"uploader"`
	ViewCount *float64    `json:"view_count"`
	Formats   []rawFormat `json:"formats"`
}

// parseMetadata decodes the JSON document printed by --dump-single-json.
// An empty or null document yields nil metadata and no error.
func parseMetadata(stdout string) (*model.VideoMetadata, error) {
	doc := lastJSONLine(stdout)
	if doc == "" || doc == "null" {
		return nil, nil
	}

	var raw rawInfo
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return nil, fmt.Errorf("decode yt-dlp metadata: %w", err)
	}

	meta := &model.VideoMetadata{
		ID:       raw.ID,
		Title:    raw.Title,
		Uploader: raw.Uploader,
		Formats:  make([]model.FormatDescriptor, 0, len(raw.Formats)),
	}
	if raw.Duration != nil && *raw.Duration > 0 {
		meta.DurationSeconds = int(*raw.Duration)
	}
	if raw.ViewCount != nil {
		views := int64(*raw.ViewCount)
		meta.ViewCount = &views
	}
	for _, f := range raw.Formats {
		desc := model.FormatDescriptor{
			FormatID:   f.FormatID,
			Extension:  f.Ext,
			Resolution: f.Resolution,
		}
		if f.Height != nil && !math.IsNaN(*f.Height) {
			h := int(*f.Height)
			desc.Height = &h
		}
		if f.Filesize != nil && *f.Filesize > 0 {
			size := int64(*f.Filesize)
			desc.FileSizeBytes = &size
		}
		meta.Formats = append(meta.Formats, desc)
	}
	return meta, nil
}

func lastJSONLine(stdout string) string {
	var doc string
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "{") || line == "null" {
			doc = line
		}
	}
	return doc
}
