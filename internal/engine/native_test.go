package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ytget/ytdlp/errs"
	"github.com/ytget/ytdlp/types"
	ytgo "github.com/ytget/ytdlp/v2"
	"go.uber.org/zap"
)

// scriptedClient replays a fixed resolve and download outcome
type scriptedClient struct {
	mediaURL    string
	info        *ytgo.VideoInfo
	resolveErr  error
	downloadErr error
	progress    []ytgo.Progress
	content     []byte
	panicMsg    string

	requests  []nativeRequest
	downloads int
}

type scriptedCall struct {
	script *scriptedClient
	req    nativeRequest
}

func (s *scriptedClient) factory(req nativeRequest) nativeClient {
	s.requests = append(s.requests, req)
	return &scriptedCall{script: s, req: req}
}

func (c *scriptedCall) ResolveURL(context.Context, string) (string, *ytgo.VideoInfo, error) {
	if c.script.panicMsg != "" {
		panic(c.script.panicMsg)
	}
	return c.script.mediaURL, c.script.info, c.script.resolveErr
}

func (c *scriptedCall) Download(context.Context, string) (*ytgo.VideoInfo, error) {
	c.script.downloads++
	for _, p := range c.script.progress {
		if c.req.progress != nil {
			c.req.progress(p)
		}
	}
	if c.script.downloadErr != nil {
		return nil, c.script.downloadErr
	}
	if err := os.WriteFile(c.req.outputPath, c.script.content, 0o644); err != nil {
		return nil, err
	}
	return c.script.info, nil
}

func newScriptedNative(s *scriptedClient) *Native {
	n := NewNative(zap.NewNop())
	n.newClient = s.factory
	return n
}

func clipInfo() *ytgo.VideoInfo {
	return &ytgo.VideoInfo{
		ID:     "abc",
		Title:  "Clip: part 1/2",
		Author: "Channel",
		Formats: []types.Format{
			{Itag: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, Quality: "720p", Size: 1000},
			{Itag: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Size: 500},
			{Itag: 248, MimeType: `video/webm; codecs="vp9"`, Quality: "1080p60"},
		},
	}
}

func TestNativeSelector(t *testing.T) {
	tests := map[string]string{
		"":            "best",
		"  ":          "best",
		"22":          "itag=22",
		"best":        "best",
		"height<=480": "height<=480",
		" 137 ":       "itag=137",
	}
	for format, want := range tests {
		if got := nativeSelector(format); got != want {
			t.Errorf("nativeSelector(%q) = %q, want %q", format, got, want)
		}
	}
}

func TestExtFromMime(t *testing.T) {
	tests := map[string]string{
		`video/mp4; codecs="avc1.64001F"`: "mp4",
		`audio/mp4; codecs="mp4a.40.2"`:   "m4a",
		`audio/webm; codecs="opus"`:       "webm",
		"video/3gpp":                      "3gp",
		"":                                "",
		"not a mime":                      "",
	}
	for mimeType, want := range tests {
		if got := extFromMime(mimeType); got != want {
			t.Errorf("extFromMime(%q) = %q, want %q", mimeType, got, want)
		}
	}
}

func TestExpandOutputTemplate(t *testing.T) {
	got := expandOutputTemplate("/dl/%(title)s [%(id)s].%(ext)s", "abc", "Clip: part 1/2?", "webm")
	if got != "/dl/Clip_ part 1_2_ [abc].webm" {
		t.Errorf("expandOutputTemplate() = %q", got)
	}
	if got := expandOutputTemplate("/dl/%(title)s.%(ext)s", "", " .. ", "mp4"); got != "/dl/video.mp4" {
		t.Errorf("blank title gave %q, want /dl/video.mp4", got)
	}
}

func TestNativeExtractInfo(t *testing.T) {
	script := &scriptedClient{info: clipInfo()}
	logger := &recordingLogger{}

	meta, err := newScriptedNative(script).ExtractInfo(context.Background(), "https://youtu.be/abc", ExtractOptions{Logger: logger})
	if err != nil {
		t.Fatalf("ExtractInfo() error = %v", err)
	}
	if meta.ID != "abc" || meta.Title != "Clip: part 1/2" {
		t.Errorf("unexpected identity: %+v", meta)
	}
	if meta.Uploader == nil || *meta.Uploader != "Channel" {
		t.Errorf("Uploader = %v", meta.Uploader)
	}
	if len(meta.Formats) != 3 {
		t.Fatalf("got %d formats, want 3", len(meta.Formats))
	}

	video := meta.Formats[0]
	if video.FormatID != "22" || video.Extension != "mp4" || video.Height == nil || *video.Height != 720 {
		t.Errorf("unexpected video format: %+v", video)
	}
	if video.FileSizeBytes == nil || *video.FileSizeBytes != 1000 {
		t.Errorf("FileSizeBytes = %v", video.FileSizeBytes)
	}
	audio := meta.Formats[1]
	if audio.Extension != "m4a" || audio.Height != nil || audio.Resolution == nil || *audio.Resolution != "audio only" {
		t.Errorf("unexpected audio format: %+v", audio)
	}
	if hfr := meta.Formats[2]; hfr.Height == nil || *hfr.Height != 1080 || hfr.FileSizeBytes != nil {
		t.Errorf("unexpected 1080p60 format: %+v", hfr)
	}

	if got := script.requests[0].selector; got != "best" {
		t.Errorf("selector = %q, want best", got)
	}
	want := []string{
		"debug|[youtube] Extracting URL: https://youtu.be/abc",
		"debug|[info] abc: 3 format(s) available",
	}
	if strings.Join(logger.lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("logged %v, want %v", logger.lines, want)
	}
}

func TestNativeExtractInfoErrors(t *testing.T) {
	t.Run("typed playability error", func(t *testing.T) {
		script := &scriptedClient{resolveErr: errs.ErrPrivate}
		_, err := newScriptedNative(script).ExtractInfo(context.Background(), "https://youtu.be/abc", ExtractOptions{})

		var runErr *RunError
		if !errors.As(err, &runErr) || !strings.HasPrefix(runErr.Message, "Private video") {
			t.Fatalf("error = %v, want a private video RunError", err)
		}
		if !errors.Is(err, errs.ErrPrivate) {
			t.Error("error should wrap errs.ErrPrivate")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		script := &scriptedClient{resolveErr: errors.New("get player response failed: EOF")}
		_, err := newScriptedNative(script).ExtractInfo(ctx, "https://youtu.be/abc", ExtractOptions{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})

	t.Run("client panic", func(t *testing.T) {
		script := &scriptedClient{panicMsg: "index out of range [0] with length 0"}
		_, err := newScriptedNative(script).ExtractInfo(context.Background(), "https://youtu.be/abc", ExtractOptions{})
		if err == nil || !strings.Contains(err.Error(), "panic") {
			t.Errorf("error = %v, want a recovered panic", err)
		}
	})

	t.Run("nothing resolved", func(t *testing.T) {
		meta, err := newScriptedNative(&scriptedClient{}).ExtractInfo(context.Background(), "https://youtu.be/abc", ExtractOptions{})
		if err != nil || meta != nil {
			t.Errorf("ExtractInfo() = %v, %v, want nil, nil", meta, err)
		}
	})
}

func TestNativeDownload(t *testing.T) {
	dir := t.TempDir()
	script := &scriptedClient{
		mediaURL: "https://rr1.example.com/videoplayback?itag=22&mime=video%2Fmp4",
		info:     clipInfo(),
		progress: []ytgo.Progress{
			{TotalSize: 1000, DownloadedSize: 100, Percent: 10},
			{TotalSize: 1000, DownloadedSize: 600, Percent: 60},
			{TotalSize: 1000, DownloadedSize: 1000, Percent: 100},
		},
		content: []byte("media"),
	}
	logger := &recordingLogger{}
	var samples []ProgressSample

	res, err := newScriptedNative(script).Download(context.Background(), "https://youtu.be/abc", DownloadOptions{
		ExtractOptions: ExtractOptions{Logger: logger},
		Format:         "22",
		OutputTemplate: filepath.Join(dir, "%(title)s.%(ext)s"),
		Progress:       func(s ProgressSample) { samples = append(samples, s) },
	})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	wantFile := filepath.Join(dir, "Clip_ part 1_2.mp4")
	if res.Filename != wantFile || res.AlreadyDownloaded {
		t.Errorf("result = %+v, want %s freshly downloaded", res, wantFile)
	}
	if len(script.requests) != 2 {
		t.Fatalf("built %d clients, want a resolver and a downloader", len(script.requests))
	}
	if req := script.requests[1]; req.selector != "itag=22" || req.outputPath != wantFile {
		t.Errorf("download request = %+v", req)
	}

	if len(samples) < 2 {
		t.Fatalf("got %d progress samples, want at least 2", len(samples))
	}
	first, last := samples[0], samples[len(samples)-1]
	if first.Status != StatusDownloading || first.DownloadedBytes != 100 || first.TotalBytes == nil || *first.TotalBytes != 1000 {
		t.Errorf("first sample = %+v", first)
	}
	if last.Status != StatusFinished || last.DownloadedBytes != 1000 || last.Filename != wantFile {
		t.Errorf("last sample = %+v", last)
	}

	destination := "debug|[download] Destination: " + wantFile
	if !containsLine(logger.lines, destination) {
		t.Errorf("logged %v, want %q", logger.lines, destination)
	}
	for _, line := range logger.lines {
		if IsAlreadyDownloaded(strings.TrimPrefix(line, "debug|")) {
			t.Errorf("fresh download logged an already-downloaded notice: %q", line)
		}
	}
}

func TestNativeDownloadAlreadyDownloaded(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "Clip_ part 1_2.mp4")
	if err := os.WriteFile(existing, []byte("media"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	script := &scriptedClient{
		mediaURL: "https://rr1.example.com/videoplayback?itag=22",
		info:     clipInfo(),
	}
	logger := &recordingLogger{}

	res, err := newScriptedNative(script).Download(context.Background(), "https://youtu.be/abc", DownloadOptions{
		ExtractOptions: ExtractOptions{Logger: logger},
		Format:         "22",
		OutputTemplate: filepath.Join(dir, "%(title)s.%(ext)s"),
	})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if !res.AlreadyDownloaded || res.Filename != existing {
		t.Errorf("result = %+v, want already downloaded %s", res, existing)
	}
	if script.downloads != 0 {
		t.Errorf("downloaded %d times, want 0", script.downloads)
	}
	if len(logger.lines) == 0 || !IsAlreadyDownloaded(strings.TrimPrefix(logger.lines[len(logger.lines)-1], "debug|")) {
		t.Errorf("logged %v, want a trailing already-downloaded notice", logger.lines)
	}
}

func TestNativeDownloadFailure(t *testing.T) {
	script := &scriptedClient{
		mediaURL:    "https://rr1.example.com/videoplayback?itag=140",
		info:        clipInfo(),
		downloadErr: errors.New("download failed: unexpected status 403"),
	}

	_, err := newScriptedNative(script).Download(context.Background(), "https://youtu.be/abc", DownloadOptions{
		Format:         "140",
		OutputTemplate: filepath.Join(t.TempDir(), "%(title)s.%(ext)s"),
	})

	var runErr *RunError
	if !errors.As(err, &runErr) || runErr.Message != "download failed: unexpected status 403" {
		t.Fatalf("error = %v, want the client's message", err)
	}
	if script.requests[1].outputPath == "" || !strings.HasSuffix(script.requests[1].outputPath, ".m4a") {
		t.Errorf("audio stream should be saved as m4a, got %q", script.requests[1].outputPath)
	}
}

func TestNewEngineKinds(t *testing.T) {
	for _, kind := range []string{"", "ytdlp", "YTDLP"} {
		if eng, err := New(kind, "", false, nil); err != nil {
			t.Errorf("New(%q) error = %v", kind, err)
		} else if _, ok := eng.(*YTDLP); !ok {
			t.Errorf("New(%q) = %T, want *YTDLP", kind, eng)
		}
	}
	if eng, err := New(" native ", "", false, nil); err != nil {
		t.Errorf("New(native) error = %v", err)
	} else if _, ok := eng.(*Native); !ok {
		t.Errorf("New(native) = %T, want *Native", eng)
	}
	if _, err := New("youtube-dl", "", false, nil); err == nil {
		t.Error("New(youtube-dl) should fail")
	}
}

func containsLine(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}
