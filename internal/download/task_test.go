package download

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ytget/vidgrab/internal/engine"
	"github.com/ytget/vidgrab/internal/engine/enginetest"
	"github.com/ytget/vidgrab/internal/model"
)

func testMetadata() *model.VideoMetadata {
	h := 1080
	return &model.VideoMetadata{
		Title:           "Clip",
		DurationSeconds: 125,
		Formats: []model.FormatDescriptor{
			{FormatID: "137", Height: &h, Extension: "mp4"},
			{FormatID: "140", Extension: "m4a"},
		},
	}
}

func newTestRequest() Request {
	return Request{URL: "https://example.com/v", OutputDir: "/videos"}
}

func TestDownloadTaskSuccess(t *testing.T) {
	fake := &enginetest.Fake{
		Info:    testMetadata(),
		Samples: enginetest.Samples("/videos/Clip.mp4", 1000, 0, 50, 100),
		Result:  &engine.DownloadResult{Filename: "/videos/Clip.mp4"},
	}
	sink := &recordingSink{}
	task := NewDownloadTask(fake, DefaultOptions(), nil, sink, nil)

	outcome := task.Run(context.Background(), newTestRequest())
	if outcome.Kind != model.OutcomeSuccess {
		t.Fatalf("Kind = %s, want success (%s)", outcome.Kind, outcome)
	}
	if outcome.Filename != "/videos/Clip.mp4" {
		t.Errorf("Filename = %q", outcome.Filename)
	}

	for _, want := range []string{
		"Starting download...",
		"Title: Clip",
		"Duration: 2:05",
		"Available formats: 2",
		"Best quality: 1080p",
		"Starting transfer...",
		"Progress: 0% | Speed: N/A | ETA: N/A",
		"Progress: 100% | Speed: N/A | ETA: N/A",
	} {
		if !sink.hasLog(want) {
			t.Errorf("missing log %q", want)
		}
	}
	if got := sink.logsWith(model.SeveritySuccess); len(got) != 1 || got[0] != "Download completed successfully!" {
		t.Errorf("success logs = %v", got)
	}
	if len(sink.progress) != 3 {
		t.Errorf("got %d progress updates, want 3", len(sink.progress))
	}
}

func TestDownloadTaskPassesOptions(t *testing.T) {
	fake := &enginetest.Fake{Info: testMetadata()}
	task := NewDownloadTask(fake, DefaultOptions(), nil, &recordingSink{}, nil)

	req := newTestRequest()
	req.FormatID = "137+140"
	task.Run(context.Background(), req)

	opts := fake.LastDownload()
	if opts.Format != "137+140" {
		t.Errorf("Format = %q, want format id unchanged", opts.Format)
	}
	if opts.OutputTemplate != filepath.Join("/videos", "%(title)s.%(ext)s") {
		t.Errorf("OutputTemplate = %q", opts.OutputTemplate)
	}
	if opts.SocketTimeout != DefaultSocketTimeout || opts.Retries != 10 || opts.FragmentRetries != 10 {
		t.Errorf("unexpected network options: %+v", opts)
	}
	if !opts.NoCheckCertificates || opts.GeoBypassCountry != "RU" {
		t.Errorf("unexpected extract options: %+v", opts.ExtractOptions)
	}
	if !strings.HasPrefix(opts.Headers["User-Agent"], "Mozilla/5.0") {
		t.Errorf("User-Agent = %q", opts.Headers["User-Agent"])
	}
}

func TestDownloadTaskDefaultFormat(t *testing.T) {
	fake := &enginetest.Fake{Info: testMetadata()}
	task := NewDownloadTask(fake, DefaultOptions(), nil, &recordingSink{}, nil)

	task.Run(context.Background(), newTestRequest())
	if got := fake.LastDownload().Format; got != DefaultFormat {
		t.Errorf("Format = %q, want %q", got, DefaultFormat)
	}
}

func TestDownloadTaskPeriodicLogs(t *testing.T) {
	percents := []int{5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60, 65, 70, 75, 80, 85, 90, 95, 100}
	fake := &enginetest.Fake{
		Info:    testMetadata(),
		Samples: enginetest.Samples("/videos/Clip.mp4", 1000, percents...),
	}
	sink := &recordingSink{}
	task := NewDownloadTask(fake, DefaultOptions(), nil, sink, nil)
	task.Run(context.Background(), newTestRequest())

	var got []string
	for _, line := range sink.logsWith(model.SeverityInfo) {
		if strings.HasPrefix(line, "Progress: ") {
			got = append(got, strings.SplitN(line, " |", 2)[0])
		}
	}
	if len(got) != 10 {
		t.Fatalf("got %d periodic lines, want 10: %v", len(got), got)
	}
	for i, line := range got {
		want := "Progress: " + []string{"10", "20", "30", "40", "50", "60", "70", "80", "90", "100"}[i] + "%"
		if line != want {
			t.Errorf("line %d = %q, want %q", i, line, want)
		}
	}
}

func TestDownloadTaskFinishedSample(t *testing.T) {
	fake := &enginetest.Fake{
		Info:    testMetadata(),
		Samples: []engine.ProgressSample{{Status: engine.StatusFinished, Filename: "/videos/Clip.mp4"}},
	}
	sink := &recordingSink{}
	task := NewDownloadTask(fake, DefaultOptions(), nil, sink, nil)
	task.Run(context.Background(), newTestRequest())

	if !sink.hasLog("Download finished, processing file...") {
		t.Error("missing finished transition log")
	}
	if len(sink.progress) != 0 {
		t.Errorf("got %d progress updates, want none", len(sink.progress))
	}
}

func TestDownloadTaskMalformedSampleDoesNotAbort(t *testing.T) {
	samples := enginetest.Samples("/videos/Clip.mp4", 1000, 10)
	samples = append(samples, engine.ProgressSample{Status: engine.StatusDownloading, DownloadedBytes: -10})
	samples = append(samples, enginetest.Samples("/videos/Clip.mp4", 1000, 100)...)

	fake := &enginetest.Fake{Info: testMetadata(), Samples: samples}
	sink := &recordingSink{}
	task := NewDownloadTask(fake, DefaultOptions(), nil, sink, nil)

	outcome := task.Run(context.Background(), newTestRequest())
	if outcome.Kind != model.OutcomeSuccess {
		t.Fatalf("Kind = %s, want success", outcome.Kind)
	}
	errs := sink.logsWith(model.SeverityError)
	if len(errs) != 1 || !strings.HasPrefix(errs[0], "Progress update failed:") {
		t.Errorf("error logs = %v", errs)
	}
	debug := sink.logsWith(model.SeverityDebug)
	if len(debug) != 1 || !strings.HasPrefix(debug[0], "Progress data:") {
		t.Errorf("debug logs = %v", debug)
	}
	if len(sink.progress) != 2 {
		t.Errorf("got %d progress updates, want 2", len(sink.progress))
	}
}

func TestDownloadTaskAlreadyDownloaded(t *testing.T) {
	fake := &enginetest.Fake{
		Info:   testMetadata(),
		Result: &engine.DownloadResult{Filename: "/videos/Clip.mp4", AlreadyDownloaded: true},
	}
	sink := &recordingSink{}
	task := NewDownloadTask(fake, DefaultOptions(), nil, sink, nil)

	outcome := task.Run(context.Background(), newTestRequest())
	if outcome.Kind != model.OutcomeAlreadyDownloaded {
		t.Fatalf("Kind = %s, want already_downloaded", outcome.Kind)
	}
	if outcome.Message != "The file has already been downloaded." {
		t.Errorf("Message = %q", outcome.Message)
	}
}

func TestDownloadTaskErrors(t *testing.T) {
	tests := []struct {
		name    string
		fake    *enginetest.Fake
		wantMsg string
	}{
		{
			name:    "empty metadata",
			fake:    &enginetest.Fake{},
			wantMsg: "Could not get video info",
		},
		{
			name:    "preflight failure",
			fake:    &enginetest.Fake{InfoErr: errors.New("Video unavailable")},
			wantMsg: "Video unavailable",
		},
		{
			name:    "download failure",
			fake:    &enginetest.Fake{Info: testMetadata(), DownloadErr: errors.New("HTTP Error 403: Forbidden")},
			wantMsg: "HTTP Error 403: Forbidden",
		},
		{
			name:    "engine panic",
			fake:    &enginetest.Fake{Info: testMetadata(), DownloadPanic: "nil map"},
			wantMsg: "nil map",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			task := NewDownloadTask(tt.fake, DefaultOptions(), nil, sink, nil)

			outcome := task.Run(context.Background(), newTestRequest())
			if outcome.Kind != model.OutcomeError {
				t.Fatalf("Kind = %s, want error", outcome.Kind)
			}
			if outcome.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", outcome.Message, tt.wantMsg)
			}
			errs := sink.logsWith(model.SeverityError)
			if len(errs) != 1 || errs[0] != "Error: "+tt.wantMsg {
				t.Errorf("error logs = %v, want exactly one", errs)
			}
			if got := sink.logsWith(model.SeveritySuccess); len(got) != 0 {
				t.Errorf("success logs = %v, want none", got)
			}
		})
	}
}

func TestDownloadTaskWithoutPreflight(t *testing.T) {
	fake := &enginetest.Fake{}
	opts := DefaultOptions()
	opts.Preflight = false
	task := NewDownloadTask(fake, opts, nil, &recordingSink{}, nil)

	outcome := task.Run(context.Background(), newTestRequest())
	if outcome.Kind != model.OutcomeSuccess {
		t.Fatalf("Kind = %s, want success", outcome.Kind)
	}
	if fake.ExtractCalls() != 0 {
		t.Errorf("ExtractCalls() = %d, want 0", fake.ExtractCalls())
	}
}

func TestDownloadTaskCancelDuringTransfer(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan string, 2)
	fake := &enginetest.Fake{
		Info:         testMetadata(),
		Samples:      enginetest.Samples("/videos/Clip.mp4", 1000, 10, 20),
		DownloadGate: gate,
		Started:      started,
	}
	sink := &recordingSink{}
	task := NewDownloadTask(fake, DefaultOptions(), nil, sink, nil)

	done := make(chan model.Outcome, 1)
	go func() { done <- task.Run(context.Background(), newTestRequest()) }()

	for name := range started {
		if name == "download" {
			break
		}
	}
	task.Cancel()
	close(gate)

	outcome := <-done
	if outcome.Kind != model.OutcomeCancelled {
		t.Fatalf("Kind = %s, want cancelled", outcome.Kind)
	}
	if got := sink.logsWith(model.SeverityError); len(got) != 0 {
		t.Errorf("error logs = %v, want none", got)
	}
	if got := sink.logsWith(model.SeveritySuccess); len(got) != 0 {
		t.Errorf("success logs = %v, want none", got)
	}
}

func TestDownloadTaskCancelledByContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan string, 2)
	fake := &enginetest.Fake{
		Info:         testMetadata(),
		DownloadGate: make(chan struct{}),
		Started:      started,
	}
	task := NewDownloadTask(fake, DefaultOptions(), nil, &recordingSink{}, nil)

	done := make(chan model.Outcome, 1)
	go func() { done <- task.Run(ctx, newTestRequest()) }()

	for name := range started {
		if name == "download" {
			break
		}
	}
	cancel()

	if outcome := <-done; outcome.Kind != model.OutcomeCancelled {
		t.Errorf("Kind = %s, want cancelled", outcome.Kind)
	}
}
