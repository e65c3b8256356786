package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/ytget/vidgrab/internal/model"
)

// logPrinter writes log lines colored by severity. Debug lines are
// printed only in verbose mode.
type logPrinter struct {
	w       io.Writer
	verbose bool
	colors  map[model.Severity]*color.Color
}

func newLogPrinter(w io.Writer, verbose bool) *logPrinter {
	return &logPrinter{
		w:       w,
		verbose: verbose,
		colors: map[model.Severity]*color.Color{
			model.SeverityDebug:   color.New(color.FgHiBlack),
			model.SeverityWarning: color.New(color.FgYellow),
			model.SeverityError:   color.New(color.FgRed, color.Bold),
			model.SeveritySuccess: color.New(color.FgGreen, color.Bold),
		},
	}
}

// Print writes one log line
func (p *logPrinter) Print(ev model.LogEvent) {
	if ev.Severity == model.SeverityDebug && !p.verbose {
		return
	}
	if c, ok := p.colors[ev.Severity]; ok {
		c.Fprintln(p.w, ev.Text)
		return
	}
	fmt.Fprintln(p.w, ev.Text)
}

// progressRenderer draws one byte progress bar per file the engine writes
type progressRenderer struct {
	w       io.Writer
	enabled bool
	bar     *progressbar.ProgressBar
	file    string
}

func newProgressRenderer(w io.Writer, enabled bool) *progressRenderer {
	return &progressRenderer{w: w, enabled: enabled}
}

// Update moves the bar; a new file name starts a new bar
func (r *progressRenderer) Update(u model.ProgressUpdate) {
	if !r.enabled {
		return
	}

	total := u.TotalBytes
	if total <= 0 {
		total = -1
	}
	if r.bar == nil || u.Filename != r.file {
		r.Finish()
		r.file = u.Filename
		r.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(r.w),
			progressbar.OptionSetDescription(u.Filename),
			progressbar.OptionShowBytes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	} else if total > 0 && total != r.bar.GetMax64() {
		r.bar.ChangeMax64(total)
	}
	_ = r.bar.Set64(u.DownloadedBytes)
}

// Clear erases the bar so a log line can be printed in its place
func (r *progressRenderer) Clear() {
	if r.bar != nil {
		_ = r.bar.Clear()
	}
}

// Finish completes the current bar and moves to a new line
func (r *progressRenderer) Finish() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	fmt.Fprintln(r.w)
	r.bar = nil
}

// Abort stops the current bar where it is
func (r *progressRenderer) Abort() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Exit()
	fmt.Fprintln(r.w)
	r.bar = nil
}
