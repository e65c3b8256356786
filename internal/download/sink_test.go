package download

import (
	"sync"

	"github.com/ytget/vidgrab/internal/model"
)

// recordingSink collects task emissions in order
type recordingSink struct {
	mu       sync.Mutex
	logs     []model.LogEvent
	progress []model.ProgressUpdate
}

func (s *recordingSink) Log(ev model.LogEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, ev)
}

func (s *recordingSink) Progress(u model.ProgressUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, u)
}

func (s *recordingSink) logsWith(severity model.Severity) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, ev := range s.logs {
		if ev.Severity == severity {
			out = append(out, ev.Text)
		}
	}
	return out
}

func (s *recordingSink) hasLog(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.logs {
		if ev.Text == text {
			return true
		}
	}
	return false
}
