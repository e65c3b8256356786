package download

import (
	"strings"

	"github.com/ytget/vidgrab/internal/i18n"
	"github.com/ytget/vidgrab/internal/model"
)

// Channel is the engine logger entry point a message arrived on
type Channel int

const (
	ChannelDebug Channel = iota
	ChannelWarning
	ChannelError
)

// String returns the string representation of the channel
func (c Channel) String() string {
	switch c {
	case ChannelDebug:
		return "debug"
	case ChannelWarning:
		return "warning"
	case ChannelError:
		return "error"
	default:
		return "unknown"
	}
}

const (
	markerDownload = "[download]"
	markerDebug    = "[debug]"
	markerGeneric  = "[generic]"
	markerError    = "[error]"
)

var (
	noisyDebugPhrases = []string{
		"looking for embeds",
		"formats sorted by",
		"downloading format",
	}
	retryIndicators = []string{"[retry]", "retrying"}
)

// classifyRule is one row of the classification table. A nil channel list
// matches every channel. A rule whose render returns ok=false suppresses
// the message.
type classifyRule struct {
	name     string
	channels []Channel
	match    func(msg string) bool
	render   func(loc *i18n.Localization, msg string) (model.LogEvent, bool)
}

var classifyRules = []classifyRule{
	{
		name:   "blank",
		match:  func(msg string) bool { return strings.TrimSpace(msg) == "" },
		render: suppress,
	},
	{
		name:     "download progress",
		channels: []Channel{ChannelDebug},
		match:    func(msg string) bool { return strings.HasPrefix(msg, markerDownload) },
		render:   suppress,
	},
	{
		name:     "noisy debug",
		channels: []Channel{ChannelDebug},
		match: func(msg string) bool {
			return strings.HasPrefix(msg, markerDebug) && containsAny(strings.ToLower(msg), noisyDebugPhrases)
		},
		render: suppress,
	},
	{
		name:  "retry",
		match: func(msg string) bool { return containsAny(strings.ToLower(msg), retryIndicators) },
		render: func(loc *i18n.Localization, msg string) (model.LogEvent, bool) {
			return event(model.SeverityWarning, loc.Textf(i18n.KeyRetryPrefix, strings.TrimSpace(msg))), true
		},
	},
	{
		name:     "debug marker",
		channels: []Channel{ChannelDebug},
		match:    func(msg string) bool { return strings.HasPrefix(msg, markerDebug) },
		render: func(loc *i18n.Localization, msg string) (model.LogEvent, bool) {
			clean := strings.TrimSpace(strings.Replace(msg, markerDebug, "", 1))
			return event(model.SeverityDebug, loc.Textf(i18n.KeyDebugPrefix, clean)), true
		},
	},
	{
		name:     "screen output",
		channels: []Channel{ChannelDebug},
		match:    func(string) bool { return true },
		render: func(_ *i18n.Localization, msg string) (model.LogEvent, bool) {
			return event(model.SeverityInfo, strings.TrimSpace(msg)), true
		},
	},
	{
		name:     "generic extractor fallback",
		channels: []Channel{ChannelWarning},
		match: func(msg string) bool {
			return strings.Contains(msg, "Falling back on generic information extractor")
		},
		render: fixed(model.SeverityWarning, i18n.KeyGenericFallback),
	},
	{
		name:     "untested player version",
		channels: []Channel{ChannelWarning},
		match:    func(msg string) bool { return strings.Contains(msg, "Untested major version") },
		render:   fixed(model.SeverityWarning, i18n.KeyUntestedPlayer),
	},
	{
		name:     "warning",
		channels: []Channel{ChannelWarning},
		match:    func(string) bool { return true },
		render: func(loc *i18n.Localization, msg string) (model.LogEvent, bool) {
			clean := strings.TrimSpace(strings.ReplaceAll(msg, markerGeneric, ""))
			return event(model.SeverityWarning, loc.Textf(i18n.KeyWarningPrefix, clean)), true
		},
	},
	{
		name:     "error",
		channels: []Channel{ChannelError},
		match:    func(string) bool { return true },
		render: func(loc *i18n.Localization, msg string) (model.LogEvent, bool) {
			clean := strings.TrimSpace(strings.ReplaceAll(msg, markerError, ""))
			return event(model.SeverityError, loc.Textf(i18n.KeyErrorPrefix, clean)), true
		},
	},
}

// Classifier maps raw engine diagnostics to user-facing log events
type Classifier struct {
	loc *i18n.Localization
}

// NewClassifier creates a classifier rendering texts with loc.
// A nil loc uses the English catalog.
func NewClassifier(loc *i18n.Localization) *Classifier {
	if loc == nil {
		loc = i18n.NewLocalization()
	}
	return &Classifier{loc: loc}
}

// Classify returns the log event for a raw message, or false when the
// message is noise and must be suppressed
func (c *Classifier) Classify(channel Channel, msg string) (model.LogEvent, bool) {
	for _, r := range classifyRules {
		if !r.appliesTo(channel) || !r.match(msg) {
			continue
		}
		return r.render(c.loc, msg)
	}
	return model.LogEvent{}, false
}

func (r classifyRule) appliesTo(channel Channel) bool {
	if len(r.channels) == 0 {
		return true
	}
	for _, ch := range r.channels {
		if ch == channel {
			return true
		}
	}
	return false
}

func suppress(*i18n.Localization, string) (model.LogEvent, bool) {
	return model.LogEvent{}, false
}

func fixed(severity model.Severity, key string) func(*i18n.Localization, string) (model.LogEvent, bool) {
	return func(loc *i18n.Localization, _ string) (model.LogEvent, bool) {
		return event(severity, loc.GetText(key)), true
	}
}

func event(severity model.Severity, text string) model.LogEvent {
	return model.LogEvent{Severity: severity, Text: text}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
