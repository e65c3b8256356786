package config

import (
	"fyne.io/fyne/v2"

	"github.com/ytget/vidgrab/internal/i18n"
	"github.com/ytget/vidgrab/internal/platform"
)

// Window identifies a window whose size is persisted
type Window string

const (
	WindowMain     Window = "main_window"
	WindowLoading  Window = "loading_dialog"
	WindowInfo     Window = "video_info"
	WindowDownload Window = "download_dialog"
)

// Settings keys for Fyne preferences
const (
	KeySaveDir   = "save_path"
	KeyLanguage  = "app_language"
	KeyPreflight = "preflight_info"

	keyWidthSuffix  = "_width"
	keyHeightSuffix = "_height"
)

// Default values
const (
	DefaultLanguage  = i18n.LangSystem
	DefaultPreflight = true
)

// DefaultWindowSizes are the initial sizes of each window
var DefaultWindowSizes = map[Window]fyne.Size{
	WindowMain:     {Width: 520, Height: 160},
	WindowLoading:  {Width: 400, Height: 180},
	WindowInfo:     {Width: 600, Height: 400},
	WindowDownload: {Width: 600, Height: 320},
}

// Settings manages presentation preferences. The download core never
// reads them; values are passed in explicitly.
type Settings struct {
	app      fyne.App
	fallback string
}

// NewSettings creates a new settings manager. fallbackDir is used when no
// save directory was stored yet; empty means ~/Downloads.
func NewSettings(app fyne.App, fallbackDir string) *Settings {
	return &Settings{app: app, fallback: fallbackDir}
}

// GetSaveDirectory returns the last used save directory
func (s *Settings) GetSaveDirectory() string {
	dir := s.app.Preferences().String(KeySaveDir)
	if dir != "" {
		return dir
	}

	dir = s.fallback
	if dir == "" {
		defaultDir, err := platform.GetHomeDownloadsDir()
		if err != nil {
			defaultDir = "downloads"
		}
		dir = defaultDir
	}
	s.SetSaveDirectory(dir)
	return dir
}

// SetSaveDirectory stores the save directory
func (s *Settings) SetSaveDirectory(dir string) {
	s.app.Preferences().SetString(KeySaveDir, dir)
}

// GetLanguage returns the configured language
func (s *Settings) GetLanguage() string {
	lang := s.app.Preferences().String(KeyLanguage)
	if lang == "" {
		s.SetLanguage(DefaultLanguage)
		return DefaultLanguage
	}
	return lang
}

// SetLanguage sets the application language
func (s *Settings) SetLanguage(lang string) {
	s.app.Preferences().SetString(KeyLanguage, lang)
}

// GetLanguageOptions returns available language options
func (s *Settings) GetLanguageOptions() map[string]string {
	options := map[string]string{i18n.LangSystem: "System Default"}
	for code, name := range i18n.NewLocalization().GetAvailableLanguages() {
		options[code] = name
	}
	return options
}

// GetPreflight reports whether metadata is fetched again before a download
func (s *Settings) GetPreflight() bool {
	return s.app.Preferences().BoolWithFallback(KeyPreflight, DefaultPreflight)
}

// SetPreflight sets whether metadata is fetched again before a download
func (s *Settings) SetPreflight(enabled bool) {
	s.app.Preferences().SetBool(KeyPreflight, enabled)
}

// GetWindowSize returns the stored size of w, or its default
func (s *Settings) GetWindowSize(w Window) fyne.Size {
	def := DefaultWindowSizes[w]
	prefs := s.app.Preferences()
	width := prefs.FloatWithFallback(string(w)+keyWidthSuffix, float64(def.Width))
	height := prefs.FloatWithFallback(string(w)+keyHeightSuffix, float64(def.Height))
	if width <= 0 || height <= 0 {
		return def
	}
	return fyne.NewSize(float32(width), float32(height))
}

// SetWindowSize stores the size of w
func (s *Settings) SetWindowSize(w Window, size fyne.Size) {
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	prefs := s.app.Preferences()
	prefs.SetFloat(string(w)+keyWidthSuffix, float64(size.Width))
	prefs.SetFloat(string(w)+keyHeightSuffix, float64(size.Height))
}
