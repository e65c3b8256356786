package ui

import (
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"

	"github.com/ytget/vidgrab/internal/config"
	"github.com/ytget/vidgrab/internal/i18n"
	"github.com/ytget/vidgrab/internal/model"
)

func newTestRootUI(t *testing.T) *RootUI {
	t.Helper()
	app := test.NewApp()
	t.Cleanup(app.Quit)

	settings := config.NewSettings(app, t.TempDir())
	settings.SetLanguage(i18n.LangEnglish)
	return NewRootUI(test.NewWindow(nil), app, settings, Dependencies{})
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/watch?v=1", "https://example.com/watch?v=1"},
		{"  https://example.com/a \n", "https://example.com/a"},
		{"https://exa\r\nmple.com/\t", "https://example.com/"},
		{"\n\t ", ""},
	}

	for _, tt := range tests {
		if got := cleanURL(tt.input); got != tt.expected {
			t.Errorf("cleanURL(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"http://example.com/video", false},
		{"ftp://example.com/video", true},
		{"example.com/video", true},
		{"https://", true},
		{"://bad", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := validateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestSeverityColor(t *testing.T) {
	tests := map[model.Severity]string{
		model.SeverityError:   string(theme.ColorNameError),
		model.SeverityWarning: string(theme.ColorNameWarning),
		model.SeveritySuccess: string(theme.ColorNameSuccess),
		model.SeverityDebug:   string(theme.ColorNameDisabled),
		model.SeverityInfo:    string(theme.ColorNameForeground),
	}

	for severity, expected := range tests {
		if got := string(severityColor(severity)); got != expected {
			t.Errorf("severityColor(%s) = %s, expected %s", severity, got, expected)
		}
	}
}

func TestInfoDetails(t *testing.T) {
	loc := i18n.NewLocalization()
	uploader := "Channel"
	views := int64(1234567)
	height := 1080
	info := &model.VideoMetadata{
		Title:           "Clip",
		DurationSeconds: 125,
		Uploader:        &uploader,
		ViewCount:       &views,
	}
	formats := []model.FormatDescriptor{{FormatID: "137", Height: &height, Extension: "mp4"}}

	got := infoDetails(loc, info, formats, 1500*time.Millisecond)

	for _, want := range []string{
		"Title: Clip",
		"Duration: 2:05",
		"Uploader: Channel",
		"Views: 1,234,567",
		"Available formats: 1",
		"Best quality: 1080p",
		"Search time: 1.5s",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("infoDetails() missing %q in:\n%s", want, got)
		}
	}
}

func TestInfoDetailsMinimal(t *testing.T) {
	loc := i18n.NewLocalization()
	got := infoDetails(loc, &model.VideoMetadata{}, nil, 0)

	if !strings.Contains(got, "Title: Untitled") {
		t.Errorf("infoDetails() should fall back to the untitled text, got:\n%s", got)
	}
	for _, unwanted := range []string{"Uploader", "Views", "Best quality"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("infoDetails() should omit %q, got:\n%s", unwanted, got)
		}
	}
}

func TestSortedLanguageCodes(t *testing.T) {
	got := sortedLanguageCodes(map[string]string{"ru": "Русский", "en": "English", "pt": "Português"})
	if strings.Join(got, ",") != "en,pt,ru" {
		t.Errorf("sortedLanguageCodes() = %v", got)
	}
}

func TestCleanPath(t *testing.T) {
	if got := cleanPath("   "); got != "" {
		t.Errorf("cleanPath(blank) = %q, expected empty", got)
	}
	if got := cleanPath(" /tmp/videos/ "); got != "/tmp/videos" {
		t.Errorf("cleanPath() = %q, expected /tmp/videos", got)
	}
}

func TestRootUIRejectsBadInput(t *testing.T) {
	ui := newTestRootUI(t)

	ui.onFindClick()
	if !ui.notificationContainer.Visible() {
		t.Fatal("empty URL should show a notification")
	}
	if ui.notificationLabel.Text != "Please enter a video URL" {
		t.Errorf("notification = %q", ui.notificationLabel.Text)
	}

	ui.urlEntry.SetText("not a url")
	ui.onFindClick()
	if !strings.HasPrefix(ui.notificationLabel.Text, "Invalid URL") {
		t.Errorf("notification = %q, expected an invalid URL message", ui.notificationLabel.Text)
	}
	if ui.current != nil {
		t.Error("no session should start for invalid input")
	}
}

func TestRootUILanguageChange(t *testing.T) {
	ui := newTestRootUI(t)

	ui.onLanguageChange(i18n.LangRussian)

	if got := ui.settings.GetLanguage(); got != i18n.LangRussian {
		t.Errorf("stored language = %q, expected %q", got, i18n.LangRussian)
	}
	if ui.findBtn.Text != ui.localization.GetText(i18n.KeyFind) || ui.findBtn.Text == "Find" {
		t.Errorf("find button text was not translated: %q", ui.findBtn.Text)
	}
}

func TestCompactThemeSizes(t *testing.T) {
	th := NewCompactTheme()
	if got := th.Size(theme.SizeNamePadding); got != 3 {
		t.Errorf("padding = %v, expected 3", got)
	}
	if got, want := th.Size(theme.SizeNameSeparatorThickness), theme.DefaultTheme().Size(theme.SizeNameSeparatorThickness); got != want {
		t.Errorf("separator thickness = %v, expected default %v", got, want)
	}
}
