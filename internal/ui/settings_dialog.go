package ui

import (
	"path/filepath"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/vidgrab/internal/config"
	"github.com/ytget/vidgrab/internal/i18n"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings     *config.Settings
	localization *i18n.Localization
	window       fyne.Window
	dialog       *dialog.ConfirmDialog
	onSaved      func()

	// UI components
	saveDirEntry   *widget.Entry
	languageSelect *widget.Select
	preflightCheck *widget.Check

	languageCodes []string
}

// ShowSettingsDialog creates and shows the settings dialog. onSaved runs
// after the values were stored.
func ShowSettingsDialog(window fyne.Window, settings *config.Settings, loc *i18n.Localization, onSaved func()) {
	NewSettingsDialog(settings, loc, window, onSaved).Show()
}

// NewSettingsDialog creates a new settings dialog
func NewSettingsDialog(settings *config.Settings, loc *i18n.Localization, window fyne.Window, onSaved func()) *SettingsDialog {
	sd := &SettingsDialog{
		settings:     settings,
		localization: loc,
		window:       window,
		onSaved:      onSaved,
	}

	sd.createUI()
	return sd
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	loc := sd.localization

	sd.saveDirEntry = widget.NewEntry()
	browseDirBtn := widget.NewButton(IconFolder, sd.onBrowseDirectory)
	saveDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.saveDirEntry)

	labels := sd.settings.GetLanguageOptions()
	sd.languageCodes = sortedLanguageCodes(labels)
	names := make([]string, len(sd.languageCodes))
	for i, code := range sd.languageCodes {
		names[i] = labels[code]
	}
	sd.languageSelect = widget.NewSelect(names, nil)

	sd.preflightCheck = widget.NewCheck(loc.GetText(i18n.KeyPreflight), nil)

	form := container.NewVBox(
		widget.NewLabel(loc.Textf(i18n.KeySaveFolder, "")),
		saveDirRow,
		widget.NewLabel(loc.GetText(i18n.KeyLanguage)),
		sd.languageSelect,
		widget.NewSeparator(),
		sd.preflightCheck,
	)

	sd.dialog = dialog.NewCustomConfirm(
		loc.GetText(i18n.KeySettings),
		loc.GetText(i18n.KeySave),
		loc.GetText(i18n.KeyCancel),
		form,
		sd.onSave,
		sd.window,
	)

	sd.dialog.Resize(fyne.NewSize(SettingsDialogWidth, SettingsDialogHeight))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.saveDirEntry.SetText(sd.settings.GetSaveDirectory())
	sd.preflightCheck.SetChecked(sd.settings.GetPreflight())

	current := sd.settings.GetLanguage()
	for i, code := range sd.languageCodes {
		if code == current {
			sd.languageSelect.SetSelectedIndex(i)
			return
		}
	}
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.saveDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}

	if dir := cleanPath(sd.saveDirEntry.Text); dir != "" {
		sd.settings.SetSaveDirectory(dir)
	}

	if idx := sd.languageSelect.SelectedIndex(); idx >= 0 && idx < len(sd.languageCodes) {
		sd.settings.SetLanguage(sd.languageCodes[idx])
	}

	sd.settings.SetPreflight(sd.preflightCheck.Checked)

	if sd.onSaved != nil {
		sd.onSaved()
	}
}

// sortedLanguageCodes returns the codes of labels in a stable order
func sortedLanguageCodes(labels map[string]string) []string {
	codes := make([]string, 0, len(labels))
	for code := range labels {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// cleanPath trims and cleans a typed directory; empty input stays empty
func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}
