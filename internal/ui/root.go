package ui

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/config"
	"github.com/ytget/vidgrab/internal/download"
	"github.com/ytget/vidgrab/internal/engine"
	"github.com/ytget/vidgrab/internal/i18n"
	"github.com/ytget/vidgrab/internal/platform"
	"github.com/ytget/vidgrab/internal/session"
)

// Dependencies are the collaborators the desktop UI drives
type Dependencies struct {
	Engine      engine.Engine
	Options     download.Options
	CancelGrace time.Duration
	Logger      *zap.Logger
}

// RootUI represents the main UI structure
type RootUI struct {
	app          fyne.App
	window       fyne.Window
	deps         Dependencies
	log          *zap.Logger
	settings     *config.Settings
	localization *i18n.Localization

	urlEntry    *widget.Entry
	findBtn     *widget.Button
	folderBtn   *widget.Button
	folderLabel *widget.Label

	// Notification panel
	notificationContainer *fyne.Container
	notificationLabel     *widget.Label
	notificationSpinner   *widget.ProgressBarInfinite

	// current is the open inspection/download flow, nil when idle
	current *sessionView
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, app fyne.App, settings *config.Settings, deps Dependencies) *RootUI {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	localization := i18n.NewLocalization()
	localization.SetLanguage(settings.GetLanguage())

	if err := platform.CreateDirectoryIfNotExists(settings.GetSaveDirectory()); err != nil {
		deps.Logger.Warn("failed to create save directory", zap.Error(err))
	}

	ui := &RootUI{
		app:          app,
		window:       window,
		deps:         deps,
		log:          deps.Logger.Named("ui"),
		settings:     settings,
		localization: localization,
	}

	window.SetTitle(localization.GetText(i18n.KeyAppTitle))
	window.Resize(settings.GetWindowSize(config.WindowMain))
	window.SetCloseIntercept(ui.onClose)

	ui.setupUI()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.createMenu()

	ui.urlEntry = widget.NewEntry()
	ui.urlEntry.SetPlaceHolder(ui.localization.GetText(i18n.KeyEnterURL))
	ui.urlEntry.OnSubmitted = func(string) {
		ui.onFindClick()
	}

	ui.findBtn = widget.NewButton(ui.localization.GetText(i18n.KeyFind), ui.onFindClick)
	ui.findBtn.Importance = widget.HighImportance

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	ui.folderBtn = widget.NewButton(IconFolder+" "+ui.localization.GetText(i18n.KeyFolder), ui.onChooseFolder)
	ui.folderLabel = widget.NewLabel("")
	ui.folderLabel.Truncation = fyne.TextTruncateEllipsis
	ui.refreshFolderLabel()

	var left fyne.CanvasObject = settingsBtn
	if logo, err := LoadLogoResource(); err == nil {
		logoImage := canvas.NewImageFromResource(logo)
		logoImage.SetMinSize(fyne.NewSize(LogoSize, LogoSize))
		logoImage.FillMode = canvas.ImageFillContain
		left = container.NewHBox(logoImage, settingsBtn)
	}

	urlRow := container.NewBorder(nil, nil, left, ui.findBtn, ui.urlEntry)
	folderRow := container.NewBorder(nil, nil, ui.folderBtn, nil, ui.folderLabel)

	// Notification panel under the URL row (hidden by default)
	ui.notificationLabel = widget.NewLabel("")
	ui.notificationLabel.Wrapping = fyne.TextWrapWord
	ui.notificationSpinner = widget.NewProgressBarInfinite()
	ui.notificationSpinner.Hide()
	ui.notificationContainer = container.NewBorder(nil, nil, nil, nil, container.NewVBox(ui.notificationSpinner, ui.notificationLabel))
	ui.notificationContainer.Hide()

	ui.window.SetContent(container.NewVBox(urlRow, folderRow, ui.notificationContainer))
	ui.window.Canvas().Focus(ui.urlEntry)
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	settingsItem := fyne.NewMenuItem(ui.localization.GetText(i18n.KeySettings), ui.onShowSettings)

	languageMenu := fyne.NewMenu(ui.localization.GetText(i18n.KeyLanguage))
	for _, code := range sortedLanguageCodes(ui.localization.GetAvailableLanguages()) {
		langCode := code
		langItem := fyne.NewMenuItem(ui.localization.GetAvailableLanguages()[code], func() {
			ui.onLanguageChange(langCode)
		})
		langItem.Checked = ui.localization.GetCurrentLanguage() == code
		languageMenu.Items = append(languageMenu.Items, langItem)
	}

	ui.window.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu(ui.localization.GetText(i18n.KeyAppTitle), settingsItem),
		languageMenu,
	))
}

// onLanguageChange handles language change
func (ui *RootUI) onLanguageChange(langCode string) {
	ui.localization.SetLanguage(langCode)
	ui.settings.SetLanguage(langCode)
	ui.refreshUITexts()
	ui.createMenu()
}

// refreshUITexts updates all UI texts with current language
func (ui *RootUI) refreshUITexts() {
	ui.window.SetTitle(ui.localization.GetText(i18n.KeyAppTitle))
	ui.urlEntry.SetPlaceHolder(ui.localization.GetText(i18n.KeyEnterURL))
	ui.findBtn.SetText(ui.localization.GetText(i18n.KeyFind))
	ui.folderBtn.SetText(IconFolder + " " + ui.localization.GetText(i18n.KeyFolder))
	ui.refreshFolderLabel()
}

func (ui *RootUI) refreshFolderLabel() {
	ui.folderLabel.SetText(ui.localization.Textf(i18n.KeySaveFolder, ui.settings.GetSaveDirectory()))
}

// onChooseFolder lets the user pick the save directory
func (ui *RootUI) onChooseFolder() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			ui.log.Warn("folder selection failed", zap.Error(err))
			return
		}
		if uri == nil {
			return
		}
		ui.settings.SetSaveDirectory(uri.Path())
		ui.refreshFolderLabel()
	}, ui.window)
}

// onFindClick validates the URL and starts an inspection session
func (ui *RootUI) onFindClick() {
	if ui.current != nil {
		ui.showNotification(ui.localization.GetText(i18n.KeyBusy), false)
		return
	}

	link := cleanURL(ui.urlEntry.Text)
	if link == "" {
		ui.showNotification(ui.localization.GetText(i18n.KeyPleaseEnterURL), false)
		return
	}
	if err := validateURL(link); err != nil {
		ui.showNotification(ui.localization.GetText(i18n.KeyInvalidURL)+": "+err.Error(), false)
		return
	}
	ui.urlEntry.SetText(link)
	ui.hideNotification()

	view, err := newSessionView(ui, link)
	if err != nil {
		ui.log.Error("failed to start session", zap.Error(err))
		dialog.ShowError(err, ui.window)
		return
	}
	ui.current = view
	ui.findBtn.Disable()
	view.start()
}

// sessionFinished is called on the UI thread when a session view closes
func (ui *RootUI) sessionFinished(view *sessionView) {
	if ui.current != view {
		return
	}
	ui.current = nil
	ui.findBtn.Enable()
	ui.hideNotification()
}

// newController builds a controller for one session. The controller gets
// its own localization so running tasks never race with language changes.
func (ui *RootUI) newController() (*session.Controller, error) {
	loc := i18n.NewLocalization()
	loc.SetLanguage(ui.localization.GetCurrentLanguage())

	opts := ui.deps.Options
	opts.Preflight = ui.settings.GetPreflight()

	return session.NewController(session.Config{
		Engine:       ui.deps.Engine,
		Options:      opts,
		Localization: loc,
		Logger:       ui.deps.Logger,
		CancelGrace:  ui.deps.CancelGrace,
	})
}

// showNotification displays a message in the notification panel under the URL input.
// When spinning is true, a spinner is shown to indicate background activity.
func (ui *RootUI) showNotification(message string, spinning bool) {
	ui.notificationLabel.SetText(message)
	if spinning {
		ui.notificationSpinner.Show()
	} else {
		ui.notificationSpinner.Hide()
	}
	ui.notificationContainer.Show()
}

// hideNotification hides the notification panel.
func (ui *RootUI) hideNotification() {
	ui.notificationSpinner.Hide()
	ui.notificationContainer.Hide()
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	ShowSettingsDialog(ui.window, ui.settings, ui.localization, func() {
		ui.localization.SetLanguage(ui.settings.GetLanguage())
		ui.refreshUITexts()
		ui.createMenu()
	})
}

// onClose stores the window size and stops a running session
func (ui *RootUI) onClose() {
	ui.settings.SetWindowSize(config.WindowMain, ui.window.Canvas().Size())
	if ui.current != nil {
		ui.current.shutdown()
	}
	ui.window.Close()
}

// cleanURL strips whitespace and control characters a paste may carry
func cleanURL(input string) string {
	replacer := strings.NewReplacer("\n", "", "\r", "", "\t", "")
	return strings.TrimSpace(replacer.Replace(input))
}

// validateURL accepts absolute http(s) URLs with a host
func validateURL(input string) error {
	parsedURL, err := url.Parse(input)
	if err != nil {
		return err
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("URL has no host: %s", input)
	}
	return nil
}
