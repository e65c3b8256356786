package ui

// Package ui contains the Fyne-based desktop user interface. The main window
// takes a URL and a save folder; each search opens a session that walks
// through a loading window, an info window with the ranked formats and a
// download window with progress and a colored log. All UI strings are
// localized via i18n.Localization.
