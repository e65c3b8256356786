package ui

// UI-wide constants to avoid magic numbers/strings scattered across the codebase.

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconFolder   = "📁"
)

// Layout sizing
const (
	LogoSize     float32 = 32
	LogMinHeight float32 = 140

	SettingsDialogWidth  float32 = 460
	SettingsDialogHeight float32 = 300
)
