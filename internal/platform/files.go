package platform

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// Operating system constants
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Command constants
const (
	OpenCommand     = "open"
	ExplorerCommand = "explorer"
	XDGOpenCommand  = "xdg-open"
)

// Command parameters
const (
	MacOSSelectFlag    = "-R"
	WindowsSelectParam = "/select,"
)

// LinuxFileManagers are tried in order when xdg-open fails
var LinuxFileManagers = []string{"nautilus", "dolphin", "thunar", "nemo", "pcmanfm"}

// SkippedExtensions mark yt-dlp working files that are never the final result
var SkippedExtensions = []string{".part", ".ytdl", ".temp"}

// formatSuffix matches the per-format infix yt-dlp adds before merging,
// e.g. "Clip.f137" in "Clip.f137.mp4"
var formatSuffix = regexp.MustCompile(`\.f\d+(-\w+)?$`)

// OpenFileInManager reveals path in the system file manager. A directory
// is opened as is; a file is highlighted where the platform supports it.
func OpenFileInManager(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		resolved, resolveErr := ResolveDownloadedFile(path)
		if resolveErr != nil {
			return fmt.Errorf("file does not exist: %v", resolveErr)
		}
		path = resolved
		info, err = os.Stat(path)
		if err != nil {
			return fmt.Errorf("file does not exist: %v", err)
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	if info.IsDir() {
		return openDirectory(absPath)
	}

	switch runtime.GOOS {
	case OSDarwin:
		return exec.Command(OpenCommand, MacOSSelectFlag, absPath).Run()
	case OSWindows:
		return exec.Command(ExplorerCommand, WindowsSelectParam, absPath).Run()
	default:
		// File selection is not standardized on Linux; open the parent
		return openDirectory(filepath.Dir(absPath))
	}
}

func openDirectory(dir string) error {
	switch runtime.GOOS {
	case OSDarwin:
		return exec.Command(OpenCommand, dir).Run()
	case OSWindows:
		return exec.Command(ExplorerCommand, dir).Run()
	}

	if err := exec.Command(XDGOpenCommand, dir).Run(); err == nil {
		return nil
	}
	for _, fm := range LinuxFileManagers {
		if _, err := exec.LookPath(fm); err == nil {
			return exec.Command(fm, dir).Run()
		}
	}
	return fmt.Errorf("no suitable file manager found")
}

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// GetHomeDownloadsDir returns the standard Downloads directory for the user
func GetHomeDownloadsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "Downloads"), nil
}

// ResolveDownloadedFile maps the last path yt-dlp reported to the file that
// exists on disk. Format-specific names ("Clip.f137.mp4") and working files
// ("Clip.mp4.part") resolve to the merged result ("Clip.mp4" or
// "Clip.mkv").
func ResolveDownloadedFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path is empty")
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return "", fmt.Errorf("file path appears to be a URL: %s", path)
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	dir := filepath.Dir(path)
	stem := downloadStem(filepath.Base(path))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || isWorkingFile(entry.Name()) {
			continue
		}
		name := entry.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == stem {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("no file matching %q in %s", stem, dir)
}

// downloadStem strips working extensions, the media extension and the
// format infix from a yt-dlp file name
func downloadStem(name string) string {
	for isWorkingFile(name) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return formatSuffix.ReplaceAllString(name, "")
}

func isWorkingFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, skipped := range SkippedExtensions {
		if ext == skipped {
			return true
		}
	}
	return false
}
