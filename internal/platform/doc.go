// Package platform contains OS integration used by the presentation layers:
// download directory discovery, directory creation, resolving the file
// yt-dlp finally wrote, and revealing it in the system file manager.
package platform
