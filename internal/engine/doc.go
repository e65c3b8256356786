package engine

// Package engine defines the contract between the download core and the media
// extraction engine, and implements it on top of yt-dlp through
// github.com/lrstanley/go-ytdlp. The core only sees the Engine interface: it
// never builds yt-dlp flags or parses its output itself.
