package model

// Package model defines the domain data structures shared by the core and the
// presentation layers: video metadata and formats, progress updates, log events,
// download outcomes and the session state machine. Values are plain structs so
// they can be passed across goroutines by value.
