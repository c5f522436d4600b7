package model

// Package model defines domain data structures used across the app: progress
// records and the label table they live in, the event stream published while a
// download runs, task snapshots, playlists and status enums. Structures are
// plain values so observers can copy them freely.
