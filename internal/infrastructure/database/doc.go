// Package database provides SQLite persistence for motionlink.
//
// The database backs the mapping profile store: per-device axis
// transforms and template overrides edited through the control API.
// The live pipeline never blocks on it; profiles are read once at
// connect time.
//
// # Usage
//
//	db, err := database.Open(database.Config{Path: "./data/motionlink.db", WALMode: true, BusyTimeout: 5})
//	if err != nil { ... }
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil { ... }
//
// WAL mode is recommended: it allows concurrent reads while the API
// writes a profile.
package database
