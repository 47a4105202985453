// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

// DefaultPreferencesFile is the SQLite preference database used when no
// path is given.
const DefaultPreferencesFile = "decoplanner.db"
