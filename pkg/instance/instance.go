// Package instance names the running process for logs.
package instance

import "os"

const fallbackID = "local"

// GetID returns the platform dyno name, then the host name, then "local".
func GetID() string {
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
