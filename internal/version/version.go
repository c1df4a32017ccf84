// Package version carries the server version string.
package version

const Version = "0.1.0"
