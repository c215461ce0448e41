// Package buildinfo holds build-time metadata kept apart from user
// configuration.
package buildinfo

import (
	"fmt"
	"os"
)

// UnknownValue is reported for metadata that was not injected at build time.
const UnknownValue = "unknown"

// Context contains build-time metadata. It is injected at startup through
// linker flags on the main package.
type Context struct {
	Version   string // git version tag
	BuildDate string
	Host      string // host the scanner runs on
}

// NewContext returns a Context. An empty host is filled from os.Hostname.
func NewContext(version, buildDate, host string) *Context {
	if host == "" {
		if h, err := os.Hostname(); err == nil {
			host = h
		}
	}
	return &Context{Version: version, BuildDate: buildDate, Host: host}
}

func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

func (c *Context) GetHost() string {
	if c == nil || c.Host == "" {
		return UnknownValue
	}
	return c.Host
}

// NodeName returns configured, or the host when nothing is configured.
func (c *Context) NodeName(configured string) string {
	if configured != "" {
		return configured
	}
	return c.GetHost()
}

// String renders the version line printed by the CLI.
func (c *Context) String() string {
	return fmt.Sprintf("seismo-go %s (built %s)", c.GetVersion(), c.GetBuildDate())
}
