// Package device derives a human-readable device name from a User-Agent
// string for session records and login activity entries.
package device

import (
	"fmt"

	"github.com/mssola/useragent"
)

// DisplayName renders a User-Agent as "Chrome on Mac OS X". Unparseable or
// empty agents fall back to "Unknown device".
func DisplayName(rawUA string) string {
	if rawUA == "" {
		return "Unknown device"
	}

	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name

	switch {
	case browser != "" && os != "":
		return fmt.Sprintf("%s on %s", browser, os)
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "Unknown device"
	}
}
