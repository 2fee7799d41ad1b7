// Package device derives human-readable device names from User-Agent strings.
// The names show up in request logs and in notification payloads ("final
// approval submitted from Safari on iPhone") so moderators can spot anomalies.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent returns a display name like "Chrome on Mac OS X".
// Unknown or empty agents degrade gracefully rather than erroring.
func ParseUserAgent(uaString string) string {
	if uaString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(uaString)

	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			os = platform
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}

	return strings.TrimSpace(browser + " on " + os)
}
