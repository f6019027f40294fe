package uaparse

import (
	"strings"

	"github.com/mssola/useragent"
)

// Device types recorded on click events.
const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceBot     = "Bot"
	DeviceUnknown = "Unknown"
)

type Result struct {
	BrowserName    string
	BrowserVersion string
	OSName         string
	OSVersion      string
	DeviceType     string
}

var botTokens = []string{
	"bot", "crawler", "spider", "scraper", "crawling",
	"headless", "phantom", "selenium", "webdriver",
}

var mobileTokens = []string{
	"mobile", "android", "iphone", "ipod", "blackberry",
	"windows phone", "opera mini", "opera mobi", "iemobile",
}

var tabletTokens = []string{
	"tablet", "ipad", "playbook", "kindle", "xoom",
	"galaxy tab", "nexus 7", "nexus 9", "nexus 10", "touchpad",
}

var desktopTokens = []string{
	"windows", "macintosh", "linux", "x11", "unix", "bsd",
	"chrome", "firefox", "safari", "edge", "opera",
}

// Parse classifies a raw User-Agent. Partial results are fine: a UA the
// library cannot interpret still gets a heuristic device type.
func Parse(rawUA string) Result {
	if rawUA == "" {
		return Result{DeviceType: DeviceUnknown}
	}

	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	osInfo := ua.OSInfo()

	return Result{
		BrowserName:    name,
		BrowserVersion: version,
		OSName:         osInfo.Name,
		OSVersion:      osInfo.Version,
		DeviceType:     deviceType(ua, rawUA),
	}
}

// deviceType runs a staircase of strategies: the parser's platform first,
// then bot tokens, then mobile, tablet and desktop markers.
func deviceType(ua *useragent.UserAgent, rawUA string) string {
	lower := strings.ToLower(rawUA)
	platform := strings.ToLower(ua.Platform())

	switch {
	case strings.Contains(platform, "iphone"), strings.Contains(platform, "ipod"):
		return DeviceMobile
	case strings.Contains(platform, "ipad"), strings.Contains(platform, "kindle"), strings.Contains(platform, "playbook"):
		return DeviceTablet
	case strings.Contains(platform, "blackberry"), strings.Contains(platform, "windows phone"):
		return DeviceMobile
	}
	if strings.Contains(lower, "android") && !ua.Bot() {
		if hasToken(lower, tabletTokens) {
			return DeviceTablet
		}
		return DeviceMobile
	}

	if ua.Bot() || hasToken(lower, botTokens) {
		return DeviceBot
	}

	if hasToken(lower, mobileTokens) {
		if hasToken(lower, tabletTokens) {
			return DeviceTablet
		}
		return DeviceMobile
	}

	if hasToken(lower, tabletTokens) {
		return DeviceTablet
	}

	if hasToken(lower, desktopTokens) {
		return DeviceDesktop
	}

	return DeviceUnknown
}

func hasToken(lowerUA string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(lowerUA, tok) {
			return true
		}
	}
	return false
}
