package utils

import (
	"fmt"
	"strings"

	"github.com/avct/uasurfer"
)

type UserAgentInfo struct {
	Device  string
	OS      string
	Browser string
	Locale  string
}

// ParseUserAgent returns nil for user agents that do not resolve to a known
// device class, such as bots and health checkers.
func ParseUserAgent(uaString string, acceptLanguage string) *UserAgentInfo {
	ua := uasurfer.Parse(uaString)

	device, ok := deviceName(ua.DeviceType)
	if !ok {
		return nil
	}

	return &UserAgentInfo{
		Device:  device,
		OS:      fmt.Sprintf("%s %d.%d", ua.OS.Name.String(), ua.OS.Version.Major, ua.OS.Version.Minor),
		Browser: fmt.Sprintf("%s %d.%d", ua.Browser.Name.String(), ua.Browser.Version.Major, ua.Browser.Version.Minor),
		Locale:  primaryLocale(acceptLanguage),
	}
}

func deviceName(dt uasurfer.DeviceType) (string, bool) {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Computer", true
	case uasurfer.DeviceTablet:
		return "Tablet", true
	case uasurfer.DevicePhone:
		return "Phone", true
	case uasurfer.DeviceConsole:
		return "Console", true
	case uasurfer.DeviceWearable:
		return "Wearable", true
	case uasurfer.DeviceTV:
		return "TV", true
	default:
		return "", false
	}
}

// primaryLocale extracts the first entry of an Accept-Language header.
func primaryLocale(acceptLanguage string) string {
	if acceptLanguage == "" {
		return ""
	}
	if i := strings.IndexByte(acceptLanguage, ','); i >= 0 {
		return acceptLanguage[:i]
	}
	return acceptLanguage
}
