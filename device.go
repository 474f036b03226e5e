package matchboard

import "strings"

// Device class width thresholds, in CSS-ish pixels.
const (
	mobileMaxWidth = 767
	tabletMaxWidth = 1023
)

// PlatformHints carries optional environment signals for classification.
// The zero value means "no signal": classification falls back to geometry.
type PlatformHints struct {
	Touch      bool
	PixelRatio float64
	// Model is a free-form platform/model string (user agent, device model).
	// Matched case-insensitively against known phone and tablet patterns.
	Model string
}

// DeviceInfo describes the viewing device. Recomputed as a whole on every
// environment change; never partially mutated.
type DeviceInfo struct {
	Class       DeviceClass
	Orientation Orientation
	IsTouch     bool
	PixelRatio  float64
}

var phonePatterns = []string{"iphone", "ipod", "android phone", "windows phone", "blackberry"}

var tabletPatterns = []string{"ipad", "tablet", "kindle", "silk", "playbook"}

func matchesAny(model string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(model, p) {
			return true
		}
	}
	return false
}

// Classify derives device class, orientation, and touch capability from
// container geometry and platform hints. Explicit platform signals win;
// geometric width thresholds are the fallback. Classification never fails:
// with no signal at all it defaults to desktop/landscape.
func Classify(width, height float64, hints PlatformHints) DeviceInfo {
	info := DeviceInfo{
		Class:       DeviceDesktop,
		Orientation: Landscape,
		IsTouch:     hints.Touch,
		PixelRatio:  hints.PixelRatio,
	}
	if info.PixelRatio <= 0 {
		info.PixelRatio = 1
	}
	if height > width {
		info.Orientation = Portrait
	}

	model := strings.ToLower(hints.Model)
	switch {
	case model != "" && matchesAny(model, phonePatterns):
		info.Class = DeviceMobile
		info.IsTouch = true
	case model != "" && matchesAny(model, tabletPatterns):
		info.Class = DeviceTablet
		info.IsTouch = true
	case width > 0 && width <= mobileMaxWidth:
		info.Class = DeviceMobile
	case width > 0 && width <= tabletMaxWidth:
		info.Class = DeviceTablet
	}
	return info
}
