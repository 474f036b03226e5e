package matchboard

import "testing"

func TestClassifyWidthThresholds(t *testing.T) {
	tests := []struct {
		name   string
		width  float64
		height float64
		want   DeviceClass
	}{
		{"narrow phone", 320, 568, DeviceMobile},
		{"wide phone", 767, 400, DeviceMobile},
		{"tablet lower bound", 768, 1024, DeviceTablet},
		{"tablet upper bound", 1023, 768, DeviceTablet},
		{"desktop lower bound", 1024, 768, DeviceDesktop},
		{"large desktop", 2560, 1440, DeviceDesktop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Classify(tt.width, tt.height, PlatformHints{})
			if info.Class != tt.want {
				t.Errorf("Classify(%v, %v) class = %v, want %v", tt.width, tt.height, info.Class, tt.want)
			}
		})
	}
}

func TestClassifyModelPatternsWin(t *testing.T) {
	// A phone model string overrides desktop-sized geometry.
	info := Classify(1920, 1080, PlatformHints{Model: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)"})
	if info.Class != DeviceMobile {
		t.Errorf("iPhone model at desktop size: class = %v, want mobile", info.Class)
	}
	if !info.IsTouch {
		t.Error("phone pattern should imply touch")
	}

	info = Classify(1920, 1080, PlatformHints{Model: "iPad Pro"})
	if info.Class != DeviceTablet {
		t.Errorf("iPad model: class = %v, want tablet", info.Class)
	}
	if !info.IsTouch {
		t.Error("tablet pattern should imply touch")
	}
}

func TestClassifyOrientation(t *testing.T) {
	if got := Classify(800, 600, PlatformHints{}).Orientation; got != Landscape {
		t.Errorf("800x600 orientation = %v, want landscape", got)
	}
	if got := Classify(600, 800, PlatformHints{}).Orientation; got != Portrait {
		t.Errorf("600x800 orientation = %v, want portrait", got)
	}
	// Square counts as landscape.
	if got := Classify(700, 700, PlatformHints{}).Orientation; got != Landscape {
		t.Errorf("square orientation = %v, want landscape", got)
	}
}

func TestClassifyDefaults(t *testing.T) {
	info := Classify(0, 0, PlatformHints{})
	if info.Class != DeviceDesktop {
		t.Errorf("no-signal class = %v, want desktop", info.Class)
	}
	if info.Orientation != Landscape {
		t.Errorf("no-signal orientation = %v, want landscape", info.Orientation)
	}
	if info.PixelRatio != 1 {
		t.Errorf("default pixel ratio = %v, want 1", info.PixelRatio)
	}
}

func TestClassifyPixelRatioAndTouchPassThrough(t *testing.T) {
	info := Classify(1200, 800, PlatformHints{Touch: true, PixelRatio: 2})
	if !info.IsTouch {
		t.Error("touch hint not carried through")
	}
	if info.PixelRatio != 2 {
		t.Errorf("pixel ratio = %v, want 2", info.PixelRatio)
	}
	// Touch alone does not reclassify a desktop-sized container.
	if info.Class != DeviceDesktop {
		t.Errorf("touch desktop class = %v, want desktop", info.Class)
	}
}
