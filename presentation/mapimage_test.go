package presentation

import (
	"bytes"
	"image/png"
	"math"
	"testing"
)

func TestProject(t *testing.T) {
	tests := []struct {
		lat, lon float64
		zoom     int
		x, y     float64
	}{
		{0, 0, 0, 128, 128},
		{0, -180, 0, 0, 128},
		{0, 180, 1, 512, 256},
		{90, 0, 0, 128, 0}, // clamped to the Mercator limit
		{-90, 0, 0, 128, 256},
	}
	for _, tt := range tests {
		x, y := Project(tt.lat, tt.lon, tt.zoom)
		if math.Abs(x-tt.x) > 1e-6 || math.Abs(y-tt.y) > 1e-3 {
			t.Errorf("Project(%v, %v, %d) = (%v, %v), expected (%v, %v)", tt.lat, tt.lon, tt.zoom, x, y, tt.x, tt.y)
		}
	}

	// Northern latitudes sit above the equator
	_, north := Project(24.86, 67.01, MapZoom)
	_, equator := Project(0, 67.01, MapZoom)
	if north >= equator {
		t.Errorf("Expected y %v to be above the equator %v", north, equator)
	}
}

func TestRenderMarkerPNG(t *testing.T) {
	var buf bytes.Buffer
	m := MapMarker{Lat: 24.8608, Lon: 67.0104, Zoom: MapZoom, Tooltip: "Karachi"}
	if err := RenderMarkerPNG(&buf, m, 400, 300); err != nil {
		t.Fatalf("Failed to render marker: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("Expected 400x300 image, got %dx%d", b.Dx(), b.Dy())
	}

	// The marker head is drawn just above the centre
	r, g, bl, _ := img.At(200, 143).RGBA()
	if r>>8 < 0xc0 || g>>8 > 0x60 || bl>>8 > 0x60 {
		t.Errorf("Expected a red marker pixel, got (%d, %d, %d)", r>>8, g>>8, bl>>8)
	}
}
