package presentation

import (
	"fmt"
	"io"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	tileSize    = 256
	maxLatitude = 85.05112878
)

// Project returns the Web Mercator pixel position of a coordinate at zoom
func Project(lat, lon float64, zoom int) (x, y float64) {
	lat = math.Max(-maxLatitude, math.Min(maxLatitude, lat))
	scale := tileSize * math.Exp2(float64(zoom))
	x = (lon + 180) / 360 * scale
	sin := math.Sin(lat * math.Pi / 180)
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * scale
	return x, y
}

// RenderMarkerPNG draws the map frame around the marker: the tile grid at
// the marker's zoom, the marker itself and its label
func RenderMarkerPNG(w io.Writer, m MapMarker, width, height int) error {
	dc := gg.NewContext(width, height)
	dc.SetHexColor("#e8eef1")
	dc.Clear()

	px, py := Project(m.Lat, m.Lon, m.Zoom)
	originX := px - float64(width)/2
	originY := py - float64(height)/2

	dc.SetHexColor("#b8c4cc")
	dc.SetLineWidth(1)
	for gx := math.Ceil(originX/tileSize) * tileSize; gx < originX+float64(width); gx += tileSize {
		dc.DrawLine(gx-originX, 0, gx-originX, float64(height))
	}
	for gy := math.Ceil(originY/tileSize) * tileSize; gy < originY+float64(height); gy += tileSize {
		dc.DrawLine(0, gy-originY, float64(width), gy-originY)
	}
	dc.Stroke()

	cx, cy := float64(width)/2, float64(height)/2
	dc.SetHexColor("#d7263d")
	dc.DrawCircle(cx, cy-14, 9)
	dc.Fill()
	dc.MoveTo(cx-8, cy-10)
	dc.LineTo(cx+8, cy-10)
	dc.LineTo(cx, cy)
	dc.ClosePath()
	dc.Fill()
	dc.SetHexColor("#ffffff")
	dc.DrawCircle(cx, cy-14, 3.5)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetHexColor("#1b1b1b")
	if m.Tooltip != "" {
		dc.DrawStringAnchored(m.Tooltip, cx, cy+14, 0.5, 0.5)
	}
	dc.DrawStringAnchored(fmt.Sprintf("%s, %s  zoom %d", FormatNumber(m.Lat), FormatNumber(m.Lon), m.Zoom), 6, float64(height)-8, 0, 0)

	return dc.EncodePNG(w)
}
