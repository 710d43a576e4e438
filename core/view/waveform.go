package view

import (
	"image"
	"image/color"

	"CutRoom/model"
)

var miniWaveColor = color.RGBA{R: 0x8a, G: 0xa3, B: 0xc0, A: 0xff}

// Box is the raster target for a mini waveform: width from layout, fixed
// lane height.
type Box struct {
	Width  int
	Height int
}

// RenderWaveform draws a peak envelope as a vertically-mirrored bar chart
// scaled to the box. Pure function of (peaks, box); returns nil when there
// is nothing to draw, so an empty clip renders nothing rather than a
// placeholder.
func RenderWaveform(data model.PeaksData, box Box) *image.RGBA {
	if box.Width <= 0 || box.Height <= 0 || len(data.Peaks) == 0 {
		return nil
	}

	img := image.NewRGBA(image.Rect(0, 0, box.Width, box.Height))
	mid := box.Height / 2

	for x := 0; x < box.Width; x++ {
		peak := data.Peaks[x*len(data.Peaks)/box.Width]
		half := int(peak * float64(mid))
		if half < 1 {
			half = 1
		}
		for y := mid - half; y <= mid+half; y++ {
			if y >= 0 && y < box.Height {
				img.SetRGBA(x, y, miniWaveColor)
			}
		}
	}
	return img
}
