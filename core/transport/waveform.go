package transport

import (
	"image"
	"image/color"
)

// Colors for the interactive waveform: played bars in front of the progress
// cursor render in the progress tone.
var (
	waveColor     = color.RGBA{R: 0x6b, G: 0x7c, B: 0x93, A: 0xff}
	progressColor = color.RGBA{R: 0x3d, G: 0x9b, B: 0xe9, A: 0xff}
	cursorColor   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// WaveformFrame rasterizes the engine's full-width interactive waveform with
// the progress cursor at the current play position. The progress ratio is
// derived from CurrentTime()/Duration() on every call, never from wall-clock
// time, so frames rendered during playback stay honest to the transport.
// Returns nil when nothing is loaded.
func (e *Engine) WaveformFrame(width, height int) *image.RGBA {
	if width <= 0 || height <= 0 {
		return nil
	}

	e.mu.Lock()
	envelope := e.envelope
	dur := e.duration
	pos := e.positionLocked()
	e.mu.Unlock()

	if len(envelope.Peaks) == 0 {
		return nil
	}

	ratio := 0.0
	if dur > 0 {
		ratio = clamp(pos/dur, 0, 1)
	}
	cursorX := int(ratio * float64(width))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	mid := height / 2

	for x := 0; x < width; x++ {
		peak := envelope.Peaks[x*len(envelope.Peaks)/width]
		half := int(peak * float64(mid))
		if half < 1 {
			half = 1
		}
		col := waveColor
		if x < cursorX {
			col = progressColor
		}
		for y := mid - half; y <= mid+half; y++ {
			if y >= 0 && y < height {
				img.SetRGBA(x, y, col)
			}
		}
	}

	// One-pixel cursor column.
	if cursorX >= 0 && cursorX < width {
		for y := 0; y < height; y++ {
			img.SetRGBA(cursorX, y, cursorColor)
		}
	}

	return img
}
