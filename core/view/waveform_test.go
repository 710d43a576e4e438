package view

import (
	"testing"

	"CutRoom/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWaveform(t *testing.T) {
	data := model.PeaksData{Peaks: []float64{0.0, 1.0, 0.5, 0.25}, Duration: 4}
	img := RenderWaveform(data, Box{Width: 4, Height: 20})
	require.NotNil(t, img)

	// Full-scale bar fills the column around the midline.
	assert.Equal(t, miniWaveColor, img.RGBAAt(1, 0))
	assert.Equal(t, miniWaveColor, img.RGBAAt(1, 19))
	// Half-scale bar is mirrored around the midline and stops short of the edges.
	assert.Equal(t, miniWaveColor, img.RGBAAt(2, 6))
	assert.Equal(t, miniWaveColor, img.RGBAAt(2, 14))
	assert.NotEqual(t, miniWaveColor, img.RGBAAt(2, 1))
}

func TestRenderWaveformNothingToDraw(t *testing.T) {
	assert.Nil(t, RenderWaveform(model.PeaksData{}, Box{Width: 100, Height: 20}))
	assert.Nil(t, RenderWaveform(model.PeaksData{Peaks: []float64{1}}, Box{Width: 0, Height: 20}))
	assert.Nil(t, RenderWaveform(model.PeaksData{Peaks: []float64{1}}, Box{Width: 100, Height: 0}))
}
