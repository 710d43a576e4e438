package peaks

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"CutRoom/logger"
	"CutRoom/model"
)

// decodeSampleRate is the rate audio is resampled to before bucketing. A max
// envelope at typical point counts survives 8 kHz mono fine, and it keeps
// the decoded stream small.
const decodeSampleRate = 8000

// Extractor reduces one audio file to a fixed-resolution peak envelope.
type Extractor interface {
	Extract(ctx context.Context, inputFile string, pointCount int) (model.PeaksData, error)
	Available() bool
}

// FFmpegExtractor decodes through an external ffmpeg/ffprobe pair.
type FFmpegExtractor struct {
	ffmpegPath string
}

// NewFFmpegExtractor creates an extractor using the given ffmpeg binary.
func NewFFmpegExtractor(ffmpegPath string) *FFmpegExtractor {
	return &FFmpegExtractor{ffmpegPath: ffmpegPath}
}

// Available reports whether the ffmpeg binary can be found. When it cannot,
// extraction degrades to an empty envelope instead of failing callers.
func (e *FFmpegExtractor) Available() bool {
	_, err := exec.LookPath(e.ffmpegPath)
	return err == nil
}

// probeDuration reads the container duration in seconds via ffprobe.
func (e *FFmpegExtractor) probeDuration(ctx context.Context, inputFile string) (float64, error) {
	ffprobePath := strings.Replace(e.ffmpegPath, "ffmpeg", "ffprobe", 1)

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		inputFile,
	}

	cmd := exec.CommandContext(ctx, ffprobePath, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w\nFFprobe Error: %s", inputFile, err, stderr.String())
	}

	var probeData struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out.Bytes(), &probeData); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable duration %q: %w", probeData.Format.Duration, err)
	}
	return duration, nil
}

// Extract decodes the file to a mono 16-bit stream and reduces it to
// pointCount buckets, keeping the maximum absolute sample per bucket. A max
// envelope, not an average: transient peaks must survive visually.
func (e *FFmpegExtractor) Extract(ctx context.Context, inputFile string, pointCount int) (model.PeaksData, error) {
	if pointCount <= 0 {
		pointCount = 1
	}
	if !e.Available() {
		logger.Warn("ffmpeg not available, returning empty envelope",
			logger.String("file", inputFile))
		return model.PeaksData{Peaks: []float64{}, Duration: 0}, nil
	}

	duration, err := e.probeDuration(ctx, inputFile)
	if err != nil {
		return model.PeaksData{}, err
	}

	args := []string{
		"-v", "error",
		"-i", inputFile,
		"-f", "s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(decodeSampleRate),
		"-",
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return model.PeaksData{}, fmt.Errorf("ffmpeg decode failed for %s: %w\nFFmpeg Error: %s", inputFile, err, stderr.String())
	}

	samples := bytesToSamples(out.Bytes())
	peaks := MaxEnvelope(samples, pointCount)

	logger.Debug("peak envelope extracted",
		logger.String("file", inputFile),
		logger.Int("samples", len(samples)),
		logger.Int("points", len(peaks)),
		logger.Float64("duration", duration))

	return model.PeaksData{Peaks: peaks, Duration: duration}, nil
}

// bytesToSamples reinterprets little-endian s16 bytes as samples.
func bytesToSamples(raw []byte) []int16 {
	n := len(raw) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return samples
}

// MaxEnvelope buckets samples into pointCount groups and keeps the maximum
// absolute value of each, normalized to [0,1].
func MaxEnvelope(samples []int16, pointCount int) []float64 {
	if pointCount <= 0 || len(samples) == 0 {
		return []float64{}
	}
	peaks := make([]float64, pointCount)
	bucket := len(samples) / pointCount
	if bucket < 1 {
		bucket = 1
	}
	for i := 0; i < pointCount; i++ {
		start := i * bucket
		if start >= len(samples) {
			break
		}
		end := start + bucket
		if i == pointCount-1 || end > len(samples) {
			end = len(samples)
		}
		peak := 0
		for _, s := range samples[start:end] {
			v := int(s)
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
		peaks[i] = float64(peak) / 32768.0
	}
	return peaks
}
