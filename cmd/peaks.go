package cmd

import (
	"context"
	"fmt"
	"log"

	"CutRoom/config"
	"CutRoom/core/peaks"

	"github.com/spf13/cobra"
)

var (
	peaksPoints int
	peaksFile   string
)

var peaksCmd = &cobra.Command{
	Use:   "peaks",
	Short: "Extract a peak envelope from a local audio file",
	Long:  `Decodes a local audio file with ffmpeg and prints the downsampled peak envelope, the same data the waveform endpoints serve.`,
	Run: func(cmd *cobra.Command, args []string) {
		if peaksFile == "" {
			log.Fatal("an input file is required (-f)")
		}

		cfg := config.Load()
		extractor := peaks.NewFFmpegExtractor(cfg.FFmpegPath)
		if !extractor.Available() {
			log.Fatalf("ffmpeg not found at %q", cfg.FFmpegPath)
		}

		data, err := extractor.Extract(context.Background(), peaksFile, peaksPoints)
		if err != nil {
			log.Fatalf("extraction failed: %v", err)
		}

		fmt.Printf("duration: %.3fs, points: %d\n", data.Duration, len(data.Peaks))
		for i, p := range data.Peaks {
			fmt.Printf("%4d %.4f\n", i, p)
		}
	},
}

func init() {
	rootCmd.AddCommand(peaksCmd)

	peaksCmd.Flags().StringVarP(&peaksFile, "file", "f", "", "audio file to analyze")
	peaksCmd.Flags().IntVarP(&peaksPoints, "points", "p", 64, "points in the envelope")

	peaksCmd.Example = `  # Print a 64-point envelope
  cutroom peaks -f narration.wav

  # Match the default web resolution
  cutroom peaks -f narration.wav -p 512`
}
