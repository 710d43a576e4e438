package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"CutRoom/config"
	"CutRoom/storage"

	"github.com/spf13/cobra"
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Test the MinIO connection",
	Long:  `Checks that object storage is reachable, the audio bucket exists, and presigning works.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.Init(cfg); err != nil {
			log.Fatalf("failed to connect to MinIO: %v", err)
		}
		fmt.Println("Connected, bucket ready.")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		url, err := storage.Default().PresignGet(ctx, "probe/connectivity", time.Minute)
		if err != nil {
			log.Fatalf("presign probe failed: %v", err)
		}
		fmt.Printf("Presign OK: %s\n", url)
	},
}

func init() {
	rootCmd.AddCommand(storageCmd)
}
