package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"CutRoom/cache"
	"CutRoom/config"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Test the Redis connection",
	Long:  `Checks that the view-preference store is reachable and round-trips a probe key.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Redis: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		fmt.Println("Connected.")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		key := "cutroom:probe"
		if err := cache.RedisClient.Set(ctx, key, time.Now().Unix(), time.Minute).Err(); err != nil {
			log.Fatalf("write probe failed: %v", err)
		}
		if err := cache.RedisClient.Del(ctx, key).Err(); err != nil {
			log.Fatalf("delete probe failed: %v", err)
		}
		fmt.Println("Round trip OK.")

		if err := cache.CloseRedis(); err != nil {
			log.Printf("error closing Redis connection: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
