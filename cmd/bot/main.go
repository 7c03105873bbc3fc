package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	config "github.com/beardedvibes/beardedvibes/configs"
	"github.com/beardedvibes/beardedvibes/internal/bot"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	b, err := bot.New(*cfg)
	if err != nil {
		log.Fatalf("Failed to set up bot: %v", err)
	}

	if err := b.Start(); err != nil {
		log.Fatalf("Failed to connect to Discord: %v", err)
	}
	log.Println("Bot is watching the uploads channel. Press Ctrl+C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down bot...")
	if err := b.Stop(); err != nil {
		log.Fatalf("Failed to close discord session: %v", err)
	}
	log.Println("Bot shutdown complete.")
}
