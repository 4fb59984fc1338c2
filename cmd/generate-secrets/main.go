package main

import (
	"fmt"
	"log"

	"github.com/glamspot/booking-backend/internal/utils"
)

func main() {
	fmt.Println("===========================================")
	fmt.Println("Secret Generator for GlamSpot Payments")
	fmt.Println("===========================================")
	fmt.Println()

	secrets, err := utils.GenerateSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Add these to your .env file or deployment secrets:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", secrets.JWTSecret)
	fmt.Printf("CRON_TRIGGER_SECRET=%s\n", secrets.CronSecret)
	fmt.Println()
	fmt.Println("Webhook secret (paste the same value into the gateway dashboard):")
	fmt.Printf("GATEWAY_WEBHOOK_SECRET=%s\n", secrets.WebhookSecret)
	fmt.Println()
	fmt.Println("Keep these secrets out of version control.")
	fmt.Println("===========================================")
}
