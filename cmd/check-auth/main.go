package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/quizgate/quizgate/internal/config"
	"github.com/quizgate/quizgate/internal/upstream"
)

// check-auth verifies a set of credentials against the upstream quiz API
// without starting the gateway. Handy when wiring a new upstream.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	api := upstream.NewClient(cfg.UpstreamBaseURL, &http.Client{Timeout: cfg.UpstreamTimeout})

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Check Upstream Credentials ===")
	fmt.Printf("Upstream: %s\n", cfg.UpstreamBaseURL)

	// User ID
	fmt.Print("Enter User ID: ")
	userID, _ := reader.ReadString('\n')
	userID = strings.TrimSpace(userID)
	if userID == "" {
		fmt.Println("Error: User ID is required")
		return
	}

	// Role
	fmt.Print("Enter Role (trainer/participant): ")
	role, _ := reader.ReadString('\n')
	role = strings.TrimSpace(role)
	if role != "trainer" && role != "participant" {
		fmt.Println("Error: Role must be trainer or participant")
		return
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if password == "" {
		fmt.Println("Error: Password is required")
		return
	}

	// ─── Authenticate ──────────────────────────────────────────────────
	result, err := api.Authenticate(context.Background(), userID, password, role)
	if err != nil {
		fmt.Printf("Authentication failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Authentication OK")
	fmt.Printf("  Name:        %s\n", result.User.FullName)
	fmt.Printf("  Email:       %s\n", result.User.Email)
	fmt.Printf("  Trainer:     %t\n", result.User.IsTrainer)
	fmt.Printf("  Participant: %t\n", result.User.IsParticipant)
}
