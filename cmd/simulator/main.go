package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/mlhuang/critterchat/internal/domain"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "populate":
		populateCmd(apiURL, args)
	case "chat":
		chatCmd(apiURL, args)
	case "roster":
		rosterCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Chat Simulator - Development tool for populating a chat server

USAGE:
  simulator <command> [options]

COMMANDS:
  populate  Create critter accounts and post a greeting in #general
  chat      Keep a set of critters online, chatting on an interval
  roster    Print the member roster with presence flags
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Create 5 critters, first one becomes the room admin on a fresh server
  simulator populate --count=5

  # Keep 3 critters chatting every 10 seconds
  simulator chat --count=3 --interval=10s

  # Show who is online
  simulator roster`)
}

var chatterLines = []string{
	"hello everyone!",
	"anyone around?",
	"this place is cozy",
	"brb getting snacks",
	"what did I miss?",
	"good to see you all",
	"ok back now",
	"who picked these emoji?",
}

// critterSymbols derives a distinct symbol triple per index so repeated
// runs log back into the same accounts instead of colliding on key with a
// different PIN.
func critterSymbols(index int) []string {
	n := len(domain.Alphabet)
	return []string{
		domain.Alphabet[index%n],
		domain.Alphabet[(index/n)%n],
		domain.Alphabet[(index/(n*n))%n],
	}
}

const critterPIN = "4242"

type critter struct {
	token       string
	displayName string
	key         string
}

// loginCritters issues a session per critter and resolves each one.
func loginCritters(client *APIClient, count int) ([]critter, error) {
	critters := make([]critter, 0, count)
	for i := 0; i < count; i++ {
		session, err := client.IssueSession()
		if err != nil {
			return nil, fmt.Errorf("critter %d: %w", i+1, err)
		}

		displayName := fmt.Sprintf("Critter%d", i+1)
		result, err := client.Login(session.AccessToken, critterSymbols(i), critterPIN, displayName)
		if err != nil {
			return nil, fmt.Errorf("critter %d: %w", i+1, err)
		}

		critters = append(critters, critter{
			token:       session.AccessToken,
			displayName: result.Identity.DisplayName,
			key:         result.Identity.Key,
		})

		status := "logged in"
		if result.IsNewAccount {
			status = "created"
		}
		if result.Identity.Role == "admin" {
			status += " (admin)"
		}
		fmt.Printf("  [%d/%d] %s %s %s\n", i+1, count, result.Identity.Key, result.Identity.DisplayName, status)
	}
	return critters, nil
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	count := fs.Int("count", 5, "Number of critters to create")
	fs.Parse(args)

	if *count < 1 {
		fmt.Println("Error: --count must be at least 1")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Chat Simulator: Populate ===")
	fmt.Println()
	fmt.Printf("Logging in %d critters (PIN %s):\n", *count, critterPIN)

	critters, err := loginCritters(client, *count)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Posting greetings to #general...")
	for _, c := range critters {
		body := fmt.Sprintf("%s waves hello", c.displayName)
		if err := client.SendMessage(c.token, "general", body); err != nil {
			fmt.Printf("  Warning: %s could not post: %v\n", c.displayName, err)
		}
	}

	fmt.Println()
	fmt.Println("Done. All critters stay logged in; run 'simulator chat' to keep them talking.")
}

func chatCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	count := fs.Int("count", 3, "Number of critters to keep chatting")
	interval := fs.Duration("interval", 10*time.Second, "Delay between messages")
	channel := fs.String("channel", "general", "Channel to chat in")
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	fmt.Printf("Logging in %d critters:\n", *count)
	critters, err := loginCritters(client, *count)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Chatting in #%s every %s. Ctrl-C to stop.\n", *channel, *interval)

	for {
		time.Sleep(*interval)
		c := critters[rand.Intn(len(critters))]
		line := chatterLines[rand.Intn(len(chatterLines))]
		if err := client.SendMessage(c.token, *channel, line); err != nil {
			fmt.Printf("  Warning: %s could not post: %v\n", c.displayName, err)
			continue
		}
		fmt.Printf("  %s: %s\n", c.displayName, line)
	}
}

func rosterCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("roster", flag.ExitOnError)
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	// The roster endpoint needs a logged-in identity, so borrow critter 1.
	critters, err := loginCritters(client, 1)
	if err != nil {
		fmt.Printf("Failed to log in: %v\n", err)
		os.Exit(1)
	}

	members, err := client.GetRoster(critters[0].token)
	if err != nil {
		fmt.Printf("Failed to fetch roster: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%d member(s):\n", len(members))
	for _, m := range members {
		status := "offline"
		if m.Online {
			status = "online"
		}
		fmt.Printf("  %-8s %s (%s)\n", status, m.DisplayName, m.Key)
	}
}
