package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

const apiBase = "http://localhost:8080/api/v1"

type Critter struct {
	DisplayName string   `json:"displayName"`
	Symbols     []string `json:"symbols"`
	Key         string   `json:"key"`
	PIN         string   `json:"pin"`
	Role        string   `json:"role"`
	Token       string   `json:"-"`
}

type SessionResponse struct {
	AccessToken string `json:"accessToken"`
}

type LoginResponse struct {
	Identity struct {
		Key         string   `json:"key"`
		Symbols     []string `json:"symbols"`
		DisplayName string   `json:"displayName"`
		Role        string   `json:"role"`
	} `json:"identity"`
	IsNewAccount bool `json:"isNewAccount"`
}

func issueSession() (string, error) {
	resp, err := http.Post(apiBase+"/session", "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("session issue failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode failed: %w", err)
	}

	return result.AccessToken, nil
}

func login(token string, symbols []string, pin, displayName string) (*Critter, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"symbols":     symbols,
		"pin":         pin,
		"displayName": displayName,
	})

	req, _ := http.NewRequest("POST", apiBase+"/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("login failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	return &Critter{
		DisplayName: result.Identity.DisplayName,
		Symbols:     result.Identity.Symbols,
		Key:         result.Identity.Key,
		PIN:         pin,
		Role:        result.Identity.Role,
		Token:       token,
	}, nil
}

func createChannel(token, id, name, emoji string) error {
	body, _ := json.Marshal(map[string]string{
		"id":    id,
		"name":  name,
		"emoji": emoji,
	})

	req, _ := http.NewRequest("POST", apiBase+"/channels", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// 409 means a previous run already created it
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusConflict {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("create channel failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

func sendMessage(token, channelID, body string) error {
	payload, _ := json.Marshal(map[string]string{"body": body})

	req, _ := http.NewRequest("POST", apiBase+"/channels/"+channelID+"/messages", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send message failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

func main() {
	fmt.Println("Setting up demo chat room...")
	fmt.Println()

	pin := "4242"
	seeds := []struct {
		symbols []string
		name    string
	}{
		{[]string{"🦊", "🐸", "🦄"}, "Foxglove"},
		{[]string{"🐼", "🐼", "🐙"}, "Bamboo"},
		{[]string{"🐱", "🐭", "🐔"}, "Whiskers"},
		{[]string{"🐻", "🐯", "🐧"}, "Grumbles"},
	}

	// Log in the critters. On a fresh database the first one becomes admin.
	fmt.Println("Logging in critters...")
	var critters []*Critter
	for i, seed := range seeds {
		token, err := issueSession()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue session %d: %v\n", i+1, err)
			os.Exit(1)
		}

		critter, err := login(token, seed.symbols, pin, seed.name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to log in critter %d: %v\n", i+1, err)
			os.Exit(1)
		}
		critters = append(critters, critter)
		fmt.Printf("  ✓ %s %s (%s)\n", critter.Key, critter.DisplayName, critter.Role)
	}

	admin := critters[0]
	if admin.Role != "admin" {
		fmt.Println("\nNote: first critter is not admin, so channel creation may fail.")
		fmt.Println("Run against a fresh database for the full demo.")
	}

	// Admin adds a couple of channels next to the built-in #general
	fmt.Println("\nCreating channels...")
	channels := []struct{ id, name, emoji string }{
		{"random", "Random", "🎲"},
		{"help", "Help", "🆘"},
	}
	for _, ch := range channels {
		if err := createChannel(admin.Token, ch.id, ch.name, ch.emoji); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create #%s: %v\n", ch.id, err)
			os.Exit(1)
		}
		fmt.Printf("  ✓ #%s\n", ch.id)
	}

	// Seed a little conversation
	fmt.Println("\nSeeding messages...")
	script := []struct {
		critter int
		channel string
		body    string
	}{
		{0, "general", "welcome to the den!"},
		{1, "general", "hi everyone 🎋"},
		{2, "general", "found the snack channel yet?"},
		{3, "random", "rolling dice in here"},
		{1, "help", "ask your questions in this channel"},
	}
	for _, line := range script {
		if err := sendMessage(critters[line.critter].Token, line.channel, line.body); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to send message: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("  ✓ %d messages sent\n", len(script))

	// Output the setup information
	fmt.Println("\n" + "============================================================")
	fmt.Println("DEMO CHAT SETUP COMPLETE")
	fmt.Println("============================================================")

	fmt.Printf("\nCritters (all use PIN %s):\n", pin)
	for i, c := range critters {
		fmt.Printf("  %d. %s  %s  [%s]\n", i+1, c.Key, c.DisplayName, c.Role)
	}

	fmt.Println("\nChannels: #general #random #help")
	fmt.Println("\nLog in with any symbol triple above to join the room.")

	// Output JSON for programmatic use
	output := map[string]interface{}{
		"pin":      pin,
		"critters": critters,
	}

	fmt.Println("\n" + "============================================================")
	fmt.Println("JSON OUTPUT (for scripts):")
	fmt.Println("============================================================")
	jsonOutput, _ := json.MarshalIndent(output, "", "  ")
	fmt.Println(string(jsonOutput))
}
