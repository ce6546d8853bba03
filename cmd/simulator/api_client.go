package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type Session struct {
	SessionID    string `json:"sessionId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Identity struct {
	Key         string   `json:"key"`
	Symbols     []string `json:"symbols"`
	DisplayName string   `json:"displayName"`
	Role        string   `json:"role"`
}

type LoginResponse struct {
	Identity     Identity `json:"identity"`
	IsNewAccount bool     `json:"isNewAccount"`
}

type Channel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

type Member struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Online      bool   `json:"online"`
}

// IssueSession requests an anonymous session token
func (c *APIClient) IssueSession() (*Session, error) {
	resp, err := c.post("/session", nil, "")
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("session issue failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &session, nil
}

// Login resolves a symbol triple plus PIN, creating the account when the
// key is new
func (c *APIClient) Login(token string, symbols []string, pin, displayName string) (*LoginResponse, error) {
	body := map[string]interface{}{
		"symbols":     symbols,
		"pin":         pin,
		"displayName": displayName,
	}

	resp, err := c.post("/auth/login", body, token)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("login failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// Logout releases the session's claim on its identity
func (c *APIClient) Logout(token string) error {
	resp, err := c.post("/auth/logout", nil, token)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("logout failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// GetChannels lists the channels visible to the caller
func (c *APIClient) GetChannels(token string) ([]Channel, error) {
	resp, err := c.get("/channels", token)
	if err != nil {
		return nil, fmt.Errorf("list channels request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list channels failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		Channels []Channel `json:"channels"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Channels, nil
}

// GetRoster fetches the member list with presence flags
func (c *APIClient) GetRoster(token string) ([]Member, error) {
	resp, err := c.get("/roster", token)
	if err != nil {
		return nil, fmt.Errorf("roster request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("roster failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		Members []Member `json:"members"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Members, nil
}

// SendMessage posts a message to a channel
func (c *APIClient) SendMessage(token, channelID, body string) error {
	payload := map[string]string{
		"body": body,
	}

	resp, err := c.post("/channels/"+channelID+"/messages", payload, token)
	if err != nil {
		return fmt.Errorf("send message request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send message failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// HTTP helpers

func (c *APIClient) get(path, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

func (c *APIClient) post(path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}
