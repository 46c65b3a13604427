// ABOUTME: Terminal client for the parley chat server over its HTTP API.
// ABOUTME: Provides readline-style input with live replies streamed over SSE.

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
)

// chatSummary is one entry in the GET /chats response.
type chatSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// message is one entry in the GET /chats/{id}/messages response.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// streamEvent is the JSON payload of a data frame on GET /events.
type streamEvent struct {
	ChatID  string `json:"chat_id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// session holds the chat the user is currently talking in. The stream
// follower reads it from another goroutine.
type session struct {
	mu     sync.Mutex
	chatID string
}

func (s *session) current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID
}

func (s *session) join(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatID = id
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath(), "Config file path")
	server := flag.String("server", "", "Server URL (overrides config)")
	chatID := flag.String("chat", "", "Chat ID to join on startup")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	serverURL := cfg.Server.URL
	if *server != "" {
		serverURL = *server
	}
	serverURL = strings.TrimRight(serverURL, "/")

	sess := &session{}
	if *chatID != "" {
		sess.join(*chatID)
	} else if cfg.Chat.Default != "" {
		sess.join(cfg.Chat.Default)
	}

	fmt.Printf("parley-tui connected to %s\n", serverURL)
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	// Setup context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Replies arrive asynchronously on the event stream
	go followEvents(ctx, serverURL, sess)

	if err := run(ctx, serverURL, sess); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

func run(ctx context.Context, server string, sess *session) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		// Print prompt (include chat ID if one is joined)
		if id := sess.current(); id != "" {
			fmt.Printf("[%s]> ", id)
		} else {
			fmt.Print("> ")
		}

		// Read input with context awareness
		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "/quit" || input == "/exit" || input == "/q" {
			return nil
		}

		if input == "/chats" {
			if err := listChats(ctx, server); err != nil {
				fmt.Printf("[error] %v\n", err)
			}
			fmt.Println()
			continue
		}

		if strings.HasPrefix(input, "/new") {
			title := strings.TrimSpace(strings.TrimPrefix(input, "/new"))
			if err := newChat(ctx, server, sess, title); err != nil {
				fmt.Printf("[error] %v\n", err)
			}
			fmt.Println()
			continue
		}

		if strings.HasPrefix(input, "/join") {
			id := strings.TrimSpace(strings.TrimPrefix(input, "/join"))
			if err := joinChat(ctx, server, sess, id); err != nil {
				fmt.Printf("[error] %v\n", err)
			}
			fmt.Println()
			continue
		}

		if input == "/history" {
			if err := showHistory(ctx, server, sess.current()); err != nil {
				fmt.Printf("[error] %v\n", err)
			}
			fmt.Println()
			continue
		}

		if input == "/help" {
			printHelp()
			fmt.Println()
			continue
		}

		// Anything else is a message for the joined chat
		if err := sendMessage(ctx, server, sess.current(), input); err != nil {
			fmt.Printf("[error] %v\n", err)
		}
	}
}

// printHelp displays available commands.
func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /chats         List chats")
	fmt.Println("  /new <title>   Create a chat and join it")
	fmt.Println("  /join <id>     Join an existing chat")
	fmt.Println("  /history       Show the joined chat's messages")
	fmt.Println("  /help          Show this help")
	fmt.Println("  /quit          Exit the TUI")
}

// listChats fetches and displays all chats, newest first.
func listChats(ctx context.Context, server string) error {
	resp, err := apiGet(ctx, server+"/chats")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var chats []chatSummary
	if err := json.NewDecoder(resp.Body).Decode(&chats); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if len(chats) == 0 {
		fmt.Println("No chats yet, /new <title> to start one")
		return nil
	}

	fmt.Println("Chats:")
	for _, c := range chats {
		fmt.Printf("  %s  %s  (%s)\n", c.ID, c.Title, formatTime(c.CreatedAt))
	}
	return nil
}

// newChat creates a chat and joins it.
func newChat(ctx context.Context, server string, sess *session, title string) error {
	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/chats", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}

	var chat chatSummary
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	sess.join(chat.ID)
	fmt.Printf("Joined new chat %s (%s)\n", chat.ID, chat.Title)
	return nil
}

// joinChat switches to an existing chat and prints its history.
func joinChat(ctx context.Context, server string, sess *session, id string) error {
	if id == "" {
		return fmt.Errorf("usage: /join <id>")
	}

	// Fetching history validates the ID before joining
	if err := showHistory(ctx, server, id); err != nil {
		return err
	}

	sess.join(id)
	fmt.Printf("Joined chat %s\n", id)
	return nil
}

// showHistory prints all messages in a chat.
func showHistory(ctx context.Context, server, id string) error {
	if id == "" {
		return fmt.Errorf("no chat joined, /new <title> or /join <id> first")
	}

	resp, err := apiGet(ctx, server+"/chats/"+id+"/messages")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var history []message
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if len(history) == 0 {
		fmt.Println("No messages yet")
		return nil
	}

	for _, m := range history {
		fmt.Printf("  %s %s\n", roleLabel(m.Role), m.Content)
	}
	return nil
}

// roleLabel colors a message role for terminal output.
func roleLabel(role string) string {
	switch role {
	case "assistant":
		return color.CyanString(role + ":")
	case "assistant_error":
		return color.RedString(role + ":")
	default:
		return role + ":"
	}
}

// sendMessage posts a message to the joined chat. The reply arrives later
// on the event stream.
func sendMessage(ctx context.Context, server, chatID, content string) error {
	if chatID == "" {
		return fmt.Errorf("no chat joined, /new <title> or /join <id> first")
	}

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/chats/%s/messages", server, chatID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return apiError(resp)
	}
	return nil
}

// followEvents tails GET /events for the process lifetime, printing
// replies for the joined chat. Dropped connections are retried.
func followEvents(ctx context.Context, server string, sess *session) {
	for {
		if err := streamEvents(ctx, server, sess); err != nil && ctx.Err() == nil {
			fmt.Printf("\n[stream] disconnected: %v, retrying\n", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(3 * time.Second):
		}
	}
}

func streamEvents(ctx context.Context, server string, sess *session) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server+"/events", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()

		// Comment lines are heartbeats, blank lines end a frame
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &event); err != nil {
			continue
		}

		if event.ChatID != sess.current() {
			continue
		}
		fmt.Printf("\n%s %s\n", roleLabel(event.Role), event.Content)
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

// apiGet performs a GET and turns non-200 responses into errors.
func apiGet(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp, nil
}

// apiError extracts the server's error message from a failed response.
func apiError(resp *http.Response) error {
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var errResp map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			if msg, ok := errResp["error"]; ok {
				return fmt.Errorf("%s", msg)
			}
		}
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}

// formatTime renders a server timestamp compactly, falling back to the
// raw string when it does not parse.
func formatTime(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.Local().Format("Jan 02 15:04")
}
