// Command client is a terminal chat client: it logs in, prints the room
// history as a table and streams live translated messages while accepting
// input from stdin.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	ServerAddr string `envconfig:"SERVER_ADDR" default:"localhost:8080"`
	Email      string `envconfig:"CHAT_EMAIL"`
	Password   string `envconfig:"CHAT_PASSWORD"`
	Room       string `envconfig:"CHAT_ROOM"`
	Colours    bool   `envconfig:"CHAT_COLOURS" default:"true"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type historyResponse struct {
	Messages []struct {
		ID      string    `json:"id"`
		Sender  string    `json:"sender"`
		Content string    `json:"content"`
		At      time.Time `json:"at"`
	} `json:"messages"`
}

type frame struct {
	Batch []struct {
		Sender         string    `json:"sender"`
		Text           string    `json:"text"`
		TranslatedText string    `json:"translatedText"`
		At             time.Time `json:"at"`
	} `json:"batch,omitempty"`
	Ack   string `json:"ack,omitempty"`
	Error string `json:"error,omitempty"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if cfg.Email == "" || cfg.Password == "" || cfg.Room == "" {
		log.Fatal("CHAT_EMAIL, CHAT_PASSWORD and CHAT_ROOM are required")
	}

	token, err := login(cfg)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	if err := printHistory(cfg, token); err != nil {
		log.Fatalf("History failed: %v", err)
	}

	if err := stream(cfg, token); err != nil {
		log.Fatalf("Stream ended: %v", err)
	}
}

func login(cfg Config) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"email":    cfg.Email,
		"password": cfg.Password,
	})

	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/login", cfg.ServerAddr),
		"application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, raw)
	}

	var decoded tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	return decoded.Token, nil
}

func printHistory(cfg Config, token string) error {
	req, err := http.NewRequest(http.MethodGet,
		fmt.Sprintf("http://%s/api/rooms/%s/messages", cfg.ServerAddr, cfg.Room), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, raw)
	}

	var history historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Sender", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	// History comes newest first; render oldest first for reading order.
	for i := len(history.Messages) - 1; i >= 0; i-- {
		msg := history.Messages[i]
		table.Append([]string{msg.At.Local().Format("15:04:05"), msg.Sender, msg.Content})
	}
	table.Render()
	return nil
}

func stream(cfg Config, token string) error {
	wsURL := url.URL{
		Scheme:   "ws",
		Host:     cfg.ServerAddr,
		Path:     fmt.Sprintf("/ws/rooms/%s", cfg.Room),
		RawQuery: "token=" + url.QueryEscape(token),
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	header := fmt.Sprintf("  ====== room %s ======", cfg.Room)
	if cfg.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Println(header)

	done := make(chan error, 1)
	go func() {
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				done <- err
				return
			}
			render(cfg, f)
		}
	}()

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			payload, _ := json.Marshal(map[string]string{"content": text})
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				done <- err
				return
			}
		}
		done <- scanner.Err()
	}()

	return <-done
}

func render(cfg Config, f frame) {
	if f.Error != "" {
		line := fmt.Sprintf("! %s", f.Error)
		if cfg.Colours {
			line = color.Red.Render(line)
		}
		fmt.Println(line)
		return
	}
	for _, msg := range f.Batch {
		sender := msg.Sender
		if cfg.Colours {
			sender = color.Cyan.Render(sender)
		}
		line := fmt.Sprintf("[%s] %s: %s",
			msg.At.Local().Format("15:04:05"), sender, msg.TranslatedText)
		if msg.TranslatedText != msg.Text && cfg.Colours {
			line += color.Gray.Render(fmt.Sprintf("  (original: %s)", msg.Text))
		}
		fmt.Println(line)
	}
}
