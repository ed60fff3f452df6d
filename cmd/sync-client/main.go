package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"trailerhub/internal/logging"
	synchub "trailerhub/internal/sync"
)

func main() {
	api := flag.String("api", "http://localhost:8080", "API base URL")
	pretty := flag.Bool("pretty", true, "pretty print events")
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console"})
	log := logging.With("sync-client")

	wsURL, err := websocketURL(*api, "/ws")
	if err != nil {
		log.Fatal().Err(err).Msg("invalid api url")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for ctx.Err() == nil {
		if err := run(ctx, wsURL, *pretty); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("disconnected")
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Second): // auto reconnect
		}
	}
}

func run(ctx context.Context, wsURL string, pretty bool) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()
	logging.Info().Str("component", "sync-client").Str("url", wsURL).Msg("connected")

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(render(data, pretty))
	}
}

// render prints activity events as one line each and anything else as JSON.
func render(data []byte, pretty bool) string {
	if !pretty {
		return string(data)
	}
	var ev synchub.ActivityEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.MovieID == "" {
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			return string(data)
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		return string(b)
	}
	line := fmt.Sprintf("%s  %-16s user=%s movie=%s", ev.At.Local().Format("15:04:05"), ev.Type, ev.UserID, ev.MovieID)
	if ev.List != "" {
		line += " list=" + ev.List
	}
	if ev.Rating > 0 {
		line += fmt.Sprintf(" rating=%d", ev.Rating)
	}
	return line
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: path}).String(), nil
}
