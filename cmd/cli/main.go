package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"trailerhub/internal/apiclient"
	"trailerhub/internal/logging"
	"trailerhub/pkg/utils"
)

type app struct {
	configPath string
	baseURL    string
	tokenPath  string
	asJSON     bool
	timeout    time.Duration
}

type tokenData struct {
	Token string `json:"token"`
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "trailerhub",
		Short:         "Browse movies and trailers from a trailerhub API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.baseURL, "api", "", "API base URL (defaults to api.base_url)")
	root.PersistentFlags().StringVar(&a.tokenPath, "token", defaultTokenPath(), "token file path")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print raw JSON")

	root.AddCommand(
		a.moviesCmd(),
		a.categoryCmd(),
		a.searchCmd(),
		a.upcomingCmd(),
		a.titleCmd(),
		a.commentsCmd(),
		a.authCmd(),
		a.watchlistCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) loadConfig() error {
	cfg, err := utils.Load(a.configPath)
	if err != nil {
		return err
	}
	// Keep stdout clean for command output.
	cfg.Log.Format = "console"
	if cfg.Log.Level == "info" {
		cfg.Log.Level = "warn"
	}
	logging.Init(cfg.Log)

	if a.baseURL == "" {
		a.baseURL = cfg.API.BaseURL
	}
	a.timeout = cfg.API.Timeout
	return nil
}

func (a *app) client(opts apiclient.Options) *apiclient.Client {
	if opts.Timeout == 0 {
		opts.Timeout = a.timeout
	}
	return apiclient.New(a.baseURL, opts)
}

// authed returns a client carrying the saved token.
func (a *app) authed() (*apiclient.Client, error) {
	token, err := readToken(a.tokenPath)
	if err != nil {
		return nil, fmt.Errorf("token not found, please login: %w", err)
	}
	if token == "" {
		return nil, errors.New("token empty, please login")
	}
	c := a.client(apiclient.Options{})
	c.Token = token
	return c, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json: %w", err)
	}
	fmt.Println(string(b))
	return nil
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.trailerhub-token.json"
	}
	return filepath.Join(home, ".trailerhub", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
