package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trailerhub/internal/apiclient"
	"trailerhub/pkg/models"
)

func (a *app) authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Log in, register or log out",
	}

	var email, password, username string
	login := &cobra.Command{
		Use:  "login",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}
			resp, err := a.client(apiclient.Options{}).Login(commandContext(cmd), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := saveToken(a.tokenPath, resp.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Printf("logged in as %s\n", resp.User.Username)
			return nil
		},
	}
	login.Flags().StringVar(&email, "email", "", "email address")
	login.Flags().StringVar(&password, "password", "", "password")

	register := &cobra.Command{
		Use:  "register",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || email == "" || password == "" {
				return errors.New("username, email, and password are required")
			}
			resp, err := a.client(apiclient.Options{}).Register(commandContext(cmd), username, email, password)
			if err != nil {
				return fmt.Errorf("register failed: %w", err)
			}
			if err := saveToken(a.tokenPath, resp.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Printf("registered and logged in as %s\n", resp.User.Username)
			return nil
		},
	}
	register.Flags().StringVar(&username, "username", "", "username")
	register.Flags().StringVar(&email, "email", "", "email address")
	register.Flags().StringVar(&password, "password", "", "password")

	logout := &cobra.Command{
		Use:  "logout",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Revoke server-side when possible; the local token goes either way.
			if client, err := a.authed(); err == nil {
				if err := client.Logout(commandContext(cmd)); err != nil {
					fmt.Fprintln(os.Stderr, "warning: server logout failed:", err)
				}
			}
			if err := clearToken(a.tokenPath); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Println("logged out")
			return nil
		},
	}

	cmd.AddCommand(login, register, logout)
	return cmd
}

func (a *app) watchlistCmd() *cobra.Command {
	var list string
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Show your watchlist (or favorites with --list favorite)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authed()
			if err != nil {
				return err
			}
			page, err := client.Watchlist(commandContext(cmd), list)
			if err != nil {
				return fmt.Errorf("watchlist: %w", err)
			}
			if a.asJSON {
				return printJSON(page)
			}
			fmt.Printf("%s (%d)\n", page.List, page.Total)
			if len(page.Movies) > 0 {
				return printMovies(os.Stdout, page.Movies)
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MOVIE\tADDED")
			for _, it := range page.Items {
				fmt.Fprintf(tw, "%s\t%s\n", it.MovieID, it.AddedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}
	cmd.PersistentFlags().StringVar(&list, "list", models.ListWatchlist, "watchlist or favorite")

	add := &cobra.Command{
		Use:  "add <movie-id>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authed()
			if err != nil {
				return err
			}
			if err := client.AddToWatchlist(commandContext(cmd), args[0], list); err != nil {
				return fmt.Errorf("add: %w", err)
			}
			fmt.Printf("added %s to %s\n", args[0], list)
			return nil
		},
	}
	remove := &cobra.Command{
		Use:  "remove <movie-id>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authed()
			if err != nil {
				return err
			}
			if err := client.RemoveFromWatchlist(commandContext(cmd), args[0], list); err != nil {
				return fmt.Errorf("remove: %w", err)
			}
			fmt.Printf("removed %s from %s\n", args[0], list)
			return nil
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}
