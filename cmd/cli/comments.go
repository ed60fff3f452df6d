package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"trailerhub/internal/apiclient"
	"trailerhub/internal/retry"
	"trailerhub/pkg/models"
)

func (a *app) commentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and post comment threads",
	}

	list := &cobra.Command{
		Use:   "list <movie-id>",
		Short: "Show a movie's comment thread, retrying while the API is unavailable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The fetcher owns retries here, so the client makes one attempt per call.
			client := a.client(apiclient.Options{Policy: retry.Policy{MaxAttempts: 1}})
			snap := loadComments(commandContext(cmd), client, args[0], retry.DefaultPolicy, os.Stderr)
			switch snap.State {
			case retry.Success:
			case retry.PersistentError:
				return fmt.Errorf("comments unavailable: %w", snap.Err)
			default:
				return fmt.Errorf("comments unavailable (%s)", snap.State)
			}
			if a.asJSON {
				return printJSON(snap.Items)
			}
			if len(snap.Items) == 0 {
				fmt.Println("no comments yet")
				return nil
			}
			printThread(os.Stdout, snap.Items, 0)
			return nil
		},
	}

	var parent int64
	post := &cobra.Command{
		Use:   "post <movie-id> <text...>",
		Short: "Post a comment, or a reply with --parent",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authed()
			if err != nil {
				return err
			}
			var parentID *int64
			if parent > 0 {
				parentID = &parent
			}
			c, err := client.PostComment(commandContext(cmd), args[0], strings.Join(args[1:], " "), parentID)
			if err != nil {
				return fmt.Errorf("post comment: %w", err)
			}
			if a.asJSON {
				return printJSON(c)
			}
			fmt.Printf("posted comment #%d\n", c.ID)
			return nil
		},
	}
	post.Flags().Int64Var(&parent, "parent", 0, "id of the comment to reply to")

	cmd.AddCommand(list, post)
	return cmd
}

type commentLister interface {
	ListComments(ctx context.Context, movieID string) ([]models.Comment, error)
}

// loadComments blocks until the fetcher settles in Success or PersistentError.
func loadComments(ctx context.Context, client commentLister, movieID string, policy retry.Policy, progress io.Writer) retry.Snapshot[models.Comment] {
	settled := make(chan retry.Snapshot[models.Comment], 1)
	f := retry.NewFetcher[models.Comment](client.ListComments, retry.FetcherOptions[models.Comment]{
		Policy: policy,
		OnChange: func(s retry.Snapshot[models.Comment]) {
			switch s.State {
			case retry.TransientError:
				fmt.Fprintf(progress, "comments unavailable, retrying (attempt %d)\n", s.Attempts)
			case retry.Success, retry.PersistentError:
				select {
				case settled <- s:
				default:
				}
			}
		},
	})
	defer f.Close()

	snap := f.Load(ctx, movieID)
	if snap.State == retry.Success || snap.State == retry.PersistentError {
		return snap
	}
	select {
	case snap = <-settled:
	case <-ctx.Done():
		f.Cancel()
		snap = f.Snapshot()
	}
	return snap
}

func printThread(w io.Writer, thread []models.Comment, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, c := range thread {
		who := c.Username
		if who == "" {
			who = c.UserID
		}
		fmt.Fprintf(w, "%s#%d %s (%s): %s\n", indent, c.ID, who, c.CreatedAt.Format("2006-01-02 15:04"), c.Body)
		printThread(w, c.Replies, depth+1)
	}
}
