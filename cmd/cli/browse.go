package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trailerhub/internal/apiclient"
	"trailerhub/internal/catalog"
	"trailerhub/internal/compose"
	"trailerhub/pkg/models"
)

// composer merges the bundled catalog with what the API serves.
func (a *app) composer() *compose.Composer {
	c := a.client(apiclient.Options{})
	return compose.New(catalog.MustDefault(), c, c)
}

func (a *app) moviesCmd() *cobra.Command {
	var q models.MovieQuery
	var featured, trending, latest bool
	cmd := &cobra.Command{
		Use:   "movies",
		Short: "List backend movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("featured") {
				q.Featured = &featured
			}
			if cmd.Flags().Changed("trending") {
				q.Trending = &trending
			}
			if cmd.Flags().Changed("latest") {
				q.Latest = &latest
			}
			recs, err := a.client(apiclient.Options{}).ListMovies(commandContext(cmd), q)
			if err != nil {
				return fmt.Errorf("list movies: %w", err)
			}
			if a.asJSON {
				return printJSON(recs)
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tCATEGORY")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.Title, r.Year, r.Category)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&q.Category, "category", "", "category slug")
	cmd.Flags().StringVarP(&q.Q, "query", "q", "", "title keyword")
	cmd.Flags().BoolVar(&featured, "featured", false, "only featured movies")
	cmd.Flags().BoolVar(&trending, "trending", false, "only trending movies")
	cmd.Flags().BoolVar(&latest, "latest", false, "only latest movies")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "offset")
	return cmd
}

func (a *app) categoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "category [id]",
		Short: "Show a merged category, or list all categories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comp := a.composer()
			ctx := commandContext(cmd)
			if len(args) == 0 {
				cats := comp.Categories(ctx)
				if a.asJSON {
					return printJSON(cats)
				}
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tMOVIES")
				for _, c := range cats {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", c.ID, c.Name, len(c.Movies))
				}
				return tw.Flush()
			}

			cat, err := comp.Category(ctx, args[0])
			if errors.Is(err, compose.ErrUnknownCategory) {
				return fmt.Errorf("category %q not found", args[0])
			}
			if err != nil {
				return err
			}
			if a.asJSON {
				return printJSON(cat)
			}
			fmt.Printf("%s (%d)\n", cat.Name, len(cat.Movies))
			return printMovies(os.Stdout, cat.Movies)
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search every category and upcoming trailers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := a.composer().Search(commandContext(cmd), strings.Join(args, " "))
			if a.asJSON {
				return printJSON(results)
			}
			if len(results) == 0 {
				fmt.Println("no matches")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tCATEGORY")
			for _, r := range results {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Movie.ID, r.Movie.Title, yearOrDash(r.Movie.Year), r.Category)
			}
			return tw.Flush()
		},
	}
}

func (a *app) upcomingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming",
		Short: "List unreleased trailers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			trailers, err := a.client(apiclient.Options{}).ListUpcoming(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("list upcoming: %w", err)
			}
			if a.asJSON {
				return printJSON(trailers)
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tRELEASE\tTRAILER")
			for _, t := range trailers {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Title, t.ReleaseDate, t.TrailerURL)
			}
			return tw.Flush()
		},
	}
}

func (a *app) titleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "title <id>",
		Short: "Resolve a display id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.client(apiclient.Options{}).Title(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			if m == nil {
				return fmt.Errorf("title %q not found", args[0])
			}
			if a.asJSON {
				return printJSON(m)
			}
			return printMovies(os.Stdout, []models.Movie{*m})
		},
	}
}

func printMovies(w io.Writer, movies []models.Movie) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tTRAILER")
	for _, m := range movies {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Title, yearOrDash(m.Year), m.TrailerURL)
	}
	return tw.Flush()
}

func yearOrDash(y int) string {
	if y == 0 {
		return "-"
	}
	return fmt.Sprint(y)
}
