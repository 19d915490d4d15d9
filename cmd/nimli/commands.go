package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"nimli/internal/app"
	"nimli/internal/config"
	"nimli/internal/platform/logger"
	"nimli/internal/usecase"
)

// loadConfig is replaced in tests.
var loadConfig = config.Load

func rootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "nimli",
		Short:         "Creator catalogue gateway, chat bot and query tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(os.Stderr)
	root.AddCommand(serveCmd(), botCmd(), migrateCmd(), tagsCmd(), creatorsCmd())
	return root
}

// runApp loads config, builds the App and hands it to fn.
func runApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := app.NewLogger(cfg, nil)
	defer logger.Close(log)

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	runErr := fn(a)
	if err := a.Close(); err != nil {
		log.Warn("shutdown", "err", err)
	}
	return runErr
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, func(a *app.App) error { return a.Serve(cmd.Context()) })
		},
	}
}

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the chat bot with long polling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, func(a *app.App) error { return a.RunBot(cmd.Context()) })
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schemas for the configured stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := app.NewLogger(cfg, cmd.ErrOrStderr())
			defer logger.Close(log)
			res, err := app.Migrate(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

// withCatalog runs fn against the catalogue only. Logs go to stderr so
// stdout stays valid JSON.
func withCatalog(cmd *cobra.Command, fn func(c *usecase.CatalogService) (any, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := app.NewLogger(cfg, cmd.ErrOrStderr())
	defer logger.Close(log)

	c, err := app.NewCatalog(cfg, log)
	if err != nil {
		return err
	}
	v, err := fn(c)
	if err != nil {
		return err
	}
	return printJSON(cmd, v)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func tagsCmd() *cobra.Command {
	tags := &cobra.Command{Use: "tags", Short: "Query tags"}

	var and, or string
	var offset, limit int
	search := &cobra.Command{
		Use:   "search",
		Short: "Search tags by name; --and terms must all match, --or terms any",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCatalog(cmd, func(c *usecase.CatalogService) (any, error) {
				return c.SearchTagsByName(cmd.Context(), usecase.TagNameSearch{
					And:         and,
					Or:          or,
					PageRequest: usecase.PageRequest{Offset: offset, Limit: limit},
				})
			})
		},
	}
	search.Flags().StringVar(&and, "and", "", "space separated terms that must all match")
	search.Flags().StringVar(&or, "or", "", "space separated terms of which one must match")
	search.Flags().IntVar(&offset, "offset", 0, "results to skip")
	search.Flags().IntVar(&limit, "limit", 20, "page size")

	var popularLimit int
	popular := &cobra.Command{
		Use:   "popular",
		Short: "List the most clicked tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCatalog(cmd, func(c *usecase.CatalogService) (any, error) {
				return c.GetPopularTags(cmd.Context(), popularLimit)
			})
		},
	}
	popular.Flags().IntVar(&popularLimit, "limit", 20, "number of tags")

	tags.AddCommand(search, popular)
	return tags
}

func creatorsCmd() *cobra.Command {
	creators := &cobra.Command{Use: "creators", Short: "Query creators"}

	var offset, limit int
	byTags := &cobra.Command{
		Use:   "by-tags <tag-id>...",
		Short: "List creators carrying every given tag, best match first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(c *usecase.CatalogService) (any, error) {
				return c.SearchCreatorsByTags(cmd.Context(), usecase.CreatorTagSearch{
					TagIDs:      args,
					PageRequest: usecase.PageRequest{Offset: offset, Limit: limit},
				})
			})
		},
	}
	byTags.Flags().IntVar(&offset, "offset", 0, "results to skip")
	byTags.Flags().IntVar(&limit, "limit", 20, "page size")

	var popularLimit int
	popular := &cobra.Command{
		Use:   "popular",
		Short: "List creators by popularity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCatalog(cmd, func(c *usecase.CatalogService) (any, error) {
				return c.GetPopularCreators(cmd.Context(), popularLimit)
			})
		},
	}
	popular.Flags().IntVar(&popularLimit, "limit", 20, "number of creators")

	show := &cobra.Command{
		Use:   "show <creator-id>",
		Short: "Show a creator and similar creators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(c *usecase.CatalogService) (any, error) {
				return c.GetCreatorDetail(cmd.Context(), args[0])
			})
		},
	}

	creators.AddCommand(byTags, popular, show)
	return creators
}
