package command

// root.go defines the root command for the manhwahub CLI.
// set up the global flags and configuration here.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"manhwahub/cmd/cli/authentication"
	"manhwahub/internal/config"
	"manhwahub/internal/discussion"
	"manhwahub/internal/discussion/client"
	"manhwahub/internal/discussion/thread"
	"manhwahub/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
)

var (
	cfg      *config.Config
	log      zerolog.Logger
	apiURL   string // Global flag for the content site URL
	manhwaID int64  // Global flag for the detail page
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "manhwahub",
	Short: "manhwahub - comments and reactions from the terminal",
	Long: `manhwahub drives the comment section of a manhwa detail page from the terminal.
User can use this application to:
- Read the comment thread of a manhwa
- Post comments and replies
- Like or dislike comments

Use "manhwahub command --help" to see all available commands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if !cmd.Flags().Changed("api") {
			apiURL = cfg.APIURL
		}
		if !cmd.Flags().Changed("manhwa") {
			manhwaID = cfg.ManhwaID
		}
		log = logger.New(cfg.LogLevel, cfg.LogFormat, "cli")
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8000", "content site URL")
	rootCmd.PersistentFlags().Int64VarP(&manhwaID, "manhwa", "m", 0, "manhwa detail page id")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(threadCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(reactCmd)
}

// newClient builds an HTTP client primed with the cookies saved by "auth login"
func newClient() (*client.HTTPClient, *authentication.StoredSession, error) {
	httpClient, err := client.NewHTTPClient(apiURL, client.Options{
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.RequestBurst,
		CSRFCookieName:    cfg.CSRFCookieName,
		CSRFHeaderName:    cfg.CSRFHeaderName,
		Logger:            log,
	})
	if err != nil {
		return nil, nil, err
	}

	session, err := authentication.GetSession()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return httpClient, nil, nil
		}
		return nil, nil, fmt.Errorf("read stored session: %w", err)
	}
	httpClient.SetCookies(session.Cookies(authentication.SessionCookieName, cfg.CSRFCookieName))
	return httpClient, session, nil
}

// openPage sets up one detail page for the duration of a command
func openPage() (*discussion.DetailPage, func(), error) {
	if manhwaID <= 0 {
		return nil, nil, errors.New("a manhwa id is required (--manhwa or MANHWA_ID)")
	}

	httpClient, session, err := newClient()
	if err != nil {
		return nil, nil, err
	}

	pageCfg := discussion.PageConfig{
		ManhwaID:      manhwaID,
		RenderReplies: cfg.RenderReplies,
		NotifyTTL:     cfg.NotifyTTL,
	}

	var cache *thread.RedisFragmentCache
	if cfg.CacheEnabled() && session != nil {
		cache, err = thread.NewRedisFragmentCache(cfg.RedisURL, cfg.RedisPassword, cfg.CacheExpiry())
		if err != nil {
			log.Warn().Err(err).Msg("fragment cache disabled")
			cache = nil
		} else {
			pageCfg.Cache = cache
			pageCfg.ViewerKey = session.Username
		}
	}

	page := discussion.NewDetailPage(httpClient, pageCfg, log)
	closer := func() {
		page.Close()
		if err := cache.Close(); err != nil {
			log.Warn().Err(err).Msg("close fragment cache")
		}
		// keep a rotated csrf token for the next run
		if session != nil {
			updated := authentication.FromCookies(session.Username, httpClient.Cookies(), authentication.SessionCookieName, cfg.CSRFCookieName)
			if *updated != *session {
				if err := authentication.StoreSession(updated); err != nil {
					log.Warn().Err(err).Msg("store session")
				}
			}
		}
	}
	return page, closer, nil
}
