package matchwatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vasylcode/matchwatch/internal/config"
	"github.com/vasylcode/matchwatch/internal/model"
	"github.com/vasylcode/matchwatch/internal/remote"
	"github.com/vasylcode/matchwatch/internal/session"
	"github.com/vasylcode/matchwatch/internal/storage"
	"github.com/vasylcode/matchwatch/internal/util"
	"github.com/vasylcode/matchwatch/internal/version"
	"golang.org/x/sync/errgroup"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	logOut  io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "matchwatch",
	Short: "Matchwatch - football matches, watchlist and bet recommendations",
	Long: `Matchwatch is a terminal dashboard and CLI for browsing football matches,
keeping a watchlist with custom betting conditions, and reviewing AI bet
recommendations stored behind a spreadsheet web app.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute executes the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer func() {
		if logOut != nil {
			logOut.Close()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.Version = version.Version
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.matchwatch/config.yaml)")
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}

	c, err := config.Load(path)
	if err != nil {
		er(fmt.Sprintf("Failed to load config: %v", err))
		return
	}
	cfg = c

	w, err := util.OpenLogFile(cfg.Logging.File)
	if err != nil {
		er(fmt.Sprintf("Failed to open log file: %v", err))
		return
	}
	logOut = w
	logger = util.NewLogger(cfg.Logging.Level, w)
	logger.Debug("config loaded", "path", path, "endpoint_set", cfg.Endpoint.URL != "")
}

func er(msg interface{}) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", msg)
	os.Exit(1)
}

// openStorage opens the prefs store or exits
func openStorage() *storage.Storage {
	s, err := storage.New()
	if err != nil {
		er(fmt.Sprintf("Failed to initialize storage: %v", err))
	}
	return s
}

// requireLogin opens the prefs store and exits unless the user is logged in
func requireLogin() *storage.Storage {
	s := openStorage()
	if !s.Authenticated() {
		er("not logged in (run 'matchwatch login')")
	}
	return s
}

// newCoordinator builds the remote client and the watchlist coordinator from
// the loaded config and prefs
func newCoordinator(s *storage.Storage, opts ...session.Option) *session.Coordinator {
	if cfg.Endpoint.URL == "" {
		er("endpoint url is not configured (set endpoint.url in the config file or MATCHWATCH_ENDPOINT_URL)")
	}

	client := remote.NewClient(cfg.Endpoint.URL, cfg.Endpoint.APIKey, cfg.Endpoint.Timeout, remote.WithLogger(logger))
	base := []session.Option{
		session.WithLogger(logger),
		session.WithDefaults(s.Prefs().DefaultMode, model.Priority(cfg.Watchlist.DefaultPriority)),
		session.WithBackoff(session.Backoff{
			Attempts: cfg.Watchlist.RetryAttempts,
			Base:     cfg.Watchlist.RetryBaseDelay,
		}),
	}
	return session.NewCoordinator(client, session.New(), append(base, opts...)...)
}

// cliNotifier prints coordinator notifications in colour
func cliNotifier() session.Notifier {
	return session.NotifierFunc(func(message string, severity session.Severity) {
		switch severity {
		case session.Success:
			color.New(color.FgGreen).Println(message)
		case session.Warning:
			color.New(color.FgYellow).Fprintln(os.Stderr, message)
		case session.Error:
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %s\n", message)
		default:
			color.New(color.FgHiBlack).Println(message)
		}
	})
}

// mustLoad fetches the approved leagues and then runs loaders concurrently.
// Failures have already been reported by the notifier, so it only exits.
func mustLoad(ctx context.Context, c *session.Coordinator, loaders ...func(context.Context) error) {
	c.LoadLeagues(ctx)

	var g errgroup.Group
	for _, load := range loaders {
		g.Go(func() error { return load(ctx) })
	}
	if err := g.Wait(); err != nil {
		os.Exit(1)
	}
}

// exitOn exits with status 1 when a coordinator call failed. The coordinator
// has already told the user why.
func exitOn(err error) {
	if err != nil {
		logger.Debug("command failed", "error", err)
		os.Exit(1)
	}
}
