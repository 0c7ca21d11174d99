package matchwatch

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func init() {
	loginCmd := &cobra.Command{
		Use:   "login [password]",
		Short: "Unlock matchwatch on this machine",
		Long:  `Unlock matchwatch on this machine. The password is prompted without echo when not given.`,
		Args:  cobra.MaximumNArgs(1),
		Run:   login,
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Lock matchwatch on this machine",
		Args:  cobra.NoArgs,
		Run:   logout,
	}

	// Settings command
	settingsCmd := &cobra.Command{
		Use:     "settings",
		Aliases: []string{"cfg"},
		Short:   "Show settings",
		Long:    `Show local settings and the loaded configuration.`,
		Args:    cobra.NoArgs,
		Run:     showSettings,
	}

	// Set subcommand
	setCmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Change a setting (default-mode, webhook-url)",
		Args:  cobra.ExactArgs(2),
		Run:   setSetting,
	}

	settingsCmd.AddCommand(setCmd)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(settingsCmd)
}

func login(cmd *cobra.Command, args []string) {
	s := openStorage()

	var password string
	if len(args) == 1 {
		password = args[0]
	} else {
		fmt.Print("Password: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			er(fmt.Sprintf("Failed to read password: %v", err))
		}
		password = string(b)
	}

	if !cfg.Auth.Check(password) {
		logger.Warn("login rejected")
		er("incorrect password")
	}
	if err := s.SetAuthenticated(true); err != nil {
		er(fmt.Sprintf("Failed to save login: %v", err))
	}
	logger.Info("login accepted")
	color.New(color.FgGreen).Println("Logged in successfully")
}

func logout(cmd *cobra.Command, args []string) {
	s := openStorage()
	if err := s.SetAuthenticated(false); err != nil {
		er(fmt.Sprintf("Failed to save logout: %v", err))
	}
	fmt.Println("Logged out")
}

func showSettings(cmd *cobra.Command, args []string) {
	s := openStorage()
	p := s.Prefs()

	label := color.New(color.FgHiBlack)
	value := color.New(color.Bold)
	row := func(name string, v interface{}) {
		fmt.Printf("%s %s\n", label.Sprintf("%-18s", name+":"), value.Sprint(v))
	}

	loggedIn := color.New(color.FgRed).Sprint("no")
	if p.Authenticated {
		loggedIn = color.New(color.FgGreen).Sprint("yes")
	}
	row("Logged in", loggedIn)
	row("Default mode", p.DefaultMode)
	row("Webhook URL", p.WebhookURL)
	row("Data directory", s.Dir())

	endpoint := cfg.Endpoint.URL
	if endpoint == "" {
		endpoint = color.New(color.FgYellow).Sprint("(not configured)")
	}
	row("Endpoint", endpoint)
	row("API key", maskKey(cfg.Endpoint.APIKey))
	row("Default priority", cfg.Watchlist.DefaultPriority)
	row("Page size", cfg.Query.PageSize)
	row("Refresh interval", cfg.Dashboard.RefreshInterval)
	row("Log file", cfg.Logging.File)
}

func setSetting(cmd *cobra.Command, args []string) {
	s := openStorage()
	key, val := strings.ToLower(args[0]), args[1]

	var err error
	switch key {
	case "default-mode", "mode":
		err = s.SetDefaultMode(val)
	case "webhook-url", "webhook":
		err = s.SetWebhookURL(val)
	default:
		er(fmt.Sprintf("unknown setting '%s' (use default-mode or webhook-url)", key))
	}
	if err != nil {
		er(fmt.Sprintf("Failed to update setting: %v", err))
	}
	fmt.Printf("Setting '%s' updated successfully\n", key)
}

// maskKey hides all but the last four characters of an API key
func maskKey(key string) string {
	if key == "" {
		return "-"
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
