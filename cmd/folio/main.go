package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/folio/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "folio",
		Short: "Crypto portfolio dashboard state runtime",
		Long: `Folio keeps a dashboard client's session, theme and navigation state.

Run the server for browsers, or drive a single local client from the
terminal. Local state lives in the storage backend named in folio.json
(a SQLite file by default), so a login survives between commands.

Examples:
  folio serve --port=3000
  folio login admin --password=password --remember
  folio whoami
  folio theme dark`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.driver, "driver", "", "Storage driver: memory, sqlite, s3 (default from folio.json)")
	rootCmd.PersistentFlags().StringVar(&flags.dsn, "dsn", "", "SQLite database path (default from folio.json)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		serveCmd(&flags),
		loginCmd(&flags),
		logoutCmd(&flags),
		whoamiCmd(&flags),
		resetPasswordCmd(&flags),
		themeCmd(&flags),
		versionCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
