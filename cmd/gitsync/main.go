package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bashhack/gitsync/internal/config"
	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK          = 0
	exitFatal       = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg := config.New()
	cfg.VersionInfo = config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	rootCmd := &cobra.Command{
		Use:   "gitsync [flags]",
		Short: "Push the current branch to every remote, one commit at a time",
		Long: `gitsync synchronizes the current branch of a repository to all of its
configured remotes. For each remote it computes the commits the remote is
missing and pushes them one by one, oldest first, so every intermediate
commit reaches the remote and triggers its hooks and CI.

A remote that cannot be reached or rejects a push is reported and skipped;
the others are still synchronized.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return gitsyncErrors.Wrapf(gitsyncErrors.ErrInvalidFlag, "unexpected argument %q", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Load(cmd.Flags()); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()

			app := NewApp(AppOptions{
				Config: cfg,
				Stdout: stdout,
				Stderr: stderr,
			})
			defer func() {
				if err := app.Close(); err != nil {
					_, _ = fmt.Fprintf(stderr, "❌ Error during cleanup: %v\n", err)
				}
			}()

			return app.Run(ctx)
		},
	}

	cfg.SetupFlags(rootCmd.Flags())
	rootCmd.SetVersionTemplate(fmt.Sprintf("gitsync {{.Version}} (%s) built on %s\n", commit, date))
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return gitsyncErrors.Wrap(gitsyncErrors.ErrInvalidFlag, err.Error())
	})

	rootCmd.SetArgs(args[1:])
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	code := exitCode(err)
	switch code {
	case exitUsage:
		_, _ = fmt.Fprintf(stderr, "❌ Error: %v\n\n%s", err, rootCmd.UsageString())
	case exitInterrupted:
		_, _ = fmt.Fprintln(stderr, "Interrupted, gitsync stopped")
	case exitFatal:
		_, _ = fmt.Fprintf(stderr, "❌ Error: %v\n", err)
	}
	return code
}

// exitCode maps the error returned by the root command to a process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case gitsyncErrors.Is(err, gitsyncErrors.ErrInvalidFlag):
		return exitUsage
	case gitsyncErrors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitFatal
	}
}
