package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"matchmaking/internal/app"
	"matchmaking/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "matchctl",
	Short:         "Operate pitch-event schedules",
	Long:          "Admin CLI for the matchmaking service: schema migrations, roster import, rematch, conflict audit and auto-fix.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	log.SetFlags(log.Flags() | log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withContainer loads config from the environment and hands a connected
// container to fn.
func withContainer(fn func(c *app.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c, err := app.NewContainer(cfg, app.NewLogger())
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
