package main

import (
	"fmt"

	"matchmaking/internal/app"
	"matchmaking/internal/database/seeder"
	"matchmaking/internal/usecase"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo event roster",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(func(c *app.Container) error {
			r := seeder.Runner{Seeders: seeder.Defaults(), Logger: c.Logger}
			if err := r.Run(cmd.Context(), c.DB); err != nil {
				return err
			}
			if err := c.Redis.Delete(cmd.Context(), usecase.ScheduleCacheKey(seeder.DemoEventID)); err != nil {
				c.Logger.Printf("[Seeder] cache invalidate failed err=%v", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "demo event %s ready, run: matchctl rematch --event %s\n", seeder.DemoEventID, seeder.DemoEventID)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
