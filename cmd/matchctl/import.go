package main

import (
	"fmt"
	"io"
	"os"

	"matchmaking/internal/app"
	"matchmaking/internal/delivery/http/dto"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var importArgs struct {
	event string
	file  string
}

func parseRoster(r io.Reader) (dto.RosterRequest, error) {
	var req dto.RosterRequest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		return dto.RosterRequest{}, fmt.Errorf("roster: %w", err)
	}
	return req, nil
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load an event roster (startups, targets, slots) from YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		eventID, err := parseEventIDs([]string{importArgs.event})
		if err != nil {
			return err
		}
		f, err := os.Open(importArgs.file)
		if err != nil {
			return err
		}
		defer f.Close()

		req, err := parseRoster(f)
		if err != nil {
			return err
		}

		return withContainer(func(c *app.Container) error {
			if err := c.Schedule.SaveRoster(cmd.Context(), eventID[0], req.ToDomain()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d startups, %d targets, %d slots into %s\n",
				len(req.Startups), len(req.Targets), len(req.Slots), eventID[0])
			return nil
		})
	},
}

func init() {
	flags := importCmd.Flags()
	flags.StringVar(&importArgs.event, "event", "", "event id")
	flags.StringVar(&importArgs.file, "file", "", "roster YAML file")
	_ = importCmd.MarkFlagRequired("event")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(importCmd)
}
