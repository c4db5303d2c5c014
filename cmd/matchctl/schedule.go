package main

import (
	"errors"
	"fmt"

	"matchmaking/internal/app"
	"matchmaking/internal/delivery/http/dto"
	"matchmaking/internal/usecase"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var scheduleArgs struct {
	events     []string
	all        bool
	maxPerStartup int
	members    []string
}

func parseEventIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid event id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func singleEvent() (uuid.UUID, error) {
	if len(scheduleArgs.events) != 1 {
		return uuid.Nil, errors.New("exactly one --event is required")
	}
	ids, err := parseEventIDs(scheduleArgs.events)
	if err != nil {
		return uuid.Nil, err
	}
	return ids[0], nil
}

var rematchCmd = &cobra.Command{
	Use:   "rematch",
	Short: "Rebuild schedules, keeping locked and completed meetings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if scheduleArgs.all == (len(scheduleArgs.events) > 0) {
			return errors.New("pass either --event or --all")
		}
		ids, err := parseEventIDs(scheduleArgs.events)
		if err != nil {
			return err
		}

		params := usecase.RematchParams{MemberNameFilter: scheduleArgs.members}
		if cmd.Flags().Changed("max-per-startup") {
			params.MaxMeetingsPerStartup = &scheduleArgs.maxPerStartup
		}

		return withContainer(func(c *app.Container) error {
			results, err := c.Schedule.RematchMany(cmd.Context(), ids, params)
			if err != nil {
				return err
			}
			if err := printJSON(cmd, dto.NewBatchRematchResponse(results)); err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d events failed", failed, len(results))
			}
			return nil
		})
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report per-slot conflicts of an event schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		eventID, err := singleEvent()
		if err != nil {
			return err
		}
		return withContainer(func(c *app.Container) error {
			view, err := c.Schedule.GetSchedule(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.NewConflictsResponse(view.Conflicts))
		})
	},
}

var autofixCmd = &cobra.Command{
	Use:   "autofix",
	Short: "Move conflicting meetings to later free slots",
	RunE: func(cmd *cobra.Command, _ []string) error {
		eventID, err := singleEvent()
		if err != nil {
			return err
		}
		return withContainer(func(c *app.Container) error {
			res, err := c.Schedule.AutoFix(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.NewEventFixResponse(res))
		})
	},
}

func init() {
	rematchFlags := rematchCmd.Flags()
	rematchFlags.StringSliceVar(&scheduleArgs.events, "event", nil, "event id (repeatable)")
	rematchFlags.BoolVar(&scheduleArgs.all, "all", false, "rematch every event")
	rematchFlags.IntVar(&scheduleArgs.maxPerStartup, "max-per-startup", 0, "meeting cap per startup for this run (0 = unlimited)")
	rematchFlags.StringSliceVar(&scheduleArgs.members, "member", nil, "only schedule targets run by these members")

	auditCmd.Flags().StringSliceVar(&scheduleArgs.events, "event", nil, "event id")
	autofixCmd.Flags().StringSliceVar(&scheduleArgs.events, "event", nil, "event id")

	rootCmd.AddCommand(rematchCmd, auditCmd, autofixCmd)
}
