package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tuition/internal/domain/report"
)

// timeNow is a variable for testability.
var timeNow = time.Now

func newWeekCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the current attendance week and which weeks can still change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := timeNow()
			if date != "" {
				d, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				now = d
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: week %d\n", now.Format("2006-01-02"), report.CurrentWeek(now))
			for w := 1; w <= report.MaxWeeks; w++ {
				state := "closed"
				if report.WeekEditable(w, now) {
					state = "open"
				}
				fmt.Fprintf(out, "%s\t%s\n", report.WeekField(w), state)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date to evaluate (default today)")
	return cmd
}
