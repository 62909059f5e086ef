package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"energy_simulator/internal/solar"
)

func newSunCommand(a *app) *cobra.Command {
	var (
		date string
		days int
	)

	cmd := &cobra.Command{
		Use:   "sun",
		Short: "Print sunrise and sunset for the configured location",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.cfg.Location.TimeLocation()
			if err != nil {
				return err
			}

			start := time.Now().In(loc)
			if date != "" {
				if start, err = time.ParseInLocation(time.DateOnly, date, loc); err != nil {
					return fmt.Errorf("date: %w", err)
				}
			}

			return printSun(cmd.OutOrStdout(), a.cfg.Location.Latitude, a.cfg.Location.Longitude, start, days)
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "first date (YYYY-MM-DD), default today")
	cmd.Flags().IntVarP(&days, "days", "n", 1, "number of days")

	return cmd
}

func printSun(w io.Writer, latitude, longitude float64, start time.Time, days int) error {
	for i := range max(days, 1) {
		day := start.AddDate(0, 0, i)
		rise, set, err := solar.SunriseSunset(latitude, longitude, day)

		switch {
		case errors.Is(err, solar.ErrPolarDay):
			fmt.Fprintf(w, "%s  polar day\n", day.Format(time.DateOnly))
		case errors.Is(err, solar.ErrPolarNight):
			fmt.Fprintf(w, "%s  polar night\n", day.Format(time.DateOnly))
		case err != nil:
			return err
		default:
			fmt.Fprintf(w, "%s  sunrise %s  sunset %s  daylight %s\n",
				day.Format(time.DateOnly), rise.Format("15:04"), set.Format("15:04"), set.Sub(rise))
		}
	}
	return nil
}
