package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-academy-client/academy"
	"github.com/jrsteele09/go-academy-client/users"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newTeamsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Work with teams",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			teams, err := c.app.Academy.Teams.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(teams))
			for _, t := range teams {
				rows = append(rows, []string{t.ID, t.Name, t.AgeGroup, strconv.Itoa(len(t.PlayerIDs))})
			}
			return c.printer.Table([]string{"id", "name", "age group", "players"}, rows)
		},
	})
	return cmd
}

func newPlayersCmd(c *cli) *cobra.Command {
	var (
		team, position, name, sortBy string
		desc                         bool
	)

	list := &cobra.Command{
		Use:   "list",
		Short: "List players, filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := academy.PlayerFilter{Name: name}
			if position != "" {
				p, err := academy.ParsePosition(position)
				if err != nil {
					return err
				}
				filter.Position = p
			}
			field, err := academy.ParseSortField(sortBy)
			if err != nil {
				return err
			}

			players, err := c.app.Academy.Players.List(cmd.Context(), team)
			if err != nil {
				return err
			}
			players = academy.FilterPlayers(players, filter)
			academy.SortPlayers(players, field, desc)

			rows := make([][]string, 0, len(players))
			for _, p := range players {
				jersey := ""
				if p.JerseyNumber > 0 {
					jersey = strconv.Itoa(p.JerseyNumber)
				}
				rows = append(rows, []string{p.ID, p.FullName(), string(p.Position), jersey, p.DateOfBirth.String(), p.TeamID})
			}
			return c.printer.Table([]string{"id", "name", "position", "jersey", "born", "team"}, rows)
		},
	}
	list.Flags().StringVar(&team, "team", "", "only players of this team")
	list.Flags().StringVar(&position, "position", "", "goalkeeper, defender, midfielder or forward")
	list.Flags().StringVar(&name, "name", "", "name contains")
	list.Flags().StringVar(&sortBy, "sort", "name", "sort by name, jersey or dob")
	list.Flags().BoolVar(&desc, "desc", false, "reverse the sort order")

	cmd := &cobra.Command{
		Use:   "players",
		Short: "Work with players",
	}
	cmd.AddCommand(list)
	return cmd
}

func newQRCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "qr TRAINING_ID",
		Short: "Show the check-in code of a training",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qr, err := c.app.Academy.Attendance.TrainingQRCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.printer.Print("training: %s", qr.TrainingID)
			c.printer.Print("code:     %s", qr.Code)
			if !qr.ExpiresAt.IsZero() {
				c.printer.Print("expires:  %s", qr.ExpiresAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}

func newCheckInCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin CODE",
		Short: "Check in to a training with a scanned code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Academy.Attendance.CheckIn(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if res.AlreadyCheckedIn {
				c.printer.Warning("Already checked in to training %s", res.TrainingID)
				return nil
			}
			c.printer.Success("Checked in to training %s as %s", res.TrainingID, res.Status)
			return nil
		},
	}
}

func newAttendanceCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "attendance TRAINING_ID",
		Short: "Show who attended a training",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := c.app.Academy.Attendance.TrainingAttendance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				at := ""
				if r.CheckedInAt != nil {
					at = r.CheckedInAt.Local().Format(time.TimeOnly)
				}
				rows = append(rows, []string{r.PlayerID, r.PlayerName, string(r.Status), at})
			}
			if err := c.printer.Table([]string{"player", "name", "status", "checked in"}, rows); err != nil {
				return err
			}
			sum := academy.Summary(records)
			c.printer.Print("present %d, late %d, absent %d",
				sum[academy.AttendancePresent], sum[academy.AttendanceLate], sum[academy.AttendanceAbsent])
			return nil
		},
	}
}

func newCalendarCmd(c *cli) *cobra.Command {
	var month, team string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the training calendar of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := time.Now()
			if month != "" {
				parsed, err := time.ParseInLocation("2006-01", month, time.Local)
				if err != nil {
					return errors.Wrapf(err, "--month must be YYYY-MM")
				}
				m = parsed
			}

			mc, err := c.app.Academy.Trainings.Calendar(cmd.Context(), m, team)
			if err != nil {
				return err
			}
			printCalendar(c.printer, mc)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM, default current month")
	cmd.Flags().StringVar(&team, "team", "", "only trainings of this team")
	return cmd
}

// printCalendar draws the month grid; days with trainings are marked with *
func printCalendar(p *printer, mc *academy.MonthCalendar) {
	p.Header(fmt.Sprintf("%s %d", mc.Month, mc.Year))
	p.Print("Mo  Tu  We  Th  Fr  Sa  Su")

	var listed []academy.Training
	for _, week := range mc.Weeks {
		cells := make([]string, 0, len(week))
		for _, day := range week {
			if !day.InMonth {
				cells = append(cells, "   ")
				continue
			}
			mark := " "
			if len(day.Trainings) > 0 {
				mark = "*"
				listed = append(listed, day.Trainings...)
			}
			cells = append(cells, fmt.Sprintf("%2d%s", day.Date.Day(), mark))
		}
		p.Print("%s", strings.TrimRight(strings.Join(cells, " "), " "))
	}

	for _, t := range listed {
		p.Print("%s  %s  %s", t.StartsAt.Local().Format("Mon 02 15:04"), t.Title, t.Location)
	}
}

func newInsightsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Show the AI insights dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := c.app.Academy.Insights.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			if in.Summary != "" {
				c.printer.Header(in.Summary)
			}
			rows := make([][]string, 0, len(in.Highlights))
			for _, h := range in.Highlights {
				rows = append(rows, []string{string(h.Severity), h.Title, h.Detail})
			}
			return c.printer.Table([]string{"severity", "insight", "detail"}, rows)
		},
	}
}

func newDashboardCmd(c *cli) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the dashboard of your role, or of --role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				d   *academy.Dashboard
				err error
			)
			if role != "" {
				r, perr := users.ParseRole(role)
				if perr != nil {
					return perr
				}
				d, err = c.app.Academy.Dashboards.ForRole(cmd.Context(), r)
			} else {
				u, uerr := c.app.Auth.CurrentUser(cmd.Context())
				if uerr != nil {
					return uerr
				}
				d, err = c.app.Academy.Dashboards.ForUser(cmd.Context(), u)
			}
			if err != nil {
				return err
			}

			c.printer.Header(fmt.Sprintf("%s dashboard", d.Role))
			for _, name := range slices.Sorted(maps.Keys(d.Widgets)) {
				c.printer.Print("%s: %s", name, string(d.Widgets[name]))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "admin, coach, parent or player")
	return cmd
}
