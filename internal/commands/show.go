package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/klabast/wb-services/lineup-planner/internal/app"
)

const columnGap = 2

func newShowCommand(opts *rootOptions) *cobra.Command {
	var (
		marksPath string
		undo      int
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the compiled schedule for a marks file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}

			p, err := loadPlanner(env.catalog, marksPath, undo)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			schedule := p.Schedule()
			if schedule.Empty() {
				fmt.Fprintln(out, app.MsgNoSelections)
				return nil
			}
			return writeScheduleTable(out, schedule, terminalWidth(out))
		},
	}
	cmd.Flags().StringVar(&marksPath, "marks", "", "YAML file with the marks to replay")
	cmd.Flags().IntVar(&undo, "undo", 0, "Number of trailing marks to undo first")
	_ = cmd.MarkFlagRequired("marks")
	return cmd
}

// terminalWidth is the width of w if it is a terminal, 0 otherwise
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// writeScheduleTable prints one aligned row per entry. With width > 0 the
// attendee column is cut so rows fit.
func writeScheduleTable(w io.Writer, schedule app.CompiledSchedule, width int) error {
	rows := [][]string{{"Day", "Time", "Band", "Stage", "Attendees"}}
	for _, day := range schedule.Days {
		for _, e := range day.Entries {
			rows = append(rows, []string{
				day.Day,
				app.DisplayOrTBD(e.Time),
				e.Band,
				app.DisplayOrTBD(e.Stage),
				strings.Join(e.Attendees, ", "),
			})
		}
	}

	if width > 0 {
		fixed := 0
		for col := 0; col < 4; col++ {
			widest := 0
			for _, row := range rows {
				widest = max(widest, utf8.RuneCountInString(row[col]))
			}
			fixed += widest + columnGap
		}
		room := max(width-fixed, utf8.RuneCountInString(rows[0][4]))
		for _, row := range rows[1:] {
			row[4] = truncate(row[4], room)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, columnGap, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
