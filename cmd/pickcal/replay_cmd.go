package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pickcal/internal/calendar"
	"pickcal/internal/picker"
	"pickcal/internal/selection"
)

func newReplayCmd(root *rootFlags) *cobra.Command {
	var (
		mode       string
		repetition bool
	)

	cmd := &cobra.Command{
		Use:   "replay STEP...",
		Short: "Apply taps to an empty selection and print each result",
		Long: `Replay feeds taps to a picker session in order and prints the selection
after each step. A step is a date (YYYY-MM-DD), "undo", "redo" or "reset".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}

			m := cfg.SelectionMode()
			if mode != "" {
				if m, err = selection.ParseMode(mode); err != nil {
					return err
				}
			}
			allowRepeat := cfg.AllowsRepetition
			if cmd.Flags().Changed("repetition") {
				allowRepeat = repetition
			}

			today := cfg.Calendar().DateOf(time.Now())
			allowed, err := cfg.AllowedRange(today)
			if err != nil {
				return err
			}

			sess := picker.NewSession(picker.Options{
				Mode:             m,
				Allowed:          allowed,
				AllowsRepetition: allowRepeat,
			})
			return replay(cmd.OutOrStdout(), sess, args)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Selection mode: single, range or multi (overrides config)")
	cmd.Flags().BoolVar(&repetition, "repetition", false, "Count repeated taps in multi mode (overrides config)")
	return cmd
}

// replay runs steps against sess, writing one line per step. It stops at
// the first step that is neither a date nor a history command.
func replay(w io.Writer, sess *picker.Session, steps []string) error {
	snap := sess.Snapshot()
	fmt.Fprintf(w, "mode=%s allowed=%s..%s repetition=%t\n",
		snap.Mode, snap.Allowed.Lower, snap.Allowed.Upper, snap.AllowsRepetition)

	for _, step := range steps {
		var (
			sel     selection.Selection
			changed bool
		)
		switch strings.ToLower(step) {
		case "undo":
			sel, changed = sess.Undo()
		case "redo":
			sel, changed = sess.Redo()
		case "reset":
			changed = !sess.Selection().IsEmpty()
			sess.Reset()
			sel = sess.Selection()
		default:
			d, err := calendar.ParseDate(step)
			if err != nil {
				return fmt.Errorf("step %q: want YYYY-MM-DD, undo, redo or reset", step)
			}
			sel, changed = sess.Tap(d)
		}

		note := ""
		if !changed {
			note = " (unchanged)"
		}
		fmt.Fprintf(w, "%-10s -> %s%s\n", step, formatSelection(sel), note)
	}
	return nil
}

func formatSelection(s selection.Selection) string {
	dates := s.Dates()
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = d.String()
	}
	return fmt.Sprintf("%s [%s]", s.Kind(), strings.Join(parts, " "))
}
