package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/drillz/internal/identity"
	"github.com/abhisek/drillz/internal/workout"
)

var workoutCmd = &cobra.Command{
	Use:   "workout",
	Short: "Work through a topic's questions",
	Long:  "Each command opens the acting user's workout for a topic, applies one step, and saves the result before exiting.",
}

var workoutShowCmd = &cobra.Command{
	Use:   "show <topic>",
	Short: "Show the workout and its current question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkout(cmd, args[0], func(h *workout.Handle) error { return nil })
	},
}

var workoutStartCmd = &cobra.Command{
	Use:   "start <topic>",
	Short: "Start the workout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkout(cmd, args[0], func(h *workout.Handle) error { return h.Start() })
	},
}

var workoutSelectCmd = &cobra.Command{
	Use:   "select <topic> <answer>",
	Short: "Select an answer for the current question",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkout(cmd, args[0], func(h *workout.Handle) error { return h.SelectAnswer(args[1]) })
	},
}

var workoutConfirmCmd = &cobra.Command{
	Use:   "confirm <topic>",
	Short: "Confirm the selected answer and advance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkout(cmd, args[0], func(h *workout.Handle) error {
			return confirm(cmd, h)
		})
	},
}

var workoutAnswerCmd = &cobra.Command{
	Use:   "answer <topic> <answer>",
	Short: "Select and confirm an answer in one step",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkout(cmd, args[0], func(h *workout.Handle) error {
			if err := h.SelectAnswer(args[1]); err != nil {
				return err
			}
			return confirm(cmd, h)
		})
	},
}

var workoutFinishCmd = &cobra.Command{
	Use:   "finish <topic>",
	Short: "Finish the workout now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkout(cmd, args[0], func(h *workout.Handle) error { return h.Finish() })
	},
}

var workoutRestartCmd = &cobra.Command{
	Use:   "restart <topic>",
	Short: "Discard progress and reshuffle the questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkout(cmd, args[0], func(h *workout.Handle) error { return h.Restart() })
	},
}

var workoutHistoryCmd = &cobra.Command{
	Use:   "history <topic>",
	Short: "List finished attempts, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		sinceFlag, _ := cmd.Flags().GetString("since")
		since, err := parseSince(sinceFlag, time.Now())
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		svc := a.Service(identity.Static(a.Config.User))
		records, err := svc.History(cmd.Context(), args[0], workout.HistoryFilter{Limit: limit, From: since})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON(cmd) {
			if records == nil {
				records = []workout.HistoryRecord{}
			}
			return writeJSON(out, records)
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "No finished attempts.")
			return nil
		}
		fmt.Fprintf(out, "%-19s  %-7s  %-5s  %-6s  %-7s  %s\n",
			"Finished", "Correct", "Ratio", "Time", "Early", "Attempt")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, r := range records {
			early := ""
			if r.FinishedEarly {
				early = "yes"
			}
			fmt.Fprintf(out, "%-19s  %-7s  %-5s  %-6s  %-7s  %s\n",
				r.FinishedAt.Local().Format("2006-01-02 15:04:05"),
				fmt.Sprintf("%d/%d", r.CorrectAnswers, r.TotalQuestions),
				fmt.Sprintf("%d%%", r.Ratio),
				fmt.Sprintf("%ds", r.TimeSeconds),
				early,
				r.AttemptID,
			)
		}
		return nil
	},
}

func init() {
	workoutCmd.PersistentFlags().Bool("json", false, "Print JSON instead of text")
	workoutHistoryCmd.Flags().Int("limit", 10, "Maximum records to show (0 for all)")
	workoutHistoryCmd.Flags().String("since", "", "Only attempts finished since a duration ago (e.g. 72h) or an RFC 3339 time")

	workoutCmd.AddCommand(
		workoutShowCmd,
		workoutStartCmd,
		workoutSelectCmd,
		workoutConfirmCmd,
		workoutAnswerCmd,
		workoutFinishCmd,
		workoutRestartCmd,
		workoutHistoryCmd,
	)
}

// withWorkout opens the acting user's workout for topicID, runs fn, saves,
// and prints the resulting state. A failed save is reported in the output
// without failing the command.
func withWorkout(cmd *cobra.Command, topicID string, fn func(h *workout.Handle) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := cmd.Context()
	h, err := a.Service(identity.Static(a.Config.User)).Open(ctx, topicID)
	if err != nil {
		return err
	}

	cmdErr := fn(h)
	v := h.View()
	if err := h.Close(ctx); err != nil {
		a.Logger.Warn("workout not saved", zap.Error(err))
		v.Unsaved = true
	}
	if cmdErr != nil {
		return cmdErr
	}

	if asJSON(cmd) {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	printView(cmd.OutOrStdout(), v)
	return nil
}

func confirm(cmd *cobra.Command, h *workout.Handle) error {
	correct, err := h.ConfirmAnswer()
	if err != nil {
		return err
	}
	if asJSON(cmd) {
		return nil
	}
	if correct {
		fmt.Fprintln(cmd.OutOrStdout(), "Correct!")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Incorrect.")
	}
	return nil
}

// parseSince accepts a duration back from now or an RFC 3339 timestamp.
// An empty value means no lower bound.
func parseSince(v string, now time.Time) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("--since %q: duration must not be negative", v)
		}
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--since %q: want a duration like 72h or an RFC 3339 time", v)
	}
	return t, nil
}

func asJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printView(w io.Writer, v workout.View) {
	title := v.TopicTitle
	if title == "" {
		title = v.TopicID
	}
	fmt.Fprintf(w, "%s (%s)\n", title, v.TopicID)

	if v.Unsaved {
		fmt.Fprintln(w, "Warning: progress could not be saved.")
	}
	if !v.Available {
		fmt.Fprintln(w, "No questions are available for this topic yet.")
		return
	}
	if len(v.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped removed questions: %s\n", strings.Join(v.Skipped, ", "))
	}

	switch v.Phase {
	case workout.PhaseNotStarted:
		fmt.Fprintf(w, "%d questions. Run `drillz workout start %s` to begin.\n", v.QuestionsCount, v.TopicID)
		return
	case workout.PhaseCompleted:
		status := "Finished"
		if v.FinishedEarly {
			status = "Finished early"
		}
		fmt.Fprintf(w, "%s: %d/%d correct (%d%%) in %ds.\n",
			status, v.CorrectAnswers, v.StepIndex, v.CurrentRatio, v.CurrentTime)
		fmt.Fprintf(w, "Run `drillz workout restart %s` to try again.\n", v.TopicID)
		return
	}

	fmt.Fprintf(w, "Question %d of %d  ·  %d correct  ·  %d%%  ·  %ds\n",
		v.StepIndex+1, v.QuestionsCount, v.CorrectAnswers, v.CurrentRatio, v.CurrentTime)
	q := v.CurrentQuestion
	if q == nil {
		return
	}
	fmt.Fprintf(w, "\n%s\n", q.Text)
	for _, a := range q.Answers {
		marker := " "
		if a.ID == v.SelectedAnswerID {
			marker = "*"
		}
		fmt.Fprintf(w, " %s [%s] %s\n", marker, a.ID, a.Text)
	}
}
