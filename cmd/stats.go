package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show progress and learning time per lesson",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closeApp(cmd, a); err == nil {
				err = cerr
			}
		}()

		ctx := cmd.Context()
		profile := profileID(cmd)
		lessons, err := a.Loader.List(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-24s  %-32s  %-11s  %s\n", "ID", "Title", "Progress", "Learning time")
		fmt.Fprintln(out, strings.Repeat("─", 86))

		for _, l := range lessons {
			progress := "-"
			cp, err := a.Checkpoints.Retrieve(ctx, profile, l.ID)
			if err != nil {
				progress = "outdated"
			} else if !cp.IsEmpty() {
				progress = fmt.Sprintf("card %d", cp.StateIndex+1)
			}

			agg, err := a.LearningTime.RetrieveAggregateTopicLearningTime(ctx, profile, l.TopicID)
			if err != nil {
				return err
			}
			spent := (time.Duration(agg.TopicLearningTimeMs) * time.Millisecond).Round(time.Second)

			title := l.Title
			if len(title) > 32 {
				title = title[:29] + "..."
			}
			fmt.Fprintf(out, "%-24s  %-32s  %-11s  %s\n", l.ID, title, progress, spent)
		}

		fmt.Fprintf(out, "\n%d lessons\n", len(lessons))
		return nil
	},
}
