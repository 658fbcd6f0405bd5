package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonplayer/internal/exploration"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect saved lesson progress",
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show <exploration-id>",
	Short: "Print the saved checkpoint of a lesson as JSON",
	Args:  cobra.ExactArgs(1),
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

		cp, err := a.Checkpoints.Retrieve(cmd.Context(), profileID(cmd), args[0])
		if err != nil {
			return err
		}
		if cp.IsEmpty() {
			fmt.Fprintf(cmd.OutOrStdout(), "No saved progress for %s\n", args[0])
			return nil
		}
		b, err := json.MarshalIndent(cp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var checkpointDeleteCmd = &cobra.Command{
	Use:   "delete <exploration-id>",
	Short: "Discard the saved progress of a lesson",
	Args:  cobra.ExactArgs(1),
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

		if err := a.Checkpoints.Delete(cmd.Context(), profileID(cmd), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted saved progress for %s\n", args[0])
		return nil
	},
}

var checkpointOldestCmd = &cobra.Command{
	Use:   "oldest",
	Short: "Show the least recently played unfinished lesson",
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

		d, err := a.Checkpoints.RetrieveOldestCheckpointDetails(cmd.Context(), profileID(cmd))
		if errors.Is(err, exploration.ErrNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No unfinished lessons")
			return nil
		}
		if err != nil {
			return err
		}
		saved := time.UnixMilli(d.TimestampMs).Format(time.RFC3339)
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  (saved %s)\n", d.ExplorationID, d.ExplorationTitle, saved)
		return nil
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointShowCmd)
	checkpointCmd.AddCommand(checkpointDeleteCmd)
	checkpointCmd.AddCommand(checkpointOldestCmd)
}
