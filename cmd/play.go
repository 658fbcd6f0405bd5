package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/lessonplayer/internal/app"
)

var playCmd = &cobra.Command{
	Use:   "play [exploration-id]",
	Short: "Play a lesson, or pick one from the content directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return runPlayer(cmd, id)
	},
}

// runPlayer opens the services and launches the TUI.
func runPlayer(cmd *cobra.Command, explorationID string) (err error) {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeApp(cmd, a); err == nil {
			err = cerr
		}
	}()

	return a.Run(cmd.Context(), app.Options{
		ProfileID:     profileID(cmd),
		ExplorationID: explorationID,
	})
}
