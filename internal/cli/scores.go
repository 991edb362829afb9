package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newScoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Manage your saved scores",
	}

	cmd.AddCommand(newScoresListCmd())
	cmd.AddCommand(newScoresSubmitCmd())
	cmd.AddCommand(newScoresRenameCmd())
	cmd.AddCommand(newScoresDeleteCmd())

	return cmd
}

func newScoresListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your scores, best first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result EntriesResult
			if err := client.Get("/highscores", &result); err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}
}

func newScoresSubmitCmd() *cobra.Command {
	var name string
	var timeMs int64

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Save a score by its remaining milliseconds",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := submitScore(name, timeMs)
			if err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (default Anonymous)")
	cmd.Flags().Int64Var(&timeMs, "time", 0, "Remaining milliseconds (required)")
	_ = cmd.MarkFlagRequired("time")

	return cmd
}

func newScoresRenameCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rename <id>",
		Short: "Rename one of your scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseScoreID(args[0])
			if err != nil {
				return err
			}

			req := map[string]any{"id": id, "yourName": name}
			var result MutationResult
			if err := client.Post("/rename", req, &result); err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newScoresDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseScoreID(args[0])
			if err != nil {
				return err
			}

			var result MutationResult
			if err := client.Post("/delete", map[string]any{"id": id}, &result); err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}
}

func submitScore(name string, timeMs int64) (MutationResult, error) {
	req := map[string]any{"yourName": name, "timeMs": timeMs}
	var result MutationResult
	err := client.Post("/submit", req, &result)
	return result, err
}

func parseScoreID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid score id %q", arg)
	}
	return id, nil
}
