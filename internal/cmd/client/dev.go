package client

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDevCommand constructs the `dev` command group for development data.
func NewDevCommand(baseURL BaseURLFunc) *cobra.Command {
	devCmd := &cobra.Command{Use: "dev", Short: "Development data helpers"}

	devCmd.AddCommand(
		&cobra.Command{
			Use:   "seed",
			Short: "Write the sample log types",
			RunE: func(cmd *cobra.Command, _ []string) error {
				lts, err := getTransport(baseURL).Seed(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, lt := range lts {
					fmt.Fprintf(out, "%s %s\n", paint(out, lt.Color, lt.Name), dim(out, lt.ID))
				}
				return nil
			},
		},
		newDevGenerateCommand(baseURL),
		newDevClearCommand(baseURL),
		newDevResetCommand(baseURL),
	)

	return devCmd
}

// newDevGenerateCommand constructs the `dev generate` subcommand.
func newDevGenerateCommand(baseURL BaseURLFunc) *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Commit random logs against active log types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			count, _ := cmd.Flags().GetInt("count")
			days, _ := cmd.Flags().GetInt("days")
			n, err := getTransport(baseURL).Generate(cmd.Context(), count, days)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "generated:", n)
			return nil
		},
	}
	generateCmd.Flags().Int("count", 20, "Number of logs")
	generateCmd.Flags().Int("days", 14, "Spread creation times over the last N days")
	return generateCmd
}

// newDevClearCommand constructs the `dev clear` subcommand.
func newDevClearCommand(baseURL BaseURLFunc) *cobra.Command {
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every log and input history entry (requires --confirm)",
		Long:  "Delete every log and input history entry. With --all, log types and their revisions are deleted too.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			confirm, _ := cmd.Flags().GetBool("confirm")
			all, _ := cmd.Flags().GetBool("all")
			if !confirm {
				return errors.New("refusing to clear without --confirm")
			}
			if err := getTransport(baseURL).Clear(cmd.Context(), all); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared")
			return nil
		},
	}
	clearCmd.Flags().Bool("confirm", false, "Confirm deletion")
	clearCmd.Flags().Bool("all", false, "Also delete log types and revisions")
	return clearCmd
}

// newDevResetCommand constructs the `dev reset` subcommand.
func newDevResetCommand(baseURL BaseURLFunc) *cobra.Command {
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete everything and write the sample log types (requires --confirm)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if confirm, _ := cmd.Flags().GetBool("confirm"); !confirm {
				return errors.New("refusing to reset without --confirm")
			}
			lts, err := getTransport(baseURL).Reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset: %d log types\n", len(lts))
			return nil
		},
	}
	resetCmd.Flags().Bool("confirm", false, "Confirm deletion")
	return resetCmd
}
