package client

import (
	"fmt"

	"github.com/rzbill/logbook/internal/logtype"
	"github.com/spf13/cobra"
)

// NewPlaceholderCommand constructs the `placeholder` command group and
// subcommands.
func NewPlaceholderCommand(baseURL BaseURLFunc) *cobra.Command {
	placeholderCmd := &cobra.Command{Use: "placeholder", Short: "Placeholder operations on a log type"}

	placeholderCmd.AddCommand(
		newPlaceholderAddCommand(baseURL),
		newPlaceholderUpdateCommand(baseURL),
		newPlaceholderRemoveCommand(baseURL),
		newPlaceholderMoveCommand(baseURL),
	)

	return placeholderCmd
}

// newPlaceholderAddCommand constructs the `placeholder add` subcommand.
func newPlaceholderAddCommand(baseURL BaseURLFunc) *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add TYPE_ID",
		Short: "Append a placeholder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			name, _ := cmd.Flags().GetString("name")
			p, err := getTransport(baseURL).AddPlaceholder(cmd.Context(), args[0], kind, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "added:", p.ID)
			return nil
		},
	}
	addCmd.Flags().String("kind", string(logtype.KindText), "Kind: text|text-input|select|number")
	addCmd.Flags().String("name", "", "Placeholder name")
	return addCmd
}

// newPlaceholderUpdateCommand constructs the `placeholder update` subcommand.
//
// Only flags that are set are sent. Changing --kind resets the placeholder
// to the defaults of the new kind before the other flags apply.
func newPlaceholderUpdateCommand(baseURL BaseURLFunc) *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update TYPE_ID PID",
		Short: "Update one placeholder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch logtype.PlaceholderPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				v, _ := flags.GetString("name")
				patch.Name = &v
			}
			if flags.Changed("kind") {
				v, _ := flags.GetString("kind")
				kind := logtype.Kind(v)
				patch.Kind = &kind
			}
			if flags.Changed("content") {
				v, _ := flags.GetString("content")
				patch.Content = &v
			}
			if flags.Changed("hint") {
				v, _ := flags.GetString("hint")
				patch.Hint = &v
			}
			if flags.Changed("option") {
				patch.Options, _ = flags.GetStringArray("option")
			}
			if flags.Changed("multiple") {
				v, _ := flags.GetBool("multiple")
				patch.Multiple = &v
			}
			p, err := getTransport(baseURL).UpdatePlaceholder(cmd.Context(), args[0], args[1], patch)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	updateCmd.Flags().String("name", "", "New name")
	updateCmd.Flags().String("kind", "", "New kind: text|text-input|select|number")
	updateCmd.Flags().String("content", "", "Literal text (text)")
	updateCmd.Flags().String("hint", "", "Input hint (text-input)")
	updateCmd.Flags().StringArray("option", []string{}, "Select option (repeat; replaces all options)")
	updateCmd.Flags().Bool("multiple", false, "Allow multiple selections (select)")
	return updateCmd
}

// newPlaceholderRemoveCommand constructs the `placeholder remove` subcommand.
func newPlaceholderRemoveCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "remove TYPE_ID PID",
		Short: "Remove one placeholder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := getTransport(baseURL).RemovePlaceholder(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed:", args[1])
			return nil
		},
	}
}

// newPlaceholderMoveCommand constructs the `placeholder move` subcommand.
func newPlaceholderMoveCommand(baseURL BaseURLFunc) *cobra.Command {
	moveCmd := &cobra.Command{
		Use:   "move TYPE_ID PID",
		Short: "Move one placeholder to a new position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, _ := cmd.Flags().GetInt("index")
			if err := getTransport(baseURL).MovePlaceholder(cmd.Context(), args[0], args[1], index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved: %s -> %d\n", args[1], index)
			return nil
		},
	}
	moveCmd.Flags().Int("index", 0, "Target position (clamped)")
	return moveCmd
}
