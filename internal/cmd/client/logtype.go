package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	transports "github.com/rzbill/logbook/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// NewLogTypeCommand constructs the `logtype` command group and subcommands.
func NewLogTypeCommand(baseURL BaseURLFunc) *cobra.Command {
	logTypeCmd := &cobra.Command{Use: "logtype", Short: "Log type operations", Aliases: []string{"type"}}

	logTypeCmd.AddCommand(
		newLogTypeCreateCommand(baseURL),
		newLogTypeListCommand(baseURL),
		newLogTypeShowCommand(baseURL),
		newLogTypeEditCommand(baseURL),
		newLogTypeArchiveCommand(baseURL, true),
		newLogTypeArchiveCommand(baseURL, false),
		newLogTypeRevisionsCommand(baseURL),
		newLogTypeDiffCommand(baseURL),
	)

	return logTypeCmd
}

// printLogType writes a log type with its placeholders.
func printLogType(cmd *cobra.Command, lt transports.LogType) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s  %s\n", paint(out, lt.Color, "●"), paint(out, lt.Color, lt.Name), dim(out, lt.ID))
	fmt.Fprintf(out, "revision: %d  updated: %s\n", lt.Revision, localTime(lt.UpdateAt))
	if lt.ArchiveAt != "" {
		fmt.Fprintf(out, "archived: %s\n", localTime(lt.ArchiveAt))
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, p := range lt.Placeholders {
		detail := p.Content
		switch {
		case len(p.Options) > 0:
			detail = strings.Join(p.Options, " | ")
		case p.Hint != "":
			detail = p.Hint
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n", i, p.ID, p.Kind, p.Name, detail)
	}
	_ = tw.Flush()
}

// newLogTypeCreateCommand constructs the `logtype create` subcommand.
func newLogTypeCreateCommand(baseURL BaseURLFunc) *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a log type with the default placeholders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			asJSON, _ := cmd.Flags().GetBool("json")
			lt, err := getTransport(baseURL).CreateLogType(cmd.Context(), name)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), lt)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created:", lt.ID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Log type name")
	createCmd.Flags().Bool("json", false, "Print JSON")
	return createCmd
}

// newLogTypeListCommand constructs the `logtype list` subcommand.
func newLogTypeListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List log types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			archived, _ := cmd.Flags().GetBool("archived")
			asJSON, _ := cmd.Flags().GetBool("json")
			lts, err := getTransport(baseURL).ListLogTypes(cmd.Context(), archived)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, lts)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tREVISION\tPLACEHOLDERS\tSTATE")
			for _, lt := range lts {
				state := "active"
				if lt.ArchiveAt != "" {
					state = "archived"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", lt.ID, paint(out, lt.Color, lt.Name), lt.Revision, len(lt.Placeholders), state)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().Bool("archived", false, "Include archived log types")
	listCmd.Flags().Bool("json", false, "Print JSON")
	return listCmd
}

// newLogTypeShowCommand constructs the `logtype show` subcommand.
func newLogTypeShowCommand(baseURL BaseURLFunc) *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a log type or revision snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			lt, err := getTransport(baseURL).GetLogType(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), lt)
			}
			printLogType(cmd, lt)
			return nil
		},
	}
	showCmd.Flags().Bool("json", false, "Print JSON")
	return showCmd
}

// newLogTypeEditCommand constructs the `logtype edit` subcommand.
//
// Field flags are folded into one JSON merge patch; --patch supplies a raw
// patch and wins over field flags for the keys it sets.
func newLogTypeEditCommand(baseURL BaseURLFunc) *cobra.Command {
	editCmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit the name, color, icon or placeholders of a log type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("patch")
			patch := map[string]any{}
			for _, field := range []string{"name", "color", "icon"} {
				if cmd.Flags().Changed(field) {
					v, _ := cmd.Flags().GetString(field)
					patch[field] = v
				}
			}
			if raw != "" {
				var extra map[string]any
				if err := json.Unmarshal([]byte(raw), &extra); err != nil {
					return fmt.Errorf("invalid --patch: %w", err)
				}
				for k, v := range extra {
					patch[k] = v
				}
			}
			if len(patch) == 0 {
				return fmt.Errorf("nothing to change; use --name, --color, --icon or --patch")
			}
			body, err := json.Marshal(patch)
			if err != nil {
				return err
			}
			lt, err := getTransport(baseURL).PatchLogType(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			printLogType(cmd, lt)
			return nil
		},
	}
	editCmd.Flags().String("name", "", "New name")
	editCmd.Flags().String("color", "", "New color")
	editCmd.Flags().String("icon", "", "New icon")
	editCmd.Flags().String("patch", "", "JSON merge patch, e.g. '{\"placeholders\":[...]}'")
	return editCmd
}

// newLogTypeArchiveCommand constructs the `logtype archive` and
// `logtype unarchive` subcommands.
func newLogTypeArchiveCommand(baseURL BaseURLFunc, archive bool) *cobra.Command {
	use, short := "unarchive ID", "Show an archived log type in pickers again"
	if archive {
		use, short = "archive ID", "Hide a log type from pickers"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, err := getTransport(baseURL).SetArchived(cmd.Context(), args[0], archive)
			if err != nil {
				return err
			}
			state := "active"
			if lt.ArchiveAt != "" {
				state = "archived"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", lt.ID, state)
			return nil
		},
	}
}

// newLogTypeRevisionsCommand constructs the `logtype revisions` subcommand.
func newLogTypeRevisionsCommand(baseURL BaseURLFunc) *cobra.Command {
	revisionsCmd := &cobra.Command{
		Use:   "revisions ID",
		Short: "List revision snapshots, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			revs, err := getTransport(baseURL).Revisions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, revs)
			}
			fmt.Fprintf(out, "%s at revision %d\n", revs.ID, revs.Revision)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, r := range revs.Revisions {
				fmt.Fprintf(tw, "%s\t%s\t%d placeholders\n", r.ID, localTime(r.UpdateAt), len(r.Placeholders))
			}
			return tw.Flush()
		},
	}
	revisionsCmd.Flags().Bool("json", false, "Print JSON")
	return revisionsCmd
}

// newLogTypeDiffCommand constructs the `logtype diff` subcommand.
func newLogTypeDiffCommand(baseURL BaseURLFunc) *cobra.Command {
	diffCmd := &cobra.Command{
		Use:   "diff ID",
		Short: "Compare placeholders between two revisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			asJSON, _ := cmd.Flags().GetBool("json")
			d, err := getTransport(baseURL).Diff(cmd.Context(), args[0], from, to)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, d)
			}
			fmt.Fprintf(out, "%s -> %s\n", d.From, d.To)
			signs := map[string]string{"kept": " ", "changed": "~", "added": "+", "removed": "-", "moved": ">"}
			for _, c := range d.Changes {
				name := c.ID
				if c.To != nil {
					name = c.To.Name
				} else if c.From != nil {
					name = c.From.Name
				}
				fmt.Fprintf(out, "%s %s  %s\n", signs[string(c.Type)], name, dim(out, c.ID))
			}
			return nil
		},
	}
	diffCmd.Flags().String("from", "", "Revision id to compare from (default newest snapshot)")
	diffCmd.Flags().String("to", "", "Revision id to compare to (default current)")
	diffCmd.Flags().Bool("json", false, "Print JSON")
	return diffCmd
}
