package client

import (
	"context"
	"fmt"
	"strings"

	transports "github.com/rzbill/logbook/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// NewLogCommand constructs the `log` command group and subcommands.
func NewLogCommand(baseURL BaseURLFunc) *cobra.Command {
	logCmd := &cobra.Command{Use: "log", Short: "Log operations"}

	logCmd.AddCommand(
		newLogAddCommand(baseURL),
		newLogListCommand(baseURL),
		newLogSectionsCommand(baseURL),
		newLogHistoryCommand(baseURL),
	)

	return logCmd
}

// resolveValues turns key=value pairs into values keyed by placeholder id.
// Keys may be placeholder ids or names; names are looked up on the log type.
func resolveValues(ctx context.Context, tr transports.Transport, typeID string, pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	lt, err := tr.GetLogType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	byName := map[string]string{}
	ids := map[string]bool{}
	for _, p := range lt.Placeholders {
		ids[p.ID] = true
		if _, dup := byName[p.Name]; !dup {
			byName[p.Name] = p.ID
		}
	}
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --value %q; use key=value", kv)
		}
		switch {
		case ids[key]:
			out[key] = value
		case byName[key] != "":
			out[byName[key]] = value
		default:
			return nil, fmt.Errorf("log type %s has no placeholder %q", typeID, key)
		}
	}
	return out, nil
}

// newLogAddCommand constructs the `log add` subcommand.
func newLogAddCommand(baseURL BaseURLFunc) *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add TYPE_ID",
		Short: "Commit a log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, _ := cmd.Flags().GetStringArray("value")
			at, _ := cmd.Flags().GetString("at")
			quick, _ := cmd.Flags().GetBool("quick")
			asJSON, _ := cmd.Flags().GetBool("json")

			tr := getTransport(baseURL)
			values, err := resolveValues(cmd.Context(), tr, args[0], pairs)
			if err != nil {
				return err
			}
			l, err := tr.Commit(cmd.Context(), transports.CommitRequest{
				LogTypeID: args[0],
				Values:    values,
				CreateAt:  at,
				Quick:     quick,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, l)
			}
			fmt.Fprintln(out, logLine(out, l))
			fmt.Fprintf(out, "id: %s  revision: %s\n", l.ID, l.RevisionID)
			return nil
		},
	}
	addCmd.Flags().StringArray("value", []string{}, "Placeholder value as id=value or name=value (repeat)")
	addCmd.Flags().String("at", "", "Creation time (RFC3339); defaults to now")
	addCmd.Flags().Bool("quick", false, "Commit the default log of a type without inputs")
	addCmd.Flags().Bool("json", false, "Print JSON")
	return addCmd
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("contain", "", "Case-insensitive content substring")
	cmd.Flags().StringArray("type", []string{}, "Log type id (repeat)")
	cmd.Flags().String("from", "", "Lower bound: date, RFC3339 or ms")
	cmd.Flags().String("to", "", "Upper bound: date (whole day), RFC3339 or ms")
	cmd.Flags().String("where", "", "CEL expression, e.g. 'fields[\"place\"] == \"home\"'")
	cmd.Flags().Int("limit", 0, "Max logs to return (0 = all)")
	cmd.Flags().Bool("json", false, "Print JSON")
}

func filterFromFlags(cmd *cobra.Command) transports.LogFilter {
	var f transports.LogFilter
	f.Contain, _ = cmd.Flags().GetString("contain")
	f.Types, _ = cmd.Flags().GetStringArray("type")
	f.From, _ = cmd.Flags().GetString("from")
	f.To, _ = cmd.Flags().GetString("to")
	f.Where, _ = cmd.Flags().GetString("where")
	f.Limit, _ = cmd.Flags().GetInt("limit")
	return f
}

// newLogListCommand constructs the `log list` subcommand.
func newLogListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List logs newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			logs, err := getTransport(baseURL).ListLogs(cmd.Context(), filterFromFlags(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, logs)
			}
			for _, l := range logs {
				fmt.Fprintln(out, logLine(out, l))
			}
			return nil
		},
	}
	addFilterFlags(listCmd)
	return listCmd
}

// newLogSectionsCommand constructs the `log sections` subcommand.
func newLogSectionsCommand(baseURL BaseURLFunc) *cobra.Command {
	sectionsCmd := &cobra.Command{
		Use:   "sections",
		Short: "List logs grouped by date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			sections, err := getTransport(baseURL).Sections(cmd.Context(), filterFromFlags(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, sections)
			}
			for i, s := range sections {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s (%d)\n", s.Date, len(s.Logs))
				for _, l := range s.Logs {
					fmt.Fprintln(out, "  "+logLine(out, l))
				}
			}
			return nil
		},
	}
	addFilterFlags(sectionsCmd)
	return sectionsCmd
}

// newLogHistoryCommand constructs the `log history` subcommand.
func newLogHistoryCommand(baseURL BaseURLFunc) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history PID",
		Short: "Show values previously entered for a placeholder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			values, err := getTransport(baseURL).History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
	historyCmd.Flags().Int("limit", 0, "Max values (0 = all)")
	return historyCmd
}
