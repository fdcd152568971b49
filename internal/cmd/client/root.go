package client

import (
	transports "github.com/rzbill/logbook/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

func getTransport(baseURL BaseURLFunc) transports.Transport {
	return transports.NewHTTPTransport(baseURL(), nil)
}

// NewRoot constructs a root Cobra command for the logbook client.
// It registers the logtype, placeholder, log and dev command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "logbook",
		Short: "Logbook client commands",
	}
	AddCommands(root, baseURL)
	return root
}

// AddCommands registers every client command group on root.
func AddCommands(root *cobra.Command, baseURL BaseURLFunc) {
	root.AddCommand(
		NewLogTypeCommand(baseURL),
		NewPlaceholderCommand(baseURL),
		NewLogCommand(baseURL),
		NewDevCommand(baseURL),
	)
}
