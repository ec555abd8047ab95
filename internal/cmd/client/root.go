package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs the root command group for the inklet client.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "client",
		Short: "Client commands against a running inklet server",
	}
	root.AddCommand(NewPostCommand(baseURL))
	root.AddCommand(NewSubscribeCommand(baseURL))
	root.AddCommand(NewPresenceCommand(baseURL))
	return root
}
