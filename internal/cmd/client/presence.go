package client

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

// NewPresenceCommand constructs the `presence` command group.
func NewPresenceCommand(baseURL BaseURLFunc) *cobra.Command {
	presenceCmd := &cobra.Command{Use: "presence", Short: "Presence room operations"}
	presenceCmd.AddCommand(
		newPresenceActionCommand(baseURL, "heartbeat", "Mark a viewer active in a post's room"),
		newPresenceActionCommand(baseURL, "leave", "Remove a viewer from a post's room"),
	)
	return presenceCmd
}

func newPresenceActionCommand(baseURL BaseURLFunc, action, short string) *cobra.Command {
	actionCmd := &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			room, _ := cmd.Flags().GetString("room")
			viewer, _ := cmd.Flags().GetString("viewer")
			body := bytes.NewBufferString(fmt.Sprintf(`{"viewer":%q}`, viewer))
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
				baseURL()+"/v1/presence/"+url.PathEscape(room)+"/"+action, body)
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			if err := decodeOrFail(resp, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	actionCmd.Flags().String("room", "", "Post ID naming the room")
	actionCmd.Flags().String("viewer", "", "Viewer name")
	return actionCmd
}
