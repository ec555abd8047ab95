package client

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewSubscribeCommand constructs the `subscribe` command: an SSE tail of
// one query key's snapshot and delta stream.
func NewSubscribeCommand(baseURL BaseURLFunc) *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Stream live updates for a query key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			after, _ := cmd.Flags().GetUint64("after")
			filter, _ := cmd.Flags().GetString("filter")
			if key == "" {
				return fmt.Errorf("--key is required")
			}

			q := url.Values{}
			q.Set("key", key)
			if filter != "" {
				q.Set("filter", filter)
			}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet,
				baseURL()+"/v1/subscribe?"+q.Encode(), nil)
			if err != nil {
				return err
			}
			if after > 0 {
				req.Header.Set("Last-Event-ID", strconv.FormatUint(after, 10))
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			}

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(resp.Body)
			scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
			var id, event string
			for scanner.Scan() {
				line := scanner.Text()
				switch {
				case strings.HasPrefix(line, "id: "):
					id = line[len("id: "):]
				case strings.HasPrefix(line, "event: "):
					event = line[len("event: "):]
				case strings.HasPrefix(line, "data: "):
					fmt.Fprintf(out, "%s\t%s\t%s\n", id, event, line[len("data: "):])
				}
			}
			return scanner.Err()
		},
	}
	subCmd.Flags().String("key", "", "Query key, e.g. posts or comments/<post-id>")
	subCmd.Flags().Uint64("after", 0, "Resume strictly after this version (skips the snapshot)")
	subCmd.Flags().String("filter", "", "CEL filter (server-side)")
	return subCmd
}
