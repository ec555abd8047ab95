package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// BaseURLFromEnv returns the server URL from INKLET_HTTP or a default.
func BaseURLFromEnv() string {
	if u := os.Getenv("INKLET_HTTP"); u != "" {
		return u
	}
	return "http://127.0.0.1:8080"
}

// tokenFromEnv returns the bearer token from INKLET_TOKEN, if set.
func tokenFromEnv() string { return os.Getenv("INKLET_TOKEN") }

func authorize(req *http.Request) {
	if tok := tokenFromEnv(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

// decodeOrFail decodes a JSON response body into v, surfacing the server's
// error message on non-2xx statuses.
func decodeOrFail(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
