package client

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewPostCommand constructs the `post` command group and subcommands.
func NewPostCommand(baseURL BaseURLFunc) *cobra.Command {
	postCmd := &cobra.Command{Use: "post", Short: "Post operations"}
	postCmd.AddCommand(
		newPostPublishCommand(baseURL),
		newPostListCommand(baseURL),
		newPostGetCommand(baseURL),
		newPostCommentCommand(baseURL),
		newPostSearchCommand(baseURL),
	)
	return postCmd
}

func newPostPublishCommand(baseURL BaseURLFunc) *cobra.Command {
	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a post (requires INKLET_TOKEN)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			title, _ := cmd.Flags().GetString("title")
			body, _ := cmd.Flags().GetString("body")
			imagePath, _ := cmd.Flags().GetString("image")

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			_ = mw.WriteField("title", title)
			_ = mw.WriteField("body", body)
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return err
				}
				ct := mime.TypeByExtension(filepath.Ext(imagePath))
				if ct == "" {
					ct = "application/octet-stream"
				}
				hdr := textproto.MIMEHeader{}
				hdr.Set("Content-Disposition",
					fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(imagePath)))
				hdr.Set("Content-Type", ct)
				part, err := mw.CreatePart(hdr)
				if err != nil {
					return err
				}
				if _, err := part.Write(data); err != nil {
					return err
				}
			}
			if err := mw.Close(); err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, baseURL()+"/v1/posts", &buf)
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", mw.FormDataContentType())
			authorize(req)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			var post map[string]any
			if err := decodeOrFail(resp, &post); err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), post)
			return nil
		},
	}
	publishCmd.Flags().String("title", "", "Post title")
	publishCmd.Flags().String("body", "", "Post body")
	publishCmd.Flags().String("image", "", "Path to an image file (optional)")
	return publishCmd
}

func newPostListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, baseURL()+"/v1/posts", nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			var posts []map[string]any
			if err := decodeOrFail(resp, &posts); err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), posts)
			return nil
		},
	}
}

func newPostGetCommand(baseURL BaseURLFunc) *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Get one post by ID",
		RunE: func(cmd *cobra.Command, _ []string) error {
			postID, _ := cmd.Flags().GetString("id")
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet,
				baseURL()+"/v1/posts/"+url.PathEscape(postID), nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			var post map[string]any
			if err := decodeOrFail(resp, &post); err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), post)
			return nil
		},
	}
	getCmd.Flags().String("id", "", "Post ID")
	return getCmd
}

func newPostCommentCommand(baseURL BaseURLFunc) *cobra.Command {
	commentCmd := &cobra.Command{
		Use:   "comment",
		Short: "Add a comment to a post (requires INKLET_TOKEN)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			postID, _ := cmd.Flags().GetString("id")
			text, _ := cmd.Flags().GetString("text")
			body := bytes.NewBufferString(fmt.Sprintf(`{"text":%q}`, text))
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
				baseURL()+"/v1/posts/"+url.PathEscape(postID)+"/comments", body)
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			authorize(req)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			var comment map[string]any
			if err := decodeOrFail(resp, &comment); err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), comment)
			return nil
		},
	}
	commentCmd.Flags().String("id", "", "Post ID")
	commentCmd.Flags().String("text", "", "Comment text")
	return commentCmd
}

func newPostSearchCommand(baseURL BaseURLFunc) *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search posts by title and body",
		RunE: func(cmd *cobra.Command, _ []string) error {
			term, _ := cmd.Flags().GetString("q")
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet,
				baseURL()+"/v1/posts/search?q="+url.QueryEscape(term), nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			var results []map[string]any
			if err := decodeOrFail(resp, &results); err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), results)
			return nil
		},
	}
	searchCmd.Flags().String("q", "", "Search term")
	return searchCmd
}
