package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/michaelmarley-sas/okta-sdk-go/internal/oktahttp"
)

func newRequestCmd() *cobra.Command {
	var (
		queryFlags  []string
		headerFlags []string
		bodyFile    string
	)

	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Issue a raw request through the retry/backoff-aware executor",
		Long: `Issues an arbitrary request against the active profile's org, routed through
the same RetryExecutor/TransportExecutor pipeline every other command uses.
This is a debugging aid, not a general REST client: it does no response
schema validation, only pretty-prints whatever comes back.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, args[0], args[1], queryFlags, headerFlags, bodyFile)
		},
	}

	cmd.Flags().StringArrayVarP(&queryFlags, "query", "Q", nil, "query parameter key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, "request header key=value (repeatable)")
	cmd.Flags().StringVarP(&bodyFile, "data", "d", "", "path to a file used as the request body, or \"-\" for stdin")

	return cmd
}

func runRequest(cmd *cobra.Command, method, path string, queryFlags, headerFlags []string, bodyFile string) error {
	cc := mustCLIContext(cmd.Context())

	req := oktahttp.NewRequest(strings.ToUpper(method), path)

	for _, kv := range queryFlags {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --query %q, expected key=value", kv)
		}

		req.Query.Add(k, v)
	}

	for _, kv := range headerFlags {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --header %q, expected key=value", kv)
		}

		req.Headers.Add(k, v)
	}

	if bodyFile != "" {
		body, err := readRequestBody(bodyFile)
		if err != nil {
			return err
		}

		req.Body = strings.NewReader(string(body))
	}

	resp, err := cc.Executor.Execute(cmd.Context(), req)
	if err != nil {
		return err
	}

	return printRequestResponse(cmd, cc, resp)
}

func readRequestBody(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}

	return os.ReadFile(path)
}

func printRequestResponse(cmd *cobra.Command, cc *CLIContext, resp *oktahttp.Response) error {
	w := cmd.OutOrStdout()

	if cc.Flags.JSON {
		out := struct {
			Status    int      `json:"status"`
			RequestID string   `json:"request_id,omitempty"`
			Link      []string `json:"link,omitempty"`
			Body      string   `json:"body"`
		}{
			Status:    resp.Status,
			RequestID: resp.RequestID(),
			Link:      resp.Headers.Link(),
			Body:      string(resp.Body()),
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	fmt.Fprintf(w, "HTTP %d\n", resp.Status)

	if id := resp.RequestID(); id != "" {
		fmt.Fprintf(w, "request-id: %s\n", id)
	}

	for _, link := range resp.Headers.Link() {
		fmt.Fprintf(w, "link: %s\n", link)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, string(resp.Body()))

	return nil
}
