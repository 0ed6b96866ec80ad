package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/michaelmarley-sas/okta-sdk-go/internal/oktahttp"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Operate on Okta user resources",
	}

	cmd.AddCommand(newUsersListCmd())

	return cmd
}

func newUsersListCmd() *cobra.Command {
	var (
		filter   string
		search   string
		limit    int
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users, following Link-header pagination",
		Long: `Issues GET /api/v1/users and walks the "next" Link header until exhausted
(or --max-pages is reached). Each page fetch is an independent call through
the same RetryExecutor every other command uses — pagination here is a
client-side convenience, not a change to the retry/transport core. Page
fetches are pipelined one ahead of result consumption via errgroup so the
next page's round trip overlaps with rendering the current one.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUsersList(cmd, filter, search, limit, maxPages)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", `Okta SCIM filter expression, e.g. status eq "ACTIVE"`)
	cmd.Flags().StringVar(&search, "search", "", "Okta search expression (profile.department eq \"ENG\")")
	cmd.Flags().IntVar(&limit, "limit", 50, "page size requested per call")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 = no limit)")

	return cmd
}

// userSummary is the subset of the Okta user resource the list view renders.
type userSummary struct {
	ID     string `json:"id"`
	Login  string `json:"login"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

func runUsersList(cmd *cobra.Command, filter, search string, limit, maxPages int) error {
	cc := mustCLIContext(cmd.Context())

	query := oktahttp.NewQueryString()
	if filter != "" {
		query.Set("filter", filter)
	}

	if search != "" {
		query.Set("search", search)
	}

	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}

	users, err := fetchAllUsers(cmd.Context(), cc.Executor, query, maxPages)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	return printUsers(cmd, cc, users)
}

// userPage is one page's worth of parsed results plus the next page's
// request coordinates, or an empty path when there is no further page.
type userPage struct {
	users    []userSummary
	nextPath string
	nextQry  *oktahttp.QueryString
}

// fetchAllUsers walks every page of /api/v1/users via the Link "next"
// relation. A producer goroutine issues each page's Execute call and hands
// the parsed result to a consumer over a channel; because the channel has
// no buffer beyond one in-flight send, the producer is already blocked on
// page N+1's round trip while the consumer accumulates page N — the two
// genuinely overlap rather than running request-then-process-then-request
// in lockstep. errgroup.WithContext ties both goroutines' lifetimes
// together and propagates the first error as cancellation.
func fetchAllUsers(ctx context.Context, exec oktahttp.Executor, query *oktahttp.QueryString, maxPages int) ([]userSummary, error) {
	pages := make(chan userPage)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(pages)

		path := "/api/v1/users"
		q := query

		for pageNum := 0; maxPages <= 0 || pageNum < maxPages; pageNum++ {
			req := oktahttp.NewRequest(http.MethodGet, path)
			if q != nil {
				req.Query = q
			}

			resp, err := exec.Execute(gctx, req)
			if err != nil {
				return err
			}

			page := userPage{users: parseUsers(resp.Body())}

			next := nextLinkURL(resp.Headers.Link())
			if next != "" {
				nextPath, nextQuery, err := splitPageURL(next)
				if err != nil {
					return fmt.Errorf("parsing next-page link: %w", err)
				}

				page.nextPath, page.nextQry = nextPath, nextQuery
			}

			select {
			case pages <- page:
			case <-gctx.Done():
				return gctx.Err()
			}

			if page.nextPath == "" {
				return nil
			}

			path, q = page.nextPath, page.nextQry
		}

		return nil
	})

	var all []userSummary

	g.Go(func() error {
		for page := range pages {
			all = append(all, page.users...)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return all, nil
}

// parseUsers extracts the display subset of each user object in a JSON
// array body via gjson field lookups rather than a full schema decode.
func parseUsers(body []byte) []userSummary {
	results := gjson.ParseBytes(body).Array()

	users := make([]userSummary, 0, len(results))
	for _, u := range results {
		users = append(users, userSummary{
			ID:     u.Get("id").String(),
			Login:  u.Get("profile.login").String(),
			Email:  u.Get("profile.email").String(),
			Status: u.Get("status").String(),
		})
	}

	return users
}

// nextLinkURL picks the rel="next" URL out of the concatenated Link header
// values, or "" when none is present (last page).
func nextLinkURL(links []string) string {
	for _, link := range links {
		for _, part := range strings.Split(link, ",") {
			if !strings.Contains(part, `rel="next"`) {
				continue
			}

			start := strings.Index(part, "<")
			end := strings.Index(part, ">")

			if start == -1 || end == -1 || end <= start {
				continue
			}

			return part[start+1 : end]
		}
	}

	return ""
}

// splitPageURL turns the Link header's absolute next-page URL into the
// path/query pair Request expects — TransportExecutor resolves paths
// against the profile's base URL itself.
func splitPageURL(rawURL string) (string, *oktahttp.QueryString, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, err
	}

	q := oktahttp.NewQueryString()
	for k, vals := range u.Query() {
		for _, v := range vals {
			q.Add(k, v)
		}
	}

	return u.Path, q, nil
}

func printUsers(cmd *cobra.Command, cc *CLIContext, users []userSummary) error {
	w := cmd.OutOrStdout()

	if cc.Flags.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(users)
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.Login, u.Status})
	}

	printTable(w, []string{"ID", "LOGIN", "STATUS"}, rows)
	cc.Statusf("%d user(s) against %s\n", len(users), hostOf(cc.Profile.BaseURL))

	return nil
}
