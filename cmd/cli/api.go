package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type envelope struct {
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		TotalPages int64 `json:"totalPages"`
	} `json:"pagination"`
}

// call sends an authenticated request to the API and decodes the response envelope.
func call(method, path string, query url.Values) (*envelope, error) {
	u := baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &env, nil
}

func reconciliationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconciliation",
		Short: "Reconciliation operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start <id>",
		Short: "Link the day's deals to a reconciliation and classify it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := call(http.MethodPost, "/api/v1/reconciliation/"+url.PathEscape(args[0])+"/start", nil)
			if err != nil {
				return err
			}
			var detail struct {
				ID       string `json:"id"`
				Status   string `json:"status"`
				Balances []struct {
					CurrencyID string          `json:"currency_id"`
					Expected   json.RawMessage `json:"expected"`
					Actual     json.RawMessage `json:"actual"`
					Difference json.RawMessage `json:"difference"`
				} `json:"balances"`
			}
			if err := json.Unmarshal(env.Data, &detail); err != nil {
				return fmt.Errorf("failed to parse reconciliation: %w", err)
			}

			fmt.Printf("Reconciliation %s: %s\n", detail.ID, detail.Status)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CURRENCY\tEXPECTED\tACTUAL\tDIFFERENCE")
			for _, b := range detail.Balances {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.CurrencyID, unquote(b.Expected), unquote(b.Actual), unquote(b.Difference))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "alerts",
		Short: "Show the alert feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := call(http.MethodGet, "/api/v1/reconciliation/alerts", nil)
			if err != nil {
				return err
			}
			var alerts []map[string]any
			if err := json.Unmarshal(env.Data, &alerts); err != nil {
				return fmt.Errorf("failed to parse alerts: %w", err)
			}
			printJSON(alerts)
			return nil
		},
	})

	return cmd
}

func dealsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deals",
		Short: "Deal operations",
	}

	var (
		status     string
		search     string
		dateFilter string
		page       int
		limit      int
	)

	list := &cobra.Command{
		Use:   "list",
		Short: "List deals",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("page", fmt.Sprint(page))
			q.Set("limit", fmt.Sprint(limit))
			if status != "" {
				q.Set("status", status)
			}
			if search != "" {
				q.Set("search", search)
			}
			if dateFilter != "" {
				q.Set("dateFilter", dateFilter)
			}

			env, err := call(http.MethodGet, "/api/v1/deals", q)
			if err != nil {
				return err
			}
			var data struct {
				Deals []struct {
					DealNumber string          `json:"deal_number"`
					DealType   string          `json:"deal_type"`
					Amount     json.RawMessage `json:"amount"`
					Status     string          `json:"status"`
					Customer   *struct {
						Name string `json:"name"`
					} `json:"customer"`
				} `json:"deals"`
			}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return fmt.Errorf("failed to parse deals: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NUMBER\tTYPE\tAMOUNT\tSTATUS\tCUSTOMER")
			for _, d := range data.Deals {
				customer := ""
				if d.Customer != nil {
					customer = truncate(d.Customer.Name, 24)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.DealNumber, d.DealType, unquote(d.Amount), d.Status, customer)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if env.Pagination != nil {
				fmt.Printf("page %d of %d (%d deals)\n", env.Pagination.Page, env.Pagination.TotalPages, env.Pagination.Total)
			}
			return nil
		},
	}

	list.Flags().StringVar(&status, "status", "", "Filter by status")
	list.Flags().StringVar(&search, "search", "", "Search by deal number")
	list.Flags().StringVar(&dateFilter, "date-filter", "", "today, yesterday, last7, last30, last90 or thisMonth")
	list.Flags().IntVar(&page, "page", 1, "Page number")
	list.Flags().IntVar(&limit, "limit", 20, "Page size")

	cmd.AddCommand(list)
	return cmd
}

// unquote renders a JSON decimal, which may be encoded as a string or a number.
func unquote(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
