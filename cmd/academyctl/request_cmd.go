package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-academy-client/apiclient"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRequestCmd(c *cli) *cobra.Command {
	var (
		data      string
		query     []string
		headers   []string
		anonymous bool
	)

	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send a raw request through the session",
		Long: `Send any request to the API with the stored session attached. A 401 triggers
the usual refresh and replay. The response body is printed as indented JSON.`,
		Example: `  academyctl request GET /teams
  academyctl request POST /teams --data '{"name":"Under 12","ageGroup":"U12"}'
  academyctl request GET /trainings -q from=2026-03-01 -q to=2026-03-31`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &apiclient.Request{
				Method:    strings.ToUpper(args[0]),
				Path:      args[1],
				Anonymous: anonymous,
			}

			if data != "" {
				if !json.Valid([]byte(data)) {
					return errors.New("--data is not valid JSON")
				}
				req.Body = []byte(data)
				req.Header = http.Header{"Content-Type": {"application/json"}}
			}
			for _, kv := range query {
				k, v, _ := strings.Cut(kv, "=")
				if req.Query == nil {
					req.Query = url.Values{}
				}
				req.Query.Add(k, v)
			}
			for _, h := range headers {
				k, v, ok := strings.Cut(h, ":")
				if !ok {
					return errors.Errorf("header %q must be Name: value", h)
				}
				if req.Header == nil {
					req.Header = http.Header{}
				}
				req.Header.Add(strings.TrimSpace(k), strings.TrimSpace(v))
			}

			resp, err := c.app.API.Do(cmd.Context(), req)
			if err != nil {
				return err
			}
			c.printer.Success("%d %s (%s, request %s)", resp.StatusCode, http.StatusText(resp.StatusCode), resp.Duration.Round(time.Millisecond), resp.RequestID)
			c.printer.JSON(resp.Body)
			return nil
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter key=value, repeatable")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "extra header 'Name: value', repeatable")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "send without the session token")
	return cmd
}
