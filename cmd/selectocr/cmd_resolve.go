// cmd_resolve.go: Shows how a request path is resolved by the interceptors
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	selectocr "github.com/agilira/go-selectocr"
)

var (
	resolveParams []string
	resolveMethod string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Resolve {{name}} placeholders of a request path without sending it",
	Example: `  selectocr resolve '/users/{{id}}/posts' -p id=42 -p sort=asc
  selectocr resolve '/items/{{tags}}' -p tags=a -p tags=b --missing-param empty`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringArrayVarP(&resolveParams, "param", "p", nil, "Request parameter as key=value (repeat a key for a list)")
	resolveCmd.Flags().StringVarP(&resolveMethod, "method", "X", http.MethodGet, "Request method")
}

func runResolve(cmd *cobra.Command, args []string) error {
	params, err := parseParams(resolveParams)
	if err != nil {
		return err
	}

	log := commandLogger()
	p, err := newPipeline(activeConfig, log)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	client, err := p.httpClient(log)
	if err != nil {
		return err
	}

	req, err := client.Build(cmd.Context(), &selectocr.RequestDescriptor{
		Method:     resolveMethod,
		Path:       args[0],
		Parameters: params,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", req.Method, req.URL.String())
	if body := requestBody(req); body != "" {
		fmt.Fprintf(out, "body: %s\n", body)
	}
	return nil
}

// parseParams turns key=value pairs into request parameters. A key given
// more than once becomes a list.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
		}
		switch existing := params[key].(type) {
		case nil:
			params[key] = value
		case string:
			params[key] = []string{existing, value}
		case []string:
			params[key] = append(existing, value)
		}
	}
	return params, nil
}

func requestBody(req *http.Request) string {
	if req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return ""
	}
	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(body)
	if err != nil {
		return ""
	}
	return string(data)
}
