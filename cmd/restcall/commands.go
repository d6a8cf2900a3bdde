package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-connector/internal/app"
	"github.com/samvad-hq/samvad-connector/internal/report"
	"github.com/samvad-hq/samvad-connector/pkg/connector"
)

type cliDeps struct {
	openRuntime func(ctx context.Context) (*app.Runtime, error)
	out         io.Writer
	err         io.Writer
}

func newRootCommand(deps cliDeps) *cobra.Command {
	root := &cobra.Command{
		Use:           "restcall",
		Short:         "Send REST calls through configured connectors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(deps.out)
	root.SetErr(deps.err)

	root.AddCommand(newSendCommand(deps))
	root.AddCommand(newConnectorsCommand(deps))
	root.AddCommand(newFixturesCommand(deps))
	return root
}

func withRuntime(cmd *cobra.Command, deps cliDeps, fn func(rt *app.Runtime) error) error {
	rt, err := deps.openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func newSendCommand(deps cliDeps) *cobra.Command {
	var (
		data    string
		headers []string
		form    []string
	)

	cmd := &cobra.Command{
		Use:   "send CONNECTOR METHOD PATH",
		Short: "Send one request and print the JSON response",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(args[1], args[2], data, headers, form)
			if err != nil {
				return err
			}

			return withRuntime(cmd, deps, func(rt *app.Runtime) error {
				resp, err := rt.Send(cmd.Context(), args[0], req)
				if err != nil {
					if sum := report.Describe(err); sum.Kind != report.KindOther {
						fmt.Fprintln(cmd.ErrOrStderr(), sum.String())
					}
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			})
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object sent as the request body")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "request header as Name=Value (repeatable)")
	cmd.Flags().StringArrayVarP(&form, "form", "F", nil, "form field as name=value (repeatable); sent urlencoded")
	cmd.MarkFlagsMutuallyExclusive("data", "form")
	return cmd
}

func buildRequest(method, path, data string, headers, form []string) (connector.Request, error) {
	verb, err := connector.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	hdrs, err := parsePairs(headers, "header")
	if err != nil {
		return nil, err
	}

	if len(form) > 0 {
		pairs, err := parsePairs(form, "form")
		if err != nil {
			return nil, err
		}
		fields := url.Values{}
		for k, v := range pairs {
			fields.Set(k, v)
		}
		return connector.Form{Verb: verb, Path: path, Header: hdrs, Fields: fields}, nil
	}

	var body map[string]any
	if strings.TrimSpace(data) != "" {
		if err := json.Unmarshal([]byte(data), &body); err != nil {
			return nil, fmt.Errorf("--data must be a JSON object: %w", err)
		}
	}
	return connector.Call{Verb: verb, Path: path, Header: hdrs, Payload: body}, nil
}

func parsePairs(values []string, flag string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, v := range values {
		k, val, ok := strings.Cut(v, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --%s %q (want name=value)", flag, v)
		}
		out[k] = strings.TrimSpace(val)
	}
	return out, nil
}

func newConnectorsCommand(deps cliDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "connectors",
		Short: "List configured connectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, deps, func(rt *app.Runtime) error {
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("ID", "Base URL", "Auth", "Timeout", "Raise")
				for _, def := range rt.Registry().All() {
					authType := "-"
					if def.Auth != nil {
						authType = def.Auth.Type
					}
					table.Append(def.ID, def.BaseURL, authType, strconv.Itoa(def.TimeoutSeconds)+"s", strconv.FormatBool(def.RaiseForStatus))
				}
				return table.Render()
			})
		},
	}
}

func newFixturesCommand(deps cliDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Inspect recorded fixtures",
	}
	cmd.AddCommand(newFixturesListCommand(deps))
	cmd.AddCommand(newFixturesPurgeCommand(deps))
	return cmd
}

func newFixturesListCommand(deps cliDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded fixtures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, deps, func(rt *app.Runtime) error {
				keys, err := rt.Store().Keys()
				if err != nil {
					return fmt.Errorf("list fixtures: %w", err)
				}

				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("Key", "Method", "URL", "Status", "Recorded")
				for _, key := range keys {
					rec, found, err := rt.Store().Get(key)
					if err != nil {
						return fmt.Errorf("load fixture %s: %w", key, err)
					}
					if !found {
						continue
					}
					table.Append(shortKey(key), rec.Method, rec.URL, strconv.Itoa(rec.StatusCode), rec.RecordedAt.Format("2006-01-02 15:04:05"))
				}
				return table.Render()
			})
		},
	}
}

func newFixturesPurgeCommand(deps cliDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every recorded fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, deps, func(rt *app.Runtime) error {
				n, err := rt.Store().Purge()
				if err != nil {
					return fmt.Errorf("purge fixtures: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d fixtures\n", n)
				return nil
			})
		},
	}
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
