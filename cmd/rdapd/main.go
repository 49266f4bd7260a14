// main.go
// rdapd redirects RDAP queries to the authoritative registry service.
//
// Subcommands
//   serve                    – run the redirect service
//   lookup [type] <handle>   – resolve one handle and print the target
//   refresh                  – re-validate every mirrored bootstrap document
//   version                  – print the build version
//
// Flags
//   --config   – YAML config file (env RDAPD_CONFIG)
//   --json     – JSON output for lookup/refresh (default true)
//
// Run examples
//   ./rdapd serve --config /etc/rdapd.yaml
//   ./rdapd lookup example.com
//   ./rdapd lookup ip 192.0.2.0/24

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	rb "github.com/datum-labs/rdapbootstrap"
)

var version = "dev"

var (
	flagConfig = os.Getenv("RDAPD_CONFIG")
	flagJSON   = true
)

func main() {
	root := &cobra.Command{
		Use:           "rdapd",
		Short:         "RDAP bootstrap redirection service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", flagConfig, "path to rdapd.yaml (env RDAPD_CONFIG)")
	root.PersistentFlags().BoolVar(&flagJSON, "json", true, "emit JSON; set --json=false for text output")

	root.AddCommand(cmdServe(), cmdLookup(), cmdRefresh(), cmdVersion())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (rb.Config, error) {
	cfg, err := rb.LoadConfig(flagConfig)
	if err != nil {
		return rb.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds a logr.Logger over log/slog. Debug level enables V(1).
func newLogger(cfg rb.Config) logr.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.Log.Format, "text") {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return logr.FromSlogHandler(h)
}

func cmdLookup() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup [type] <handle>",
		Short: "Resolve a handle to its RDAP service (type auto-detected when omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			rd, _, err := cfg.Build(newLogger(cfg), nil)
			if err != nil {
				return err
			}
			defer rd.Close()

			ctx := cmd.Context()
			var res *rb.Resolution
			if len(args) == 2 {
				t, ok := rb.ParseObjectType(args[0])
				if !ok {
					return fmt.Errorf("unsupported object type %q", args[0])
				}
				res, err = rd.Resolve(ctx, t, args[1])
			} else {
				res, err = rd.Lookup(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return renderResolution(res)
		},
	}
	return cmd
}

func renderResolution(res *rb.Resolution) error {
	loc := res.Location("")
	if !flagJSON {
		fmt.Println(loc)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"type":     res.Handle.Type.String(),
		"handle":   res.Handle.Raw,
		"document": res.Document,
		"match":    res.Match.Value,
		"urls":     res.Match.URLs,
		"location": loc,
	})
}

func cmdRefresh() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-validate every bootstrap document in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			rd, _, err := cfg.Build(newLogger(cfg), nil)
			if err != nil {
				return err
			}
			defer rd.Close()
			if err := rd.Refresh(cmd.Context()); err != nil {
				return err
			}
			if !flagJSON {
				fmt.Println("ok")
				return nil
			}
			return json.NewEncoder(os.Stdout).Encode(map[string]any{"refreshed": rd.DocumentURLs()})
		},
	}
	return cmd
}

func cmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Println(version)
		},
	}
}
