// Command toolrun exercises a registry of demo tools against LLM responses read
// from a file or stdin.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/skosovsky/toolrun"
)

type app struct {
	configPath string
	cfg        Config
	logger     *slog.Logger
	reg        *toolrun.Registry
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "toolrun",
		Short:         "Run tool calls found in LLM responses",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.reg == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 5*time.Second)
			defer cancel()
			return a.reg.Shutdown(ctx)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	flags.Bool("concurrent", false, "execute the calls of a document concurrently")
	flags.Duration("timeout", 0, "per-tool timeout (0 disables)")
	flags.Int("chunk-size", toolrun.DefaultChunkSize, "stream read size in bytes")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(a.schemasCmd(), a.listCmd(), a.execCmd(), a.streamCmd())
	return root
}

// setup loads the config file, applies explicitly set flags and builds the registry.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("concurrent") {
		cfg.Concurrent, _ = flags.GetBool("concurrent")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize, _ = flags.GetInt("chunk-size")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	lvl, _ := cfg.level()
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))

	tools, err := demoTools()
	if err != nil {
		return fmt.Errorf("build tools: %w", err)
	}
	a.reg = toolrun.NewRegistry(
		toolrun.WithDefaultTimeout(cfg.Timeout),
		toolrun.WithLogger(a.logger),
	)
	a.reg.MustRegister(tools...)
	a.reg.Use(toolrun.WithLogging(a.logger))
	return nil
}

func (a *app) schemasCmd() *cobra.Command {
	var tag string
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Print the function-calling schemas of the registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tools := a.reg.OpenAITools()
			if tag != "" {
				tools = a.reg.OpenAIToolsByTag(tag)
			}
			b, err := json.Marshal(tools)
			if err != nil {
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, b, "", "  "); err != nil {
				return err
			}
			out.WriteByte('\n')
			_, err = out.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "only tools with this tag")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered tools with version and tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tVERSION\tTAGS\tDESCRIPTION")
			for _, t := range a.reg.GetAllTools() {
				version, tags := "-", "-"
				if tm, ok := t.(toolrun.ToolMetadata); ok {
					if tm.Version() != "" {
						version = tm.Version()
					}
					if len(tm.Tags()) > 0 {
						tags = strings.Join(tm.Tags(), ",")
					}
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name(), version, tags, t.Description())
			}
			return w.Flush()
		},
	}
}

func (a *app) execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec [file]",
		Short: "Execute the tool calls of one response document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeIn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeIn()
			doc, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			results, err := a.reg.ProcessResponse(cmd.Context(), doc, a.cfg.mode())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, res := range results {
				if err := enc.Encode(res); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) streamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stream [file]",
		Short: "Execute tool calls from a chunked response stream as documents complete",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeIn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeIn()
			enc := json.NewEncoder(cmd.OutOrStdout())
			var encErr error
			err = a.reg.ProcessStream(cmd.Context(), toolrun.ReaderSource(in, a.cfg.ChunkSize), func(res toolrun.Result) {
				if encErr == nil {
					encErr = enc.Encode(res)
				}
			}, a.cfg.mode())
			if err != nil {
				return err
			}
			return encErr
		},
	}
}

// openInput opens args[0], or stdin when no file is given or the file is "-".
func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
