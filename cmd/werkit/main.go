package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/metabolize/werkit/internal/loader"
	"github.com/metabolize/werkit/pkg/codegen"
	"github.com/metabolize/werkit/pkg/config"
	"github.com/metabolize/werkit/pkg/graph"
	"github.com/metabolize/werkit/pkg/logging"
	"github.com/metabolize/werkit/pkg/types"
	"github.com/metabolize/werkit/pkg/version"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func (o *rootOptions) logger() *slog.Logger {
	return logging.New(o.logLevel, o.logFormat)
}

// resolvedConfigPath picks --config, then WERKIT_CONFIG, then the default
// file when it exists. An empty result means defaults and environment only.
func (o *rootOptions) resolvedConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	path := config.DefaultConfigPath()
	if os.Getenv("WERKIT_CONFIG") != "" {
		return path
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// load reads the configuration and lets it supply logging settings that
// were not given as flags.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(o.resolvedConfigPath())
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("log-level") {
		o.logLevel = cfg.Log.Level
	}
	if !cmd.Flags().Changed("log-format") {
		o.logFormat = cfg.Log.Format
	}
	o.cfg = cfg
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "werkit",
		Short:         "Compute graph tooling",
		Version:       version.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: $WERKIT_CONFIG or ~/.werkit/config.yaml if present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		interfacesCmd(opts),
		validateCmd(opts),
		functionCmd(opts),
		versionCmd(),
	)
	return root
}

func interfacesCmd(opts *rootOptions) *cobra.Command {
	var importsPath, outputPath string

	cmd := &cobra.Command{
		Use:   "interfaces DEPENDENCY_GRAPH",
		Short: "Generate TypeScript interfaces for the nodes of a dependency graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := loader.NewLoader(nil)
			l.SetLogger(opts.logger())

			g, err := l.LoadGraph(args[0])
			if err != nil {
				return err
			}
			imports, err := l.LoadImports(importsPath)
			if err != nil {
				return err
			}

			generated := codegen.GenerateComputeNodeInterfaces(g, imports)
			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(generated), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outputPath, err)
				}
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), generated)
			return err
		},
	}
	cmd.Flags().StringVar(&importsPath, "imports", "", "file whose contents are prepended verbatim")
	cmd.Flags().StringVar(&outputPath, "output", "", "write the generated text to this file instead of stdout")
	return cmd
}

func validateCmd(opts *rootOptions) *cobra.Command {
	var customTypes []string
	var checkValueTypes bool

	cmd := &cobra.Command{
		Use:   "validate DEPENDENCY_GRAPH",
		Short: "Check a dependency graph for dangling references, cycles and unknown types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vopts := graph.ValidateOptions{CheckValueTypes: checkValueTypes}
			for _, name := range customTypes {
				vopts.CustomTypes = append(vopts.CustomTypes, types.ValueType(name))
			}

			l := loader.NewLoader(loader.ValidatorFunc(func(g *types.DependencyGraph) error {
				return graph.Validate(g, vopts)
			}))
			l.SetLogger(opts.logger())

			g, err := l.LoadGraph(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d nodes)\n", args[0], len(g.NodeNames()))
			return err
		},
	}
	cmd.Flags().StringArrayVar(&customTypes, "custom-type", nil, "additional value type name (repeatable)")
	cmd.Flags().BoolVar(&checkValueTypes, "check-value-types", false, "reject value types that are neither built in nor custom")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Long())
			return err
		},
	}
}
