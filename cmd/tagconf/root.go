package main

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lixenwraith/tagconf"
)

type rootOptions struct {
	locations []string
	tags      []string
	envPrefix string
	verbose   bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "tagconf",
		Short: "Inspect tag-aware configuration",
		Long: `tagconf loads configuration files the way an application using the
tagconf library would, and prints what a read sees for a given tag list.

Files are chosen by extension (.toml, .yaml, .yml, .json, .ini, .properties).
Later files override earlier ones for the same key and tag.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringSliceVarP(&opts.locations, "file", "f", nil, "configuration file or URL (repeatable)")
	flags.StringSliceVarP(&opts.tags, "tags", "t", nil, "current tags, highest priority first (default from "+tagconf.TagsEnvVar+")")
	flags.StringVar(&opts.envPrefix, "env-prefix", "", "expose environment variables with this prefix")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log loading details to stderr")

	rootCmd.AddCommand(
		newGetCommand(opts),
		newKeysCommand(opts),
		newDumpCommand(opts),
		newDebugCommand(opts),
	)
	return rootCmd
}

func (o *rootOptions) build(cmd *cobra.Command) (*tagconf.Configuration, error) {
	logger := zap.NewNop()
	if o.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		logger = l
	}

	b := tagconf.NewBuilder().WithLogger(logger)
	if cmd.Flags().Changed("tags") {
		b.WithTags(o.tags...)
	}
	for _, location := range o.locations {
		store, err := tagconf.StoreForLocation(location)
		if err != nil {
			return nil, err
		}
		b.WithStore(store)
	}
	if o.envPrefix != "" {
		b.WithStore(tagconf.NewEnvStore(o.envPrefix))
	}
	return b.BuildContext(cmd.Context())
}

var valueTypes = map[string]reflect.Type{
	"string":   reflect.TypeFor[string](),
	"bool":     reflect.TypeFor[bool](),
	"int":      reflect.TypeFor[int](),
	"int64":    reflect.TypeFor[int64](),
	"float":    reflect.TypeFor[float64](),
	"duration": reflect.TypeFor[time.Duration](),
	"list":     reflect.TypeFor[[]string](),
	"map":      reflect.TypeFor[map[string]string](),
}

func newGetCommand(opts *rootOptions) *cobra.Command {
	var typeName, def string

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of a key under the current tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.build(cmd)
			if err != nil {
				return err
			}

			t, ok := valueTypes[typeName]
			if !ok {
				return fmt.Errorf("unknown type %q", typeName)
			}
			v, err := cfg.Evaluate(args[0], t)
			if err != nil {
				if cmd.Flags().Changed("default") {
					fmt.Fprintln(cmd.OutOrStdout(), def)
					return nil
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "string", "convert to string, bool, int, int64, float, duration, list or map")
	cmd.Flags().StringVar(&def, "default", "", "print this instead of failing when the key cannot be read")
	return cmd
}

func newKeysCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys [path]",
		Short: "List keys with a value under the current tags",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := viewFor(opts, cmd, args)
			if err != nil {
				return err
			}
			for _, k := range cfg.Keys() {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func newDumpCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [path]",
		Short: "Print resolved values as TOML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := viewFor(opts, cmd, args)
			if err != nil {
				return err
			}
			return cfg.Dump(cmd.OutOrStdout())
		},
	}
}

func newDebugCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "debug [path]",
		Short: "Print every tagged alternative and the winning value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := viewFor(opts, cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.Debug())
			return nil
		},
	}
}

func viewFor(opts *rootOptions, cmd *cobra.Command, args []string) (*tagconf.Configuration, error) {
	cfg, err := opts.build(cmd)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return cfg, nil
	}
	return cfg.At(args[0])
}
