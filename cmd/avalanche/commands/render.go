package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JulesdeCube/avalanche/pkg/conf"
	"github.com/JulesdeCube/avalanche/pkg/config"
	"github.com/JulesdeCube/avalanche/pkg/inventory"
)

func newRenderCommand() *cobra.Command {
	var (
		output string
		host   string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "render <sources...>",
		Short: "Resolve an inventory and print the final configurations",
		Long: `Resolve the inventory declared by the given CUE sources and print
one fully-merged configuration per host.

Sources may be files or directories; directories contribute every .cue
file they contain, unified into a single definition.`,
		Example: `  # Render every host as YAML
  avalanche render ./inventory

  # Render one host as JSON
  avalanche render -o json --host web01.example.com ./inventory

  # Re-render whenever a source changes
  avalanche render --watch ./inventory`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := renderOnce(cmd.OutOrStdout(), args, output, host); err != nil {
				if !watch {
					return err
				}
				logger.Error().Err(err).Msg("render failed")
			}
			if !watch {
				return nil
			}
			return watchAndRender(cmd, args, output, host)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format (yaml, json)")
	cmd.Flags().StringVar(&host, "host", "", "render a single host instead of the whole inventory")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-render whenever a source file changes")

	return cmd
}

// renderOnce loads, resolves and prints the inventory once.
func renderOnce(w io.Writer, sources []string, output, host string) error {
	def, err := config.NewParser().Load(sources...)
	if err != nil {
		return err
	}

	cfg, err := def.ToInventory()
	if err != nil {
		return err
	}
	cfg.Logger = logger

	systems, err := inventory.Build(cfg)
	if err != nil {
		return err
	}
	logger.Info().Int("hosts", len(systems)).Msg("inventory resolved")

	names := make([]string, 0, len(systems))
	if host != "" {
		if _, ok := systems[host]; !ok {
			return fmt.Errorf("host %q is not part of the inventory", host)
		}
		names = append(names, host)
	} else {
		for name := range systems {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	resolved := make(map[string]conf.Object, len(names))
	for _, name := range names {
		obj, err := systems[name].Resolve()
		if err != nil {
			return fmt.Errorf("resolving host %q: %w", name, err)
		}
		resolved[name] = obj
	}

	switch output {
	case "json":
		data, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resolved); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

// watchAndRender re-renders whenever one of the sources changes, until
// the command context is cancelled.
func watchAndRender(cmd *cobra.Command, sources []string, output, host string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, source := range sources {
		if err := watcher.Add(source); err != nil {
			return fmt.Errorf("failed to watch %s: %w", source, err)
		}
	}
	logger.Info().Strs("sources", sources).Msg("watching for changes")

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug().Str("file", event.Name).Msg("source changed")
			if err := renderOnce(cmd.OutOrStdout(), sources, output, host); err != nil {
				logger.Error().Err(err).Msg("render failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watch error")
		}
	}
}
