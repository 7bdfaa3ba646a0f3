package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JulesdeCube/avalanche/pkg/config"
	"github.com/JulesdeCube/avalanche/pkg/inventory"
)

func newHostsCommand() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "hosts <sources...>",
		Short: "List the hosts of an inventory",
		Long: `Resolve the inventory declared by the given CUE sources and list
its hosts together with their declared groups.`,
		Example: `  # Every host
  avalanche hosts ./inventory

  # Only the members of one group
  avalanche hosts --group web ./inventory`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := config.NewParser().Load(args...)
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

			names := make([]string, 0, len(systems))
			for name := range systems {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				groups, err := systems[name].StringSlice(inventory.OptionGroups)
				if err != nil {
					return fmt.Errorf("host %q: %w", name, err)
				}
				if group != "" && !contains(groups, group) {
					continue
				}
				if len(groups) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), name)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]\n", name, strings.Join(groups, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "only list members of this group")

	return cmd
}

func contains(list []string, s string) bool {
	for _, elem := range list {
		if elem == s {
			return true
		}
	}
	return false
}
