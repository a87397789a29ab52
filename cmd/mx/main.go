// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command mx is a thin demonstration front-end over the modulix core: one
// flag-parsing layer and one call into the public API per subcommand. It
// stands in for the full CLI that spec §1 names as an out-of-scope
// external collaborator — it exists only to exercise set/get/set-default/
// list-add/list-remove against a real file, not to grow into that CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	modulix "github.com/Modulix-OS/modulix-core-utils"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := modulix.DefaultConfig()
	var dedup bool

	root := &cobra.Command{
		Use:           "mx",
		Short:         "Direct, non-transactional edits against a single configuration file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().IntVar(&cfg.TabWidth, "tab-width", cfg.TabWidth, "indentation unit used when synthesising new structure")
	root.PersistentFlags().StringVar(&cfg.ElevatedWriteHelper, "elevated-write-helper", cfg.ElevatedWriteHelper, "privileged helper invoked on PermissionDenied")

	root.AddCommand(&cobra.Command{
		Use:   "set <file> <option> <value>",
		Short: "Set an option to a value, creating it if absent",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return modulix.SetOption(cfg, args[0], args[1], args[2])
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "get <file> <option>",
		Short: "Print an existing option's value text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := modulix.GetOption(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "set-default <file> <option>",
		Short: "Clear an option back to its default, if set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := modulix.SetOptionToDefault(cfg, args[0], args[1])
			if err != nil {
				return err
			}
			if removed {
				fmt.Println("removed")
			} else {
				fmt.Println("unchanged")
			}
			return nil
		},
	})

	listAdd := &cobra.Command{
		Use:   "list-add <file> <option> <element>",
		Short: "Append an element to a list option",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return modulix.ListAdd(cfg, args[0], args[1], args[2], dedup)
		},
	}
	listAdd.Flags().BoolVar(&dedup, "dedup", false, "skip the append if the element is already present")
	root.AddCommand(listAdd)

	root.AddCommand(&cobra.Command{
		Use:   "list-remove <file> <option> <element>",
		Short: "Remove the first matching element from a list option",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return modulix.ListRemove(cfg, args[0], args[1], args[2])
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list-elements <file> <option>",
		Short: "Print each element of a list option, one per line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			elems, err := modulix.GetListElements(args[0], args[1])
			if err != nil {
				return err
			}
			for _, e := range elems {
				fmt.Println(e)
			}
			return nil
		},
	})

	return root
}
