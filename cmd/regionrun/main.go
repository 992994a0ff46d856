// Command regionrun replays the named region-lifecycle scenarios against
// a fresh runtime, reporting whether each one passes its checks and
// optionally rendering the heap it built as a Mermaid diagram. It exists
// to make the counter algorithm's behaviour inspectable by a human, the
// same role the reference implementation's mermaid() dump and its
// hand-traced scenario list played for the runtime it was extracted from.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"regioncore/pkg/runtime"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "regionrun",
		Short: "Exercise the region-based memory management core",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug events (regions queued for and finished collection)")

	root.AddCommand(newScenarioCmd(&verbose))
	root.AddCommand(newFuzzCmd(&verbose))
	root.AddCommand(newListCmd())

	return root
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range scenarios {
				fmt.Fprintln(cmd.OutOrStdout(), s.name)
			}
			return nil
		},
	}
}

func newScenarioCmd(verbose *bool) *cobra.Command {
	var render bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "scenario [name...]",
		Short: "Run one or more named scenarios (default: all of them)",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				for _, s := range scenarios {
					names = append(names, s.name)
				}
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
				render = true
			}

			log := newLogger(*verbose)
			failed := false
			for _, name := range names {
				s, ok := findScenario(name)
				if !ok {
					return fmt.Errorf("unknown scenario %q", name)
				}

				var err error
				if render {
					err = renderScenario(out, log, name)
				} else {
					err = s.run(runtime.New(log))
				}

				if err != nil {
					failed = true
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: FAIL: %v\n", name, err)
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: ok\n", name)
				}
			}
			if failed {
				return fmt.Errorf("one or more scenarios failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "emit a mermaid diagram of the resulting heap")
	cmd.Flags().StringVar(&outPath, "out", "", "write the mermaid diagram to this file instead of stdout (implies --render)")
	return cmd
}

func newFuzzCmd(verbose *bool) *cobra.Command {
	var iterations int
	var seed int64

	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Drive random reference-protocol sequences and check the heap drains afterwards",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(*verbose)
			result := runFuzz(log, seed, iterations)
			fmt.Fprintf(cmd.OutOrStdout(), "ran %d operations across %d rounds\n",
				result.operations, result.rounds)
			return nil
		},
	}
	cmd.Flags().IntVar(&iterations, "rounds", 200, "number of random mutation rounds to run")
	cmd.Flags().Int64Var(&seed, "seed", 1, "seed for the random operation generator")
	return cmd
}
