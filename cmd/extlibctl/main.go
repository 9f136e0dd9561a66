// extlibctl is a development tool for exercising an external library plugin
// from the command line: it spawns the configured executable and issues
// metadata, call, or check requests over the plugin protocol.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hielements/extlib-go/host"
	"github.com/hielements/extlib-go/value"
)

var (
	flagExecutable string
	flagArgs       []string
	flagWorkspace  string
)

func main() {
	root := &cobra.Command{
		Use:           "extlibctl",
		Short:         "Exercise an external library plugin over the line protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flagExecutable, "executable", "e", "", "plugin executable to spawn")
	root.PersistentFlags().StringArrayVar(&flagArgs, "plugin-arg", nil, "argument passed to the plugin executable (repeatable)")
	root.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", ".", "workspace path sent with call and check requests")
	_ = root.MarkPersistentFlagRequired("executable")

	root.AddCommand(metadataCmd(), callCmd(), checkCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "extlibctl: %v\n", err)
		os.Exit(1)
	}
}

func newLibrary() *host.Library {
	return host.NewLibrary(host.Config{
		Name:       "cli",
		Executable: flagExecutable,
		Args:       flagArgs,
	})
}

func metadataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metadata",
		Short: "Print the plugin's self-description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := newLibrary()
			defer lib.Close()

			meta, err := lib.Metadata()
			if err != nil {
				return err
			}
			return printJSON(meta)
		},
	}
}

func callCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <function> [arg...]",
		Short: "Invoke a selector function and print its value",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := newLibrary()
			defer lib.Close()

			result, err := lib.Call(args[0], parseArgs(args[1:]), flagWorkspace)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <function> [arg...]",
		Short: "Invoke a check function and print its outcome",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := newLibrary()
			defer lib.Close()

			result, err := lib.Check(args[0], parseArgs(args[1:]), flagWorkspace)
			if err != nil {
				return err
			}
			if err := printJSON(result); err != nil {
				return err
			}
			if result.IsFail() || result.IsError() {
				_ = lib.Close()
				os.Exit(1)
			}
			return nil
		},
	}
}

// parseArgs turns command-line literals into protocol values: integer
// literals become Int, everything else String.
func parseArgs(literals []string) []value.Value {
	args := make([]value.Value, 0, len(literals))
	for _, lit := range literals {
		if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
			args = append(args, value.NewInt(n))
			continue
		}
		args = append(args, value.NewString(lit))
	}
	return args
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
