package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/votemap/precinct-cli/internal/settlement"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve NAME...",
	Short: "Resolve settlement names to settlement codes",
	Long: `Resolve looks up each settlement name on the search portlet and prints
one NAME<TAB>CODE line per argument. Names repeated within one invocation hit
the shared cache instead of the portlet.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		resolver := settlement.NewResolver(newPortletClient(cfg), settlement.NewCache())

		for _, name := range args {
			code, err := resolver.Resolve(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s\t%s\n", name, code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
