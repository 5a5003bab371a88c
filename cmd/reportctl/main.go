// Command reportctl generates reports from the command line, using the
// same configuration as the server.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/reports/internal/core"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Generate warehouse reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewGenerateCmd(), NewListCmd())

	if err := root.Execute(); err != nil {
		var e *core.Error
		if errors.As(err, &e) {
			fmt.Fprintf(os.Stderr, "error %d: %s\n", e.Code(), e.Error())
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
