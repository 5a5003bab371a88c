package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/reports/internal/catalog"
)

func NewListCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the configured reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(path)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFORMAT\tOUTPUT\tREQUIRED\tNAME")
			for _, d := range cat.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Format, d.Deliver, strings.Join(d.Required, ","), d.Name)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&path, "catalog", os.Getenv("CATALOG_PATH"), "Catalog file merged over the built-in one")
	return cmd
}
