package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/listingbridge/internal/csvexport"
	"github.com/JonMunkholm/listingbridge/internal/fields"
	"github.com/JonMunkholm/listingbridge/internal/platform"
	"github.com/JonMunkholm/listingbridge/internal/store"
)

func newPlatformsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported marketplaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "PLATFORM\tNAME\tLANGUAGE\tCURRENCY\tMAX IMAGES\tCSV COLUMNS")
			for _, cfg := range platform.Configs() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
					cfg.Platform,
					cfg.DisplayName,
					cfg.Language,
					cfg.CurrencyCode(),
					cfg.MaxImages,
					len(csvexport.Header(cfg.Platform)),
				)
			}
			return w.Flush()
		},
	}
}

func newFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields <platform>",
		Short: "Show the listing form fields of a marketplace",
		Example: `  listingctl fields amazon_jp
  listingctl fields coupang`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := platform.Parse(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			for i, g := range fields.Groups(p) {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "# %s\n", g.Title)
				fmt.Fprintln(w, "ID\tLABEL\tTYPE\tREQUIRED\tOPTIONS")
				for _, f := range g.Fields {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Label, f.Type, yesNo(f.Required), options(f))
				}
			}
			return w.Flush()
		},
	}
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the product master table DDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), store.Schema)
			return err
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func options(f fields.Definition) string {
	values := make([]string, len(f.Options))
	for i, o := range f.Options {
		values[i] = o.Value
	}
	return strings.Join(values, ",")
}
