package cli

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"newsharvest/internal/config"
)

func newSitesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the configured sites",
		RunE: func(c *cobra.Command, args []string) error {
			sites, err := config.Validate(a.cfg)
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(c.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Domain", "Start URLs", "Threshold", "Date selector"})
			for _, s := range sites {
				t.AppendRow(table.Row{
					s.Name,
					s.AllowedDomain,
					strings.Join(s.StartURLs, "\n"),
					s.Threshold.Format("2006-01-02"),
					s.Rule.DateSelector(),
				})
			}
			t.Render()
			return nil
		},
	}
}
