package cli

import (
	"io"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"newsharvest/internal/xref"
)

type xrefOptions struct {
	dataDir     string
	politicians string
	companies   string
	workers     int
	skip        []string
}

func newXrefCmd(a *app) *cobra.Command {
	opts := xrefOptions{}

	cmd := &cobra.Command{
		Use:   "xref",
		Short: "Keep harvested articles that mention a politician and a company",
		Long: heredoc.Doc(`
			xref reads every <name>.json in the data directory, keeps the articles whose
			content names at least one politician and one company (whole words, any
			case) and writes them to <name>_filtered.json. Files with no match produce
			no output.
		`),
		Example: heredoc.Doc(`
			$ newsharvest xref --politicians Politician.csv --companies companies.json
			$ newsharvest xref --data-dir ./data --skip spiegel --skip welt
		`),
		RunE: func(c *cobra.Command, args []string) error {
			start := time.Now()
			pols, err := xref.LoadPoliticians(opts.politicians)
			if err != nil {
				return err
			}
			comps, err := xref.LoadCompanies(opts.companies)
			if err != nil {
				return err
			}
			a.slog.Infow("name lists loaded", "politicians", len(pols), "companies", len(comps))

			sums, err := xref.ProcessDir(c.Context(), opts.dataDir, xref.NewFilter(pols, comps),
				xref.Options{Workers: opts.workers, Skip: opts.skip}, a.slog)
			if err != nil {
				return err
			}
			renderXref(c.OutOrStdout(), sums, time.Since(start))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataDir, "data-dir", "./data", "directory with harvested <site>.json files")
	f.StringVar(&opts.politicians, "politicians", "Politician.csv", "politicians list (.csv or .json)")
	f.StringVar(&opts.companies, "companies", "companies.json", "companies list (JSON array)")
	f.IntVar(&opts.workers, "workers", 4, "files processed concurrently")
	f.StringSliceVar(&opts.skip, "skip", nil, "skip files whose name contains this, repeatable")
	return cmd
}

func renderXref(w io.Writer, sums []xref.FileSummary, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Articles", "Retained", "Output", "Error"})
	articles, retained := 0, 0
	for _, s := range sums {
		errText := ""
		if s.Err != nil {
			errText = s.Err.Error()
		}
		t.AppendRow(table.Row{s.File, s.Articles, s.Retained, s.Output, errText})
		articles += s.Articles
		retained += s.Retained
	}
	t.AppendFooter(table.Row{"Total", articles, retained, elapsed.Round(time.Millisecond), ""})
	t.Render()
}
