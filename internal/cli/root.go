package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"newsharvest/internal/config"
	"newsharvest/internal/logger"
	"newsharvest/internal/models"
)

// Version is set at build time with -ldflags "-X newsharvest/internal/cli.Version=...".
var Version = "dev"

type app struct {
	v       *viper.Viper
	cfgFile string
	debug   bool

	cfg  *models.Config
	slog *zap.SugaredLogger

	// transport replaces the HTTP transport of every requester; nil in production
	transport http.RoundTripper
}

func newApp() *app {
	return &app{v: config.NewViper()}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsharvest",
		Short: "Harvest dated news articles from publisher websites",
		Long: heredoc.Doc(`
			newsharvest crawls news sites breadth-first, keeps articles published on or
			after each site's threshold date and writes them as {url, content, date}
			records. The xref command filters harvested files down to articles that
			mention both a politician and a company.
		`),
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(c *cobra.Command, args []string) {
			if a.slog != nil {
				_ = a.slog.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "development logging at debug level")
	_ = a.v.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(
		newCrawlCmd(a),
		newXrefCmd(a),
		newSitesCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
	}
	slog, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.slog = slog
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		// no config needed
		PersistentPreRunE: func(c *cobra.Command, args []string) error { return nil },
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintf(c.OutOrStdout(), "newsharvest version %s\n", Version)
		},
	}
}
