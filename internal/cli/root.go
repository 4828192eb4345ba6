package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/market-views/internal/common"
)

// version is stamped at build time with -ldflags "-X .../internal/cli.version=...".
var version = "dev"

// app carries what every subcommand shares. It is filled in by the root pre-run hook.
type app struct {
	configPath string
	logFormat  string
	logLevel   string

	cfg    *common.Config
	logger *slog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "market-views",
		Short: "Extract investment views from PDF market reports into a shared CSV catalog",
		Long: `market-views reads PDF market reports, asks a language model for the investment
views they contain, and appends them to a CSV catalog kept in a GitHub repository
(or a local file). The catalog can be listed and filtered by region or asset class.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (toml, yaml or json)")
	pf.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(
		newExtractCmd(a),
		newWatchCmd(a),
		newCatalogCmd(a),
		newRunsCmd(a),
		newResubmitCmd(a),
		newInitStoreCmd(a),
		newDoctorCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(w io.Writer) error {
	logger, err := newLogger(w, a.logFormat, a.logLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q: want text or json", format)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "market-views version %s\n", version)
		},
	}
}
