package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"jumbotrace/internal/config"
	"jumbotrace/internal/display"
	"jumbotrace/internal/logging"
	"jumbotrace/internal/metrics"
	"jumbotrace/internal/model"
	"jumbotrace/internal/session"
	"jumbotrace/internal/tree"
	"jumbotrace/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:               "jumbotrace",
		Short:             "Explore recorded execution traces of Java programs",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
	configPath  string
	logLevel    string
	metricsFile string

	cfg       *config.Config
	logger    = logr.Discard()
	syncLog   = func() {}
	registry  = prometheus.NewRegistry()
	collected = metrics.Register(registry)
)

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if cfg != nil {
		if merr := metrics.WriteToTextfile(cfg.Metrics.Textfile, registry); merr != nil {
			logger.Error(merr, "failed to write metrics", "path", cfg.Metrics.Textfile)
		}
	}
	syncLog()
	if err != nil {
		var mte *model.MalformedTraceError
		if errors.As(err, &mte) {
			logger.Error(err, "malformed trace")
			fmt.Fprintf(os.Stderr, "trace could not be parsed: %v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "jumbotrace.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write prometheus metrics to this file on exit")

	printCmd.Flags().Int("window", 0, "Number of positions to print (default from config)")
	printCmd.Flags().Bool("from-end", false, "Print the window ending at the last position")
	labelsCmd.Flags().String("query", "", "jq expression applied to the label array")

	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(objectsCmd)
}

// setup loads the configuration and builds the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.LoadConfig(configPath); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if metricsFile != "" {
		cfg.Metrics.Textfile = metricsFile
	}
	logger, syncLog, err = logging.New(cfg.Log.Level, cfg.Log.Development)
	return err
}

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func openSession(ctx context.Context, dir string) (*session.Session, error) {
	in, err := session.Resolve(cfg, dir)
	if err != nil {
		return nil, err
	}
	logger.V(1).Info("inputs resolved", "trace", in.Trace, "sourceFormat", in.SourceFormat, "objects", in.Objects, "source", in.SourceFile)
	return session.Open(ctx, in, session.WithLogger(logger), session.WithMetrics(collected))
}

func loadDocument(ctx context.Context, dir string) (*session.Session, *display.Document, error) {
	in, err := session.Resolve(cfg, dir)
	if err != nil {
		return nil, nil, err
	}
	s, err := session.Load(ctx, in, session.WithLogger(logger), session.WithMetrics(collected))
	if err != nil {
		return nil, nil, err
	}
	doc := display.NewDocument(s.Root, display.NewRenderer(cfg.Display.IndentWidth, display.NewStyles(useColor())), cfg.Display.ExpandFunctions)
	doc.Objects = s.Objects
	return s, doc, nil
}

func useColor() bool {
	switch strings.ToLower(cfg.Display.Color) {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

var viewCmd = &cobra.Command{
	Use:   "view [dir]",
	Short: "Browse a trace interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, doc, err := loadDocument(cmd.Context(), dirArg(args))
		if err != nil {
			return err
		}
		defer s.Close()

		_, err = tea.NewProgram(tui.New(doc, s.Inputs.Trace, collected), tea.WithAltScreen()).Run()
		return err
	},
}

var printCmd = &cobra.Command{
	Use:   "print [dir]",
	Short: "Print one window of the trace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		window, _ := cmd.Flags().GetInt("window")
		fromEnd, _ := cmd.Flags().GetBool("from-end")
		if window <= 0 {
			window = cfg.Display.Window
		}

		s, doc, err := loadDocument(cmd.Context(), dirArg(args))
		if err != nil {
			return err
		}
		defer s.Close()

		var cursors []*display.Cursor
		if fromEnd {
			if last := doc.Last(); last != nil {
				cursors = doc.WindowBefore(last, window)
			}
		} else if first := doc.First(); first != nil {
			cursors = doc.Window(first, window)
		}
		out := cmd.OutOrStdout()
		for _, c := range cursors {
			for _, l := range doc.Lines(c.Element()) {
				fmt.Fprintln(out, doc.Renderer.Render(l, 0, false))
			}
		}
		return nil
	},
}

var labelsCmd = &cobra.Command{
	Use:   "labels [dir]",
	Short: "Dump parsed labels as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		s, err := openSession(cmd.Context(), dirArg(args))
		if err != nil {
			return err
		}
		defer s.Close()
		return writeLabels(cmd.OutOrStdout(), s.Labels, query)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Report unbalanced labels and grammar violations",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), dirArg(args))
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		problems := 0
		for _, im := range tree.CheckBalance(s.Labels) {
			fmt.Fprintln(out, im)
			problems++
		}
		if problems == 0 {
			root, err := s.Build()
			if err != nil {
				return err
			}
			for _, v := range tree.Verify(root) {
				fmt.Fprintln(out, v)
				problems++
			}
		}
		if problems > 0 {
			return fmt.Errorf("%d problems found", problems)
		}
		fmt.Fprintf(out, "%d labels, no problems found\n", len(s.Labels))
		return nil
	},
}

var objectsCmd = &cobra.Command{
	Use:   "objects [dir] POINTER VERSION",
	Short: "Show an object snapshot at a version",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 3 {
			dir, args = args[0], args[1:]
		}
		pointer, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid pointer %q: %w", args[0], err)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}

		s, err := openSession(cmd.Context(), dir)
		if err != nil {
			return err
		}
		defer s.Close()

		snap, err := s.Objects.Lookup(cmd.Context(), pointer, version)
		if err != nil {
			return fmt.Errorf("%d@%d: %w", pointer, version, err)
		}
		for _, line := range display.DescribeSnapshot(fmt.Sprintf("%d@%d", pointer, version), snap) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}
