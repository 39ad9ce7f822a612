package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ngosdi"
	"ngosdi/config"
	"ngosdi/debug"
	"ngosdi/metrics"
	"ngosdi/osdi"
	"ngosdi/plugins"
	"ngosdi/types"
)

// options 命令行参数
type options struct {
	LogLevel string
	Metrics  bool
	CSC      bool
	Temp     float64
	Out      string
	Format   string
}

// session 一次命令执行的电路与指标
type session struct {
	circuit *ngosdi.Circuit
	reg     *prometheus.Registry
	logger  *zap.Logger
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// open 加载网表并执行 setup
func open(cmd *cobra.Command, opts *options, path string) (*session, []*osdi.Report, error) {
	logger, err := newLogger(opts.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	osdi.SetLogger(logger.Named("osdi"))

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	s := &session{reg: prometheus.NewRegistry(), logger: logger}
	col, err := metrics.New(s.reg)
	if err != nil {
		return nil, nil, err
	}
	reg := osdi.NewRegistry()
	if err := plugins.Register(reg); err != nil {
		return nil, nil, err
	}
	s.circuit = ngosdi.NewCircuit(reg, col)
	if err := s.circuit.Load(cfg); err != nil {
		return nil, nil, err
	}
	reports, err := s.circuit.Setup(cmd.Context())
	if err != nil && osdi.StatusOf(err) == osdi.StatusFatal {
		return nil, reports, err
	}
	if err != nil {
		logger.Warn("setup finished with failures", zap.Error(err))
	}
	if opts.CSC || cfg.Sim.CSC {
		m, err := s.circuit.BindCSC()
		if err != nil {
			return nil, reports, err
		}
		logger.Info("compressed column storage bound",
			zap.Int("size", m.Size()), zap.Int("nnz", m.NonZeroCount()))
	}
	return s, reports, nil
}

// finish 输出报告和指标
func (s *session) finish(cmd *cobra.Command, opts *options, reports []*osdi.Report) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderReports(reports))
	if opts.Metrics {
		if err := metrics.WriteText(out, s.reg); err != nil {
			return err
		}
	}
	_ = s.logger.Sync()
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &options{LogLevel: "warn", Format: "png"}
	root := &cobra.Command{
		Use:           "osdictl",
		Short:         "Bind device plugins to a circuit deck",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level: debug|info|warn|error")
	root.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "Dump metrics in text format after the run")
	root.PersistentFlags().BoolVar(&opts.CSC, "csc", false, "Bind compressed column storage after setup")

	setupCmd := &cobra.Command{
		Use:     "setup <deck>",
		Short:   "Run the setup pass and print the per-entity report",
		Example: "  osdictl setup deck.yaml --csc",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, reports, err := open(cmd, opts, args[0])
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderReports(reports))
				return err
			}
			return s.finish(cmd, opts, reports)
		},
	}

	tempCmd := &cobra.Command{
		Use:     "temp <deck>",
		Short:   "Run setup, then a temperature pass at --temp (Celsius)",
		Example: "  osdictl temp deck.toml --temp 85",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, reports, err := open(cmd, opts, args[0])
			if err != nil {
				return err
			}
			s.circuit.SetTemp(opts.Temp + types.CToK)
			more, err := s.circuit.Temperature(cmd.Context())
			reports = append(reports, more...)
			if err != nil && osdi.StatusOf(err) == osdi.StatusFatal {
				fmt.Fprintln(cmd.OutOrStdout(), renderReports(reports))
				return err
			}
			return s.finish(cmd, opts, reports)
		},
	}
	tempCmd.Flags().Float64Var(&opts.Temp, "temp", 27, "Circuit temperature in Celsius")

	unsetupCmd := &cobra.Command{
		Use:   "unsetup <deck>",
		Short: "Run setup then unsetup and print the node table before and after",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, reports, err := open(cmd, opts, args[0])
			if err != nil {
				return err
			}
			before := s.circuit.Nodes.Live()
			if err := s.circuit.Unsetup(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderNodes(before, s.circuit.Nodes.Live()))
			return s.finish(cmd, opts, reports)
		},
	}

	plotCmd := &cobra.Command{
		Use:     "plot <deck>",
		Short:   "Write the node mapping graph and the Jacobian sparsity plot",
		Example: "  osdictl plot deck.hcl --out ./diag --format svg",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, reports, err := open(cmd, opts, args[0])
			if err != nil {
				return err
			}
			if err := writePlots(s, reports, opts); err != nil {
				return err
			}
			if err := debug.DumpDense(cmd.OutOrStdout(), s.circuit.Matrix); err != nil {
				return err
			}
			return s.finish(cmd, opts, reports)
		},
	}
	plotCmd.Flags().StringVar(&opts.Out, "out", ".", "Output directory")
	plotCmd.Flags().StringVar(&opts.Format, "format", opts.Format, "Sparsity plot format: png|svg|pdf")

	root.AddCommand(setupCmd, tempCmd, unsetupCmd, plotCmd)
	root.SetContext(context.Background())
	return root
}

func writePlots(s *session, reports []*osdi.Report, opts *options) error {
	if err := os.MkdirAll(opts.Out, 0o755); err != nil {
		return err
	}
	c := s.circuit
	rec := debug.NewRecord(c.Nodes)
	for _, dev := range c.Devices() {
		d, _ := c.Registry.Lookup(dev)
		rec.Add(c.Models(dev), d)
	}
	for _, rep := range reports {
		rec.Update(rep)
	}

	html, err := os.Create(filepath.Join(opts.Out, "nodes.html"))
	if err != nil {
		return err
	}
	defer html.Close()
	charts := &debug.Charts{Record: rec, Logger: s.logger}
	if err := charts.Render(html); err != nil {
		return err
	}

	plot, err := os.Create(filepath.Join(opts.Out, "sparsity."+opts.Format))
	if err != nil {
		return err
	}
	defer plot.Close()
	return debug.PlotSparsity(plot, c.Matrix, opts.Format)
}
