package main

import (
	"context"
	"fmt"
	"io"

	"github.com/danmuck/bitsctl/internal/batch"
	"github.com/danmuck/bitsctl/internal/bits"
	"github.com/danmuck/bitsctl/internal/config"
	"github.com/danmuck/bitsctl/internal/eval"
	"github.com/danmuck/bitsctl/internal/logging"
	"github.com/danmuck/bitsctl/internal/observability"
	"github.com/danmuck/bitsctl/internal/packet"
	"github.com/danmuck/bitsctl/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	input      string
	workers    int
	cfg        config.Config
	stdin      io.Reader
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	opts := &options{stdin: stdin}

	root := &cobra.Command{
		Use:           "bitsctl",
		Short:         "Decode and evaluate BITS transmissions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML config path")
	root.PersistentFlags().StringVarP(&opts.input, "input", "i", "", `transmission file, "-" for stdin`)

	root.AddCommand(
		opts.runCmd(),
		opts.sumCmd(),
		opts.evalCmd(),
		opts.dumpCmd(),
		opts.encodeCmd(),
		opts.batchCmd(),
		opts.serveCmd(),
		opts.configCmd(),
	)
	return root
}

func (o *options) load() error {
	observability.InitLogger("bitsctl")
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		log.Debug().Str("path", o.configPath).Msg("loaded config")
	}
	if cfg.LogLevel != "" && !logging.SetLevel(cfg.LogLevel) {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level ignored")
	}
	if o.input != "" {
		cfg.Input = o.input
	}
	o.cfg = cfg
	return nil
}

func (o *options) limits() packet.Limits {
	return packet.Limits{MaxDepth: o.cfg.MaxDepth}
}

// decode reads one transmission and decodes its outermost packet.
func (o *options) decode(args []string) (packet.Packet, error) {
	hex, err := readTransmission(args, o.cfg.Input, o.stdin)
	if err != nil {
		return nil, err
	}
	seq, err := bits.FromHex(hex)
	if err != nil {
		observability.RecordDecode(0, err)
		return nil, err
	}
	p, next, err := packet.DecodeWithLimits(seq, 0, o.limits())
	observability.RecordDecode(next, err)
	if err != nil {
		log.Error().Err(err).Msg("decode failed")
		return nil, err
	}
	log.Debug().
		Int("bits", seq.Len()).
		Int("consumed", next).
		Int("packets", packet.Count(p)).
		Msg("decoded transmission")
	return p, nil
}

func (o *options) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [hex]",
		Short: "Print the version sum and the evaluated value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.decode(args)
			if err != nil {
				return err
			}
			value, err := eval.Evaluate(p)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version sum: %d\n", eval.VersionSum(p))
			fmt.Fprintf(out, "value: %d\n", value)
			return nil
		},
	}
}

func (o *options) sumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sum [hex]",
		Short: "Print the sum of every packet version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.decode(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), eval.VersionSum(p))
			return nil
		},
	}
}

func (o *options) evalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval [hex]",
		Short: "Print the value of the packet expression",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.decode(args)
			if err != nil {
				return err
			}
			value, err := eval.Evaluate(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func (o *options) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump [hex]",
		Short: "Print the decoded packet tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.decode(args)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), packet.Format(p))
			return nil
		},
	}
}

func (o *options) encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <binary>",
		Short: "Re-encode a packet given as 0/1 digits as a hex transmission",
		Long: "Decodes the packet at the start of the digit string and writes it back\n" +
			"with minimal literal groups and zero padding.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := bits.ParseBinary(args[0])
			if err != nil {
				return err
			}
			p, _, err := packet.DecodeWithLimits(seq, 0, o.limits())
			if err != nil {
				return err
			}
			hex, err := packet.EncodeHex(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex)
			return nil
		},
	}
}

func (o *options) batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Decode one transmission per input line concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readLines(o.cfg.Input, o.stdin)
			if err != nil {
				return err
			}
			workers := o.cfg.Workers
			if o.workers > 0 {
				workers = o.workers
			}
			results := batch.Run(context.Background(), lines, workers, o.limits())

			out := cmd.OutOrStdout()
			failed := 0
			for _, res := range results {
				observability.RecordDecode(res.Bits, res.Err)
				if res.Err != nil {
					failed++
					log.Error().Int("line", res.Line+1).Err(res.Err).Msg("transmission failed")
					fmt.Fprintf(out, "%d\terror\t%v\n", res.Line+1, res.Err)
					continue
				}
				fmt.Fprintf(out, "%d\t%d\t%d\n", res.Line+1, res.VersionSum, res.Value)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d transmissions failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&o.workers, "workers", "w", 0, "concurrent decoders (defaults to config)")
	return cmd
}

func (o *options) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the decoder over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				o.cfg.Server.Addr = addr
			}
			return server.New(o.cfg).Serve()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config)")
	return cmd
}

func (o *options) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bitsctl configuration files",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write an example configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(args[0], force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote config template to %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
