package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jcorbin/gogpm/internal/logio"
)

var logger = logio.NewLogger(os.Stderr)

var rootCmd = &cobra.Command{
	Use:   "gpm [file...]",
	Short: "GPM: the General Purpose Macrogenerator",
	Long: `gpm expands text through the General Purpose Macrogenerator.

Input is read from the named files in order, or from standard input if none
are given; "-" names standard input. Expansion stops at an unquoted ">" at
top level, which every input must eventually supply.

Notation:
  $DEF,NAME,<text>;     define NAME; quotes keep the text from expanding now
  $NAME,arg1,arg2;      call NAME; ~1 in its text stands for arg1, ~0 for NAME
  <...>                 quoted text, copied with one level of quotes removed
  >                     end of input

Machine macros: DEF VAL UPDATE BIN DEC BAR`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		return expandFiles(cmd.Context(), cfg, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump [file...]",
	Short: "Expand input, then dump the machine's memory",
	Long: `Expand input like gpm does, then describe the machine's registers,
environment, any calls in progress, and memory on standard output; the
description is written whether or not expansion succeeded.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		vm, err := newFileVM(cfg, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer vm.Close()
		err = runVM(cmd.Context(), cfg, vm)
		fmt.Fprintln(cmd.OutOrStdout())
		if derr := vm.Dump(cmd.OutOrStdout()); err == nil {
			err = derr
		}
		return err
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	bindConfigFlags(rootCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(replCmd)
}

func main() {
	logger.ErrorIf(rootCmd.ExecuteContext(context.Background()))
	os.Exit(logger.ExitCode())
}

func expandFiles(ctx context.Context, cfg config, args []string, stdin io.Reader, stdout, stderr io.Writer) (rerr error) {
	vm, err := newFileVM(cfg, args, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := vm.Close(); rerr == nil {
			rerr = cerr
		}
	}()
	err = runVM(ctx, cfg, vm)
	if err != nil && cfg.Dump {
		vm.Dump(stderr)
	}
	return err
}

func newFileVM(cfg config, args []string, stdin io.Reader, stdout, stderr io.Writer) (*VM, error) {
	var inputs []io.Reader
	if len(args) == 0 {
		inputs = append(inputs, NamedReader("<stdin>", stdin))
	}
	for _, name := range args {
		if name == "-" {
			inputs = append(inputs, NamedReader("<stdin>", stdin))
			continue
		}
		f, err := os.Open(name)
		if err != nil {
			for _, in := range inputs {
				if cl, ok := in.(io.Closer); ok {
					cl.Close()
				}
			}
			return nil, fmt.Errorf("failed to open %v: %w", name, err)
		}
		inputs = append(inputs, f)
	}
	opts := cfg.options(stdout, stderr, logger)
	opts = append(opts, WithInputs(inputs...))
	return New(opts...), nil
}

func runVM(ctx context.Context, cfg config, vm *VM) error {
	if cfg.Timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	err := vm.Run(ctx)
	if errors.Is(err, errUnexpectedEOF) {
		err = fmt.Errorf("%w at %v", err, vm.Last.Location)
	}
	return err
}
