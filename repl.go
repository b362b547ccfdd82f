package main

import (
	"errors"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Expand lines typed at an interactive prompt",
	Long: `Start an interactive session: each line typed is fed to the
macrogenerator as input, and expanded output appears as soon as the machine
asks for more input. Definitions persist for the whole session.

Type ">" at top level, or Ctrl-D, to end the session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		rl, err := readline.NewEx(&readline.Config{
			Prompt:      "gpm> ",
			Stdout:      cmd.ErrOrStderr(),
			Stderr:      cmd.ErrOrStderr(),
			HistoryFile: historyPath(),
		})
		if err != nil {
			return err
		}
		defer rl.Close()

		opts := cfg.options(cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
		opts = append(opts, WithInput(&lineReader{rl: rl}))
		vm := New(opts...)
		defer vm.Close()

		if err := runVM(cmd.Context(), cfg, vm); !errors.Is(err, errUnexpectedEOF) {
			if err != nil && cfg.Dump {
				vm.Dump(cmd.ErrOrStderr())
			}
			return err
		}
		return nil
	},
}

// lineSource is the part of a readline.Instance that lineReader uses.
type lineSource interface {
	ReadSlice() ([]byte, error)
}

// lineReader adapts interactive line reading into an io.Reader; an
// interrupted line is discarded, and reading ends with io.EOF.
type lineReader struct {
	rl  lineSource
	buf []byte
}

func (lr *lineReader) Name() string { return "<repl>" }

func (lr *lineReader) Read(p []byte) (int, error) {
	for len(lr.buf) == 0 {
		line, err := lr.rl.ReadSlice()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return 0, err
		}
		lr.buf = append(append(lr.buf[:0], line...), '\n')
	}
	n := copy(p, lr.buf)
	lr.buf = lr.buf[n:]
	return n, nil
}
