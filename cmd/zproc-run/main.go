package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/tomb.v2"
	"gopkg.in/yaml.v2"

	"github.com/gregfurman/zproc"
	"github.com/gregfurman/zproc/process"
)

// bindingsConfig is the shape of the --config manifest: where the child's
// streams go and what it runs with, as an alternative to repeating flags.
type bindingsConfig struct {
	WorkDir string            `yaml:"workdir"`
	Env     map[string]string `yaml:"env"`
	Stdout  string            `yaml:"stdout"`
	Stderr  string            `yaml:"stderr"`
	Stdin   string            `yaml:"stdin"`
}

type cmdRoot struct {
	flagShell  string
	flagConfig string
	flagDebug  bool
}

func (c *cmdRoot) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zproc-run [flags] -- command [args...]",
		Short: "Launch and supervise one external process",
		Args:  cobra.ArbitraryArgs,
		RunE:  c.run,
	}

	cmd.Flags().StringVar(&c.flagShell, "shell", "", "Parse the command line from a single shell-style string instead of positional args")
	cmd.Flags().StringVar(&c.flagConfig, "config", "", "YAML manifest for working directory, environment and stream bindings")
	cmd.Flags().BoolVar(&c.flagDebug, "debug", false, "Log pump and fork activity")

	return cmd
}

func (c *cmdRoot) run(cmd *cobra.Command, args []string) error {
	argv := args
	if c.flagShell != "" {
		parsed, err := shellquote.Split(c.flagShell)
		if err != nil {
			return fmt.Errorf("parse --shell: %w", err)
		}
		argv = parsed
	}
	if len(argv) == 0 {
		return fmt.Errorf("no command given: pass positional arguments or --shell")
	}

	var cfg bindingsConfig
	if c.flagConfig != "" {
		raw, err := os.ReadFile(c.flagConfig)
		if err != nil {
			return fmt.Errorf("read --config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("parse --config: %w", err)
		}
	}

	sup := zproc.New(process.NewArguments(argv...))
	if c.flagDebug {
		sup.Logger().SetLevel(logrus.DebugLevel)
	}
	if cfg.WorkDir != "" {
		sup.SetWorkDir(cfg.WorkDir)
	}
	if len(cfg.Env) > 0 {
		sup.SetEnvironment(process.NewEnvironment(cfg.Env))
	}

	fp := process.NewFeatureProcess()
	opts := []zproc.Option{zproc.With(fp)}

	if cfg.Stdout != "" {
		out, err := process.OpenFile(cfg.Stdout, false, true, true)
		if err != nil {
			return fmt.Errorf("open stdout binding: %w", err)
		}
		opts = append(opts, zproc.Consume(process.NewFileConsumer(out), process.Stdout))
	}
	if cfg.Stderr != "" {
		errOut, err := process.OpenFile(cfg.Stderr, false, true, true)
		if err != nil {
			return fmt.Errorf("open stderr binding: %w", err)
		}
		opts = append(opts, zproc.Consume(process.NewFileConsumer(errOut), process.Stderr))
	}
	if cfg.Stdin != "" {
		in, err := process.OpenFile(cfg.Stdin, true, false, false)
		if err != nil {
			return fmt.Errorf("open stdin binding: %w", err)
		}
		opts = append(opts, zproc.Produce(process.NewFileProducer(in), process.Stdin))
	}

	// A tomb-supervised goroutine forwards Ctrl-C / SIGTERM into a graceful
	// FeatureProcess.Stop() instead of letting the signal kill zproc-run
	// itself out from under the child.
	var t tomb.Tomb
	t.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
			return fp.Stop()
		case <-t.Dying():
			return nil
		}
	})

	status, err := sup.Run(opts...)

	t.Kill(nil)
	_ = t.Wait()

	if err != nil {
		return err
	}

	os.Exit(status)
	return nil
}

func main() {
	root := &cmdRoot{}
	if err := root.command().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "zproc-run:", err)
		os.Exit(1)
	}
}
