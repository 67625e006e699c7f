// Copyright The Mantle Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/pkg/capnslog"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/flatcar/servedist/cli"
	"github.com/flatcar/servedist/fileserver"
)

var (
	plog = capnslog.NewPackageLogger("github.com/flatcar/servedist", "servedist")

	root = &cobra.Command{
		Use:   "servedist",
		Short: "Serve a directory of static files over HTTP",
		Long: `Serve a directory of static files over HTTP until interrupted.

Directories are answered with their index.html when present and with a
listing otherwise. Settings may also be read from a YAML file given with
--config; flags given on the command line take precedence over it.
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return &cli.UsageError{Err: err}
			}
			return nil
		},
		RunE: runServe,
	}

	opts = serveOptions{}
)

type serveOptions struct {
	configFile      string
	address         string
	port            int
	dir             string
	maxConns        int
	shutdownTimeout time.Duration
}

func init() {
	addFlags(root.Flags(), &opts)
}

func addFlags(fs *pflag.FlagSet, o *serveOptions) {
	def := fileserver.DefaultConfig()
	fs.StringVar(&o.configFile, "config", "", "YAML file with server settings")
	fs.StringVar(&o.address, "bind", def.Address, "interface address to bind, all interfaces when empty")
	fs.IntVarP(&o.port, "port", "p", def.Port, "port to listen on")
	fs.StringVar(&o.dir, "dir", def.Root, "directory to serve files from")
	fs.IntVar(&o.maxConns, "max-conns", def.MaxConns, "maximum simultaneous connections, unlimited when 0")
	fs.DurationVar(&o.shutdownTimeout, "shutdown-timeout", def.ShutdownTimeout, "time allowed for in-flight requests on shutdown")
}

func main() {
	cli.Execute(root)
}

// buildConfig layers defaults, the optional config file and explicitly
// set flags, in that order.
func buildConfig(flags *pflag.FlagSet, o serveOptions) (fileserver.Config, error) {
	cfg := fileserver.DefaultConfig()
	if o.configFile != "" {
		var err error
		if cfg, err = fileserver.LoadConfig(o.configFile, cfg); err != nil {
			return cfg, err
		}
	}

	if flags.Changed("bind") {
		cfg.Address = o.address
	}
	if flags.Changed("port") {
		cfg.Port = o.port
	}
	if flags.Changed("dir") {
		cfg.Root = o.dir
	}
	if flags.Changed("max-conns") {
		cfg.MaxConns = o.maxConns
	}
	if flags.Changed("shutdown-timeout") {
		cfg.ShutdownTimeout = o.shutdownTimeout
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	return serve(cmd, opts)
}

// serve runs the server until cmd's context is cancelled or an
// interrupt arrives. Only the first interrupt is caught; a second one
// kills the process while shutdown is still waiting on requests.
func serve(cmd *cobra.Command, o serveOptions) error {
	cfg, err := buildConfig(cmd.Flags(), o)
	if err != nil {
		return err
	}

	srv, err := fileserver.New(cfg)
	if err != nil {
		return err
	}
	defer srv.Destroy()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	srv.OnShutdown(func() {
		stop()
		status(out, "\nStopping web server...")
	})

	status(out, "Serving files from directory: %s", srv.Root())

	if err := srv.Listen(ctx); err != nil {
		return err
	}
	status(out, "Web server started at %s", srv.URL())
	status(out, "Press Ctrl+C to stop the server.")

	if err := srv.Serve(ctx); err != nil {
		return err
	}

	srv.Destroy()
	status(out, "Web server stopped.")
	plog.Debugf("Exiting cleanly")
	return nil
}

var statusColor = color.New(color.FgCyan)

func status(w io.Writer, format string, args ...interface{}) {
	statusColor.Fprintf(w, format, args...)
	fmt.Fprintln(w)
}
