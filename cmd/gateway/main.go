// Package main implements the browser-facing gateway: an HTTP server that
// upgrades incoming requests to websockets and bridges them to a
// screen-streaming host via internal/webrelay.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kulaginds/screenrelay/internal/compress"
	"github.com/kulaginds/screenrelay/internal/config"
	"github.com/kulaginds/screenrelay/internal/logging"
	"github.com/kulaginds/screenrelay/internal/quantize"
	"github.com/kulaginds/screenrelay/internal/webrelay"
)

var (
	appName    = "screenrelay gateway"
	appVersion = "dev" // injected at build time via -ldflags
)

type parsedArgs struct {
	listenHost string
	listenPort string
	hostAddr   string
	logLevel   string
}

func main() {
	args, action := parseFlags()
	if action != "" {
		return
	}
	if err := run(args); err != nil {
		log.Fatalln(err)
	}
}

func parseFlags() (parsedArgs, string) {
	return parseFlagsWithArgs(os.Args[1:])
}

func parseFlagsWithArgs(args []string) (parsedArgs, string) {
	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	listenHostFlag := fs.String("listen-host", "", "HTTP listen host (overrides SERVER_HOST)")
	listenPortFlag := fs.String("listen-port", "", "HTTP listen port (overrides SERVER_PORT)")
	hostAddrFlag := fs.String("rdp-host", "localhost:9000", "TCP address of the screen-streaming host")
	logLevelFlag := fs.String("log-level", "", "log level (debug, info, warn, error)")
	helpFlag := fs.Bool("help", false, "show help")
	versionFlag := fs.Bool("version", false, "show version")

	_ = fs.Parse(args)

	if *helpFlag {
		fs.PrintDefaults()
		return parsedArgs{}, "help"
	}
	if *versionFlag {
		fmt.Printf("%s %s\n", appName, appVersion)
		return parsedArgs{}, "version"
	}

	return parsedArgs{
		listenHost: strings.TrimSpace(*listenHostFlag),
		listenPort: strings.TrimSpace(*listenPortFlag),
		hostAddr:   strings.TrimSpace(*hostAddrFlag),
		logLevel:   strings.TrimSpace(*logLevelFlag),
	}, ""
}

func run(args parsedArgs) error {
	cfg, err := config.LoadWithOverrides(config.LoadOptions{
		Host:     args.listenHost,
		Port:     args.listenPort,
		LogLevel: args.logLevel,
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.SetLevelFromString(cfg.Logging.Level)
	if cfg.Logging.File != "" {
		logging.SetFile(logging.FileConfig{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		})
	}

	params := webrelay.Params{
		Algorithm:       compress.Algorithm(cfg.Session.Algorithm),
		QuantiserKind:   quantize.Kind(cfg.Session.QuantiserKind),
		PaletteCacheDir: cfg.Session.PaletteCacheDir,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", webrelay.Handler(args.hostAddr, cfg.Session.HeaderSize, params))

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("gateway listening on %s, bridging to host %s", addr, args.hostAddr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-sigCh:
		logging.Info("shutting down gateway")
		return srv.Shutdown(context.Background())
	}
}
