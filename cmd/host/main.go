// Package main implements the screen-streaming host: it listens for a
// single viewer connection, captures the local screen, and runs an
// EncoderSession against it.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	"github.com/kulaginds/screenrelay/internal/capture"
	"github.com/kulaginds/screenrelay/internal/compress"
	"github.com/kulaginds/screenrelay/internal/config"
	"github.com/kulaginds/screenrelay/internal/frame"
	"github.com/kulaginds/screenrelay/internal/logging"
	"github.com/kulaginds/screenrelay/internal/quantize"
	"github.com/kulaginds/screenrelay/internal/session"
	"github.com/kulaginds/screenrelay/internal/transport"
)

var (
	appName    = "screenrelay host"
	appVersion = "dev" // injected at build time via -ldflags
)

type parsedArgs struct {
	listenAddr string
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
	fs := flag.NewFlagSet("host", flag.ContinueOnError)
	listenFlag := fs.String("listen", ":9000", "address to listen on for the viewer connection")
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
		listenAddr: strings.TrimSpace(*listenFlag),
		logLevel:   strings.TrimSpace(*logLevelFlag),
	}, ""
}

func run(args parsedArgs) error {
	cfg, err := config.LoadWithOverrides(config.LoadOptions{LogLevel: args.logLevel})
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

	ln, err := net.Listen("tcp", args.listenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer ln.Close()

	logging.Info("host listening on %s (screen %dx%d)", args.listenAddr, cfg.Session.ScreenWidth, cfg.Session.ScreenHeight)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		go handleViewer(conn, cfg)
	}
}

func handleViewer(conn net.Conn, cfg *config.Config) {
	defer conn.Close()

	t, err := transport.New(conn, cfg.Session.HeaderSize)
	if err != nil {
		logging.Error("build transport: %v", err)
		return
	}

	capturer := stillFrameCapturer{width: cfg.Session.ScreenWidth, height: cfg.Session.ScreenHeight}

	params := session.EncoderParams{
		Algorithm:       compress.Algorithm(cfg.Session.Algorithm),
		QuantiserKind:   quantize.Kind(cfg.Session.QuantiserKind),
		PaletteCacheDir: cfg.Session.PaletteCacheDir,
	}

	enc, err := session.NewEncoder(t, cfg.Session.ScreenWidth, cfg.Session.ScreenHeight, capturer, params)
	if err != nil {
		logging.Error("encoder handshake: %v", err)
		return
	}

	logging.Info("viewer connected from %s", conn.RemoteAddr())
	if err := enc.Run(); err != nil {
		logging.Warn("encoder session ended: %v", err)
	}
}

// stillFrameCapturer is the ScreenCapturer this host uses; no
// platform-specific capture backend is built in. It yields a single flat grey frame so the pipeline and transport can be
// exercised end to end without a real display attached.
type stillFrameCapturer struct {
	width, height int
}

func (c stillFrameCapturer) Capture() (frame.Frame, capture.Cursor, error) {
	f := frame.New(c.height, c.width, 3)
	for i := range f.Pix {
		f.Pix[i] = 128
	}
	return f, capture.Cursor{X: c.width / 2, Y: c.height / 2}, nil
}
