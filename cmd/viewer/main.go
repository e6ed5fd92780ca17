// Package main implements the screen-streaming viewer: it dials a host,
// runs a DecoderSession against it, and renders each delivered frame to a
// PNG snapshot on disk.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"net"
	"os"
	"strings"
	"time"

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
	appName    = "screenrelay viewer"
	appVersion = "dev" // injected at build time via -ldflags
)

type parsedArgs struct {
	hostAddr string
	outPath  string
	logLevel string
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
	fs := flag.NewFlagSet("viewer", flag.ContinueOnError)
	hostFlag := fs.String("host", "localhost:9000", "host address to dial")
	outFlag := fs.String("out", "snapshot.png", "path to write the latest rendered frame")
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
		hostAddr: strings.TrimSpace(*hostFlag),
		outPath:  strings.TrimSpace(*outFlag),
		logLevel: strings.TrimSpace(*logLevelFlag),
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

	conn, err := net.DialTimeout("tcp", args.hostAddr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("dial host: %w", err)
	}
	defer conn.Close()

	t, err := transport.New(conn, cfg.Session.HeaderSize)
	if err != nil {
		return fmt.Errorf("build transport: %w", err)
	}

	renderer := &pngSnapshotRenderer{path: args.outPath}

	params := session.DecoderParams{
		Algorithm:       compress.Algorithm(cfg.Session.Algorithm),
		QuantiserKind:   quantize.Kind(cfg.Session.QuantiserKind),
		PaletteCacheDir: cfg.Session.PaletteCacheDir,
	}

	dec, err := session.NewDecoder(t, cfg.Session.PaletteSize, cfg.Session.ScalePercent, renderer, params)
	if err != nil {
		return fmt.Errorf("decoder handshake: %w", err)
	}

	logging.Info("connected to host %s, writing snapshots to %s", args.hostAddr, args.outPath)
	return dec.Run(cfg.Session.RefreshTick)
}

// pngSnapshotRenderer implements capture.Renderer by overwriting a single
// PNG file with each delivered frame. It is the default (non-windowed)
// renderer; a real UI renderer would implement the same interface.
type pngSnapshotRenderer struct {
	path string
}

func (r *pngSnapshotRenderer) Deliver(f frame.Frame, cursor capture.Cursor) error {
	img := toRGBAImage(f)

	tmp := r.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

func toRGBAImage(f frame.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			px := f.At(y, x)
			var c color.RGBA
			if f.Channels == 1 {
				c = color.RGBA{R: px[0], G: px[0], B: px[0], A: 0xFF}
			} else {
				c = color.RGBA{R: px[0], G: px[1], B: px[2], A: 0xFF}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
