// yini-homepage: the YINI homepage and its playground.
//
// Commands:
//
//   - serve: the website, with the live playground over a WebSocket,
//   - build: static HTML for every page plus sitemap.txt,
//   - play: the playground in the terminal, and
//   - parse: a single evaluation printed to stdout.
//
// Usage:
//
//	yini-homepage [-config config.yaml] [-v] serve [-addr :8080] [-watch]
//	yini-homepage build public_html
//	yini-homepage play [file.yini]
//	yini-homepage parse [-strict] [-fail-level errors] [-meta] [-mode json] [file.yini]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	homepage "github.com/yini-lang/yini-homepage"
	"github.com/yini-lang/yini-homepage/config"
	"github.com/yini-lang/yini-homepage/logger"
	"github.com/yini-lang/yini-homepage/server"
	"github.com/yini-lang/yini-homepage/site"
	"github.com/yini-lang/yini-homepage/store"
	"github.com/yini-lang/yini-homepage/tui"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] [-v] serve|build|play|parse [args]\n", filepath.Base(os.Args[0]))
	flag.PrintDefaults()
}

func main() {
	cfgPath := flag.String("config", "", "path to config.yaml")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	// The terminal playground owns stderr while it runs.
	var logPath string
	if cmd == "play" && isatty.IsTerminal(os.Stderr.Fd()) {
		logPath = filepath.Join(os.TempDir(), "yini-homepage.log")
	}
	l, err := logger.New(*verbose, logPath)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	zap.ReplaceGlobals(l)
	defer l.Sync() //nolint:errcheck

	cfg, err := config.LoadOptional(*cfgPath)
	if err != nil {
		l.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()
	ctx = logger.NewContext(ctx, l)

	switch cmd {
	case "serve":
		err = serve(ctx, cfg, args)
	case "build":
		err = build(cfg, args)
	case "play":
		err = play(ctx, cfg, args)
	case "parse":
		var ok bool
		ok, err = parse(args, os.Stdin, os.Stdout, os.Stderr)
		if err == nil && !ok {
			l.Sync() //nolint:errcheck
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal(cmd, zap.Error(err))
	}
}

// loadSite builds the site described by cfg.
func loadSite(cfg *config.Config) (server.LoadFunc, error) {
	handlers, err := homepage.CompileFenceHandlers(cfg)
	if err != nil {
		return nil, fmt.Errorf("compile fence handlers: %w", err)
	}
	zap.L().Debug("fence handlers compiled", zap.Int("count", len(handlers)))
	siteCfg := site.DefaultConfig()
	siteCfg.Apply(cfg.Site)
	return func() (*site.Site, error) {
		return site.Load(cfg.ContentDir, siteCfg, handlers)
	}, nil
}

func serve(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Listen, "listen address")
	watch := fs.Bool("watch", false, "reload content when it changes")
	fs.Parse(args)

	load, err := loadSite(cfg)
	if err != nil {
		return err
	}
	st, err := load()
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.DataFile)
	if err != nil {
		return err
	}
	defer db.Close()

	s := server.New(cfg, st, server.WithStore(db))
	if *watch {
		go s.WatchContent(ctx, cfg.ContentDir, load)
	}
	return s.ListenAndServe(ctx, *addr)
}

func build(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: build <out dir>")
	}
	load, err := loadSite(cfg)
	if err != nil {
		return err
	}
	st, err := load()
	if err != nil {
		return err
	}
	if err := st.Build(args[0], cfg.BaseURL); err != nil {
		return err
	}
	zap.L().Info("site built", zap.String("out", args[0]), zap.Int("pages", len(st.Pages)))
	return nil
}

func play(ctx context.Context, cfg *config.Config, args []string) error {
	log := logger.L(ctx)

	var storage homepage.Storage
	if db, err := store.Open(cfg.DataFile); err != nil {
		log.Warn("drafts will not be saved", zap.Error(err))
	} else {
		defer db.Close()
		storage = db.Bucket(store.LocalID)
	}

	text := homepage.InitialText(nil, storage)
	if len(args) > 0 {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		text = string(src)
	}

	opts := []homepage.ControllerOption{
		homepage.WithStorage(storage),
		homepage.WithClipboard(tui.SystemClipboard{}),
		homepage.WithLogger(log),
	}
	if cfg.Debounce > 0 {
		opts = append(opts, homepage.WithQuietPeriod(cfg.Debounce))
	}
	_, err := tui.Run(ctx, tui.New(homepage.NewStore(text), homepage.YINI, opts...))
	return err
}

// parse evaluates one document and reports whether it parsed.
func parse(args []string, stdin io.Reader, stdout, stderr io.Writer) (bool, error) {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := homepage.DefaultOptions()
	fs.BoolVar(&opts.StrictMode, "strict", false, "strict mode")
	failLevel := fs.String("fail-level", string(opts.FailLevel), "ignore-errors, errors or warnings-and-errors")
	fs.BoolVar(&opts.IncludeMetadata, "meta", false, "include metadata")
	fs.BoolVar(&opts.IncludeDiagnostics, "diagnostics", opts.IncludeDiagnostics, "include diagnostics in metadata")
	mode := fs.String("mode", string(homepage.ModeJSON), "output mode: json, pojo or meta")
	if err := fs.Parse(args); err != nil {
		return false, err
	}

	var err error
	if opts.FailLevel, err = homepage.ParseFailLevel(*failLevel); err != nil {
		return false, err
	}
	m, err := homepage.ParseOutputMode(*mode)
	if err != nil {
		return false, err
	}

	in := stdin
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return false, err
		}
		defer f.Close()
		in = f
	}
	src, err := io.ReadAll(in)
	if err != nil {
		return false, err
	}

	res := homepage.Evaluate(homepage.YINI, homepage.State{Text: string(src), Options: opts, Mode: m})
	if res.State == homepage.ShowingError {
		fmt.Fprintln(stderr, res.Error)
		return false, nil
	}
	fmt.Fprintln(stdout, res.Output)
	return true, nil
}
