package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/yokitheyo/formupload/internal/config"
	"github.com/yokitheyo/formupload/internal/form"
	"github.com/yokitheyo/formupload/internal/navigate"
	"github.com/yokitheyo/formupload/internal/upload"
	"github.com/yokitheyo/formupload/internal/view"
)

const defaultConfig = "config.yaml"

// listFlag collects a repeatable flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("uploader", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML config file (default ./config.yaml if present)")
		envFile    = fs.String("env", ".env", "dotenv file")
		action     = fs.String("action", "", "form action URL")
		timeout    = fs.Duration("timeout", 0, "upload timeout (default 5m)")
		locale     = fs.String("locale", "", "message locale: en or zh")
		browser    = fs.Bool("browser", false, "open the redirect target in Chrome")
		headless   = fs.Bool("headless", false, "run Chrome headless with -browser")
		outPath    = fs.String("out", "", "write the redirect target page to this file (- for stdout)")
		quiet      = fs.Bool("quiet", false, "do not draw the progress bar")
		fields     listFlag
		files      listFlag
	)
	fs.Var(&fields, "field", "form field name=value (repeatable)")
	fs.Var(&files, "file", "file input field=path (repeatable)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(stderr, "env error: %v\n", err)
		return 1
	}
	path := *configPath
	if path == "" {
		if _, err := os.Stat(defaultConfig); err == nil {
			path = defaultConfig
		}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}
	if *action != "" {
		cfg.Upload.Action = *action
	}
	if *timeout > 0 {
		// Round up: a sub-millisecond value must not fall back to the default.
		cfg.Upload.TimeoutMS = int((*timeout + time.Millisecond - 1) / time.Millisecond)
	}
	if *locale != "" {
		cfg.UI.Locale = *locale
	}

	logger, err := newLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}
	msgs, err := cfg.Messages()
	if err != nil {
		logger.Error("invalid messages", "error", err)
		return 1
	}

	f := cfg.Form()
	if f == nil {
		// Nothing to submit.
		return 0
	}
	for _, v := range fields {
		fld, err := form.ParseField(v)
		if err != nil {
			logger.Error("invalid -field", "error", err)
			return 2
		}
		f.Fields = append(f.Fields, fld)
	}
	for _, v := range files {
		file, err := form.ParseFile(v)
		if err != nil {
			logger.Error("invalid -file", "error", err)
			return 2
		}
		f.Files = append(f.Files, file)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		logger.Error("cannot create cookie jar", "error", err)
		return 1
	}
	client := &http.Client{Jar: jar}

	out, closeOut, err := openOut(*outPath, stdout)
	if err != nil {
		logger.Error("cannot open output", "path", *outPath, "error", err)
		return 1
	}
	defer closeOut()

	var nav navigate.Navigator = &navigate.HTTPNavigator{Client: client, Base: f.Action, Out: out, Logger: logger}
	if *browser {
		nav = &navigate.ChromeNavigator{Base: f.Action, Jar: jar, Headless: *headless, Logger: logger}
	}

	term := view.NewTerminal(stderr)
	var v view.View = term
	if *quiet {
		v = &view.Recorder{}
	}

	h := upload.NewHandler(client, v, nav, upload.Options{
		Timeout:  cfg.Timeout(),
		Messages: msgs,
		Logger:   logger,
	})
	u, err := h.Bind(f).Submit(ctx)
	if err != nil {
		logger.Error("submit failed", "error", err)
		return 1
	}

	info, err := u.Wait(context.Background())
	term.Finish()
	if *quiet {
		if text := v.(*view.Recorder).Readout().Text; text != "" {
			fmt.Fprintln(stderr, text)
		}
	}
	if err != nil || !info.Phase.Succeeded() {
		return 1
	}
	return 0
}

func openOut(path string, stdout io.Writer) (io.Writer, func(), error) {
	switch path {
	case "":
		return nil, func() {}, nil
	case "-":
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q", format)
}
