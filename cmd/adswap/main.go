// Command adswap replaces ad slots in web pages with scripture quotations.
//
// Usage:
//
//	adswap -config adswap.yaml             # filter pages from YAML config
//	adswap -url https://example.com        # single page, stdout reports
//	adswap -file page.html > out.html      # static filter, - for stdin
//	adswap -listen :8080                   # HTTP API only
//	adswap -mcp                            # MCP tools over stdio
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/adswap/pagefilter"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to adswap.yaml config file")
	singleURL := flag.String("url", "", "filter a single URL (stdout sink)")
	file := flag.String("file", "", "filter an HTML file to stdout (- for stdin)")
	listen := flag.String("listen", "", "HTTP API listen address (overrides config)")
	serveMCP := flag.Bool("mcp", false, "serve MCP tools over stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case *file != "":
		err = runFile(ctx, logger, *file)
	case *singleURL != "":
		err = runSingle(ctx, logger, *singleURL)
	case *configPath != "" || *listen != "" || *serveMCP:
		err = runDaemon(ctx, logger, *configPath, *listen, *serveMCP)
	default:
		fmt.Fprintln(os.Stderr, "usage: adswap -config <file> | -url <url> | -file <html> | -listen <addr> | -mcp")
		os.Exit(2)
	}
	if err != nil {
		logger.Error("adswap: fatal", "error", err)
		os.Exit(1)
	}
}

func runFile(ctx context.Context, logger *slog.Logger, path string) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	src, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	res, err := pagefilter.FilterStatic(ctx, string(src), pagefilter.StaticOptions{
		PageID:  path,
		PageURL: path,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	for _, rep := range res.Replacements {
		logger.Info("adswap: ad replaced", "selector", rep.Selector, "element", rep.Element, "ref", rep.Ref)
	}
	_, err = io.WriteString(os.Stdout, res.HTML)
	return err
}

func runSingle(ctx context.Context, logger *slog.Logger, url string) error {
	cfg := defaultConfig()
	cfg.Pages = []pagefilter.PageConfig{{ID: url, URL: url, Mode: pagefilter.ModeAuto}}

	f := pagefilter.New(cfg, logger, pagefilter.NewStdoutSink(nil))
	defer f.Stop()

	if err := f.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	// A static pass is done; a live tab runs until interrupted.
	for _, s := range f.Sessions() {
		if s.Mode == pagefilter.ModeBrowser {
			<-ctx.Done()
			break
		}
	}
	return nil
}

func runDaemon(ctx context.Context, logger *slog.Logger, configPath, listen string, serveMCP bool) error {
	cfg := defaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = pagefilter.LoadConfigFile(configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if listen != "" {
		cfg.HTTP.Listen = listen
	}

	sinks, err := pagefilter.OpenSinks(cfg.Sinks, logger)
	if err != nil {
		return err
	}
	if len(sinks) == 0 && !serveMCP {
		sinks = append(sinks, pagefilter.NewStdoutSink(nil))
	}

	f := pagefilter.New(cfg, logger, sinks...)
	defer f.Stop()

	if err := f.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	errCh := make(chan error, 2)
	if cfg.HTTP.Listen != "" {
		srv := &http.Server{Addr: cfg.HTTP.Listen, Handler: f.Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			logger.Info("adswap: http listening", "addr", cfg.HTTP.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http: %w", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()
	}

	if serveMCP {
		srv := mcp.NewServer(&mcp.Implementation{Name: "adswap", Version: version}, nil)
		f.RegisterMCP(srv)
		go func() {
			errCh <- srv.Run(ctx, &mcp.StdioTransport{})
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func defaultConfig() *pagefilter.Config {
	cfg := &pagefilter.Config{
		Browser: pagefilter.BrowserConfig{
			ResourceBlocking: []string{"images", "fonts", "media"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}
