// snapctl talks to a running snapocr server over gRPC
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/GriffinCanCode/snapocr/internal/config"
	"github.com/GriffinCanCode/snapocr/internal/grpcclient"
)

const usage = `usage: snapctl [flags] <command> [args]

commands:
  ocr <file>   recognize text in an image file
  capture      capture every display on the server host
  last         show the most recent capture
  clear        drop the most recent capture

flags:
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("snapctl", flag.ExitOnError)
	addr := fs.String("addr", dialAddr(cfg.GRPCAddr), "server gRPC address")
	lang := fs.String("lang", "", "OCR language hint (e.g. zh-CN, en)")
	timeout := fs.Duration("timeout", time.Minute, "request timeout")
	textOnly := fs.Bool("text", false, "print only recognized text for ocr")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	client, err := grpcclient.New(*addr)
	if err != nil {
		slog.Error("failed to create client", "addr", *addr, "error", err)
		os.Exit(1)
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, client, os.Stdout, fs.Args(), *lang, *textOnly); err != nil {
		fmt.Fprintln(os.Stderr, "snapctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *grpcclient.Client, out io.Writer, args []string, lang string, textOnly bool) error {
	switch args[0] {
	case "ocr":
		if len(args) != 2 {
			return fmt.Errorf("ocr needs exactly one file")
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		res, err := c.Recognize(ctx, data, lang)
		if err != nil {
			return err
		}
		if textOnly {
			_, err = fmt.Fprintln(out, res.Text)
			return err
		}
		return printJSON(out, res)
	case "capture":
		records, err := c.Capture(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, records)
	case "last":
		records, err := c.LastCaptures(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, records)
	case "clear":
		return c.ClearCaptures(ctx)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// dialAddr turns a listen address like ":8766" into one a client can dial.
func dialAddr(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "localhost" + listen
	}
	return listen
}
