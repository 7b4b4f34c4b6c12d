package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/claude/repcoach/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "RepCoach server URL (e.g. https://repcoach.tail1234.ts.net)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repcoach-mcp", Version)
		return
	}

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: repcoach-mcp -server <URL>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Logs go to stderr; stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ds := mcp.NewHTTPClient(strings.TrimRight(*serverURL, "/"))
	s := mcp.New(ds, Version, log)

	log.Info("repcoach-mcp starting", "server", *serverURL, "version", Version)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server exited", "error", err)
		os.Exit(1)
	}
}
