package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"chatrelay-go/internal/config"
	store "chatrelay-go/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		fail(errors.New("usage: storageutil <seed|dump> [flags]"))
	}
	cmd, args := os.Args[1], os.Args[2:]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	timeout := fs.Duration("timeout", 30*time.Second, "operation timeout")
	file := fs.String("file", "", "seed file (yaml); stdin when empty")
	chatID := fs.String("chat", "", "chat id to dump")
	upTo := fs.Int64("upto", math.MaxInt64, "highest position to include when dumping")
	raw := fs.Bool("raw", false, "dump stored messages without selection")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(fmt.Errorf("load configuration: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	backend, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		fail(fmt.Errorf("open storage: %w", err))
	}
	defer backend.Close()

	switch cmd {
	case "seed":
		in, closeIn, err := openInput(*file)
		if err != nil {
			fail(err)
		}
		defer closeIn()
		chat, n, err := seed(ctx, backend, in)
		if err != nil {
			fail(err)
		}
		fmt.Printf("seeded %d message(s) into chat %s\n", n, chat)
	case "dump":
		if *chatID == "" {
			fail(errors.New("dump requires -chat"))
		}
		if err := dump(ctx, backend, os.Stdout, *chatID, *upTo, *raw); err != nil {
			fail(err)
		}
	default:
		fail(fmt.Errorf("unknown command %q (expected seed|dump)", cmd))
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "storageutil:", err)
	os.Exit(1)
}
