package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/dataobjects/internal/acquisition"
	"github.com/zeusync/dataobjects/internal/config"
	"github.com/zeusync/dataobjects/internal/injector"
)

func main() {
	path := flag.String("config", "", "YAML or TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	rt, err := injector.InitializeRuntime(cfg)
	if err != nil {
		fmt.Println("Error initializing runtime:", err)
		os.Exit(1)
	}
	defer rt.Close()

	p, err := acquisition.New(rt.Registry, cfg)
	if err != nil {
		fmt.Println("Error creating pipeline:", err)
		return
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports, err := p.Run(ctx)
	if err != nil && ctx.Err() == nil {
		fmt.Println("Error running acquisition:", err)
	}

	mirrored := 0
	for _, r := range reports {
		if r.Mirrored {
			mirrored++
		}
	}
	fmt.Printf("Acquired %d frames, %d mirrored, %d entities registered\n",
		len(reports), mirrored, rt.Registry.Len())
}
