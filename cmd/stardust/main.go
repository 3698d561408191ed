package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"stardust/internal/audio"
	"stardust/internal/desktop"
	"stardust/internal/headless"
	"stardust/internal/scene"
)

func main() {
	cfg := scene.DefaultConfig()
	var hcfg headless.Config
	var headlessMode, mute, script bool
	var seed uint64

	flag.BoolVar(&headlessMode, "headless", false, "Run without a window.")
	flag.IntVar(&hcfg.Hz, "hz", 60, "Tick rate in headless mode.")
	flag.Uint64Var(&hcfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.BoolVar(&script, "script", true, "Replay the demo input script in headless mode.")
	flag.BoolVar(&cfg.Fluid, "fluid", false, "Drive idle particles with the fluid solver instead of pointer repulsion.")
	flag.Uint64Var(&seed, "seed", 0, "Random seed (0 = $STARDUST_SEED or the clock).")
	flag.StringVar(&cfg.Text, "text", cfg.Text, "Text the particles form.")
	flag.IntVar(&cfg.Particles, "particles", cfg.Particles, "Particle count.")
	flag.BoolVar(&mute, "mute", false, "Disable audio cues.")
	flag.Parse()

	cfg.Seed = resolveSeed(seed)
	cfg.OnNavigate = func(url string) {
		fmt.Fprintf(os.Stderr, "navigate: %s\n", url)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	attach := func(*scene.System) {}
	if !mute {
		player, err := audio.New(0.5)
		if err != nil {
			fmt.Fprintf(os.Stderr, "audio init failed (continuing without sound): %v\n", err)
		} else {
			attach = func(s *scene.System) { player.Attach(s.Events()) }
		}
	}

	var err error
	if headlessMode {
		hcfg.Scene = cfg
		hcfg.Attach = attach
		hcfg.Report = os.Stderr
		hcfg.ReportEvery = uint64(max(hcfg.Hz, 1))
		if script {
			hcfg.Script = headless.DefaultScript()
		}
		err = headless.Run(ctx, hcfg)
	} else {
		err = desktop.Run(ctx, desktop.Options{Scene: cfg, Attach: attach})
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveSeed prefers the flag, then STARDUST_SEED, then the clock.
func resolveSeed(flagSeed uint64) uint64 {
	if flagSeed != 0 {
		return flagSeed
	}
	if s := os.Getenv("STARDUST_SEED"); s != "" {
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			return v
		}
		fmt.Fprintf(os.Stderr, "ignoring STARDUST_SEED=%q: not an unsigned integer\n", s)
	}
	return uint64(time.Now().UnixNano())
}
