package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"golang.org/x/term"

	"github.com/cbegin/grainfm-go"
	"github.com/cbegin/grainfm-go/internal/grain"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a TOML parameter file")
		backendName = flag.String("backend", "ebiten", "audio backend: ebiten|oto|beep")
		seconds     = flag.Float64("seconds", 0, "stop after N seconds (0 = until interrupted)")
		seed        = flag.Uint("seed", 0, "override the trigger seed")
		density     = flag.Uint("density", 0, "override the onset density in samples")
		feedback    = flag.Float64("feedback", 0, "override the delay feedback gain [0, 1)")
		volume      = flag.Float64("volume", 1.0, "master volume scalar")
	)
	flag.Parse()

	params, err := resolveParams(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			params.Seed = uint32(*seed)
		case "density":
			params.Density = uint32(*density)
		case "feedback":
			params.FeedbackGain = *feedback
		}
	})

	backend, err := grainfm.ParseBackend(*backendName)
	if err != nil {
		log.Fatal(err)
	}
	pl, err := grainfm.NewPlayer(grainfm.WithParams(params), grainfm.WithBackend(backend))
	if err != nil {
		log.Fatal(err)
	}
	pl.SetMasterVolume(*volume)
	if err := pl.Start(); err != nil {
		log.Fatal(err)
	}
	log.Printf("playing %d voice groups at %d Hz via %s", len(pl.Params().CarrierFreqs), pl.SampleRate(), backend)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	var deadline <-chan time.Time
	if *seconds > 0 {
		deadline = time.After(time.Duration(*seconds * float64(time.Second)))
	}
	status := term.IsTerminal(int(os.Stdout.Fd()))
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-interrupt:
			break loop
		case <-deadline:
			break loop
		case <-ticker.C:
			if status {
				printStatus(pl)
			}
		}
	}
	if status {
		fmt.Println()
	}
	if err := pl.Stop(); err != nil {
		log.Fatal(err)
	}
	s := pl.Stats()
	log.Printf("stopped: %d grains started, %d dropped", s.Started, s.Dropped)
}

func resolveParams(path string) (grain.Params, error) {
	if path == "" {
		return grain.DefaultParams(), nil
	}
	return grainfm.LoadParams(path)
}

func printStatus(pl *grainfm.Player) {
	s := pl.Stats()
	pos := time.Duration(pl.PlaybackPosition()) * time.Second / time.Duration(pl.SampleRate())
	fmt.Printf("\r%8s  voices %3d  started %7d  dropped %7d", pos.Truncate(100*time.Millisecond), pl.ActiveVoices(), s.Started, s.Dropped)
}
