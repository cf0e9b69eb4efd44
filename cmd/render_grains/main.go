package main

import (
	"flag"
	"log"
	"os"

	"github.com/cbegin/grainfm-go"
	"github.com/cbegin/grainfm-go/internal/grain"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML parameter file")
		seconds    = flag.Float64("seconds", 10, "length of the render")
		outPath    = flag.String("out", "grains.wav", "output WAV path")
	)
	flag.Parse()

	params := grain.DefaultParams()
	if *configPath != "" {
		var err error
		if params, err = grainfm.LoadParams(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *seconds <= 0 {
		log.Fatalf("invalid -seconds %v", *seconds)
	}
	if params.SampleRate != float64(int(params.SampleRate)) {
		log.Fatalf("sample rate %v is not an integer", params.SampleRate)
	}

	frames := int(params.SampleRate * *seconds)
	pcm, err := grainfm.RenderPCM16(params, frames)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := grainfm.WriteWAV(f, int(params.SampleRate), pcm); err != nil {
		f.Close()
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d frames to %s", frames, *outPath)
}
