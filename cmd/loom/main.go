// Command loom offline-renders a loomcycle program to a WAV file.
package main

import (
	"flag"
	"fmt"
	"os"

	"loomcycle/internal/config"
	"loomcycle/internal/debug"
	"loomcycle/internal/engine"
	"loomcycle/internal/samplebank"
)

func main() {
	programPath := flag.String("program", "", "Path to a loomcycle program file (.loom)")
	manifestPath := flag.String("manifest", "", "Path to a sample bank manifest (YAML)")
	configPath := flag.String("config", "", "Path to a YAML config file (overrides defaults)")
	outPath := flag.String("out", "out.wav", "Path to write the rendered WAV file")
	duration := flag.Float64("duration", 4.0, "Render duration in seconds")
	sampleRate := flag.Int("samplerate", 44100, "Sample rate in Hz")
	blockSize := flag.Int("blocksize", 512, "Render block size in samples")
	logLevel := flag.Bool("log", false, "Enable logging (disabled by default)")
	flag.Parse()

	if *programPath == "" {
		fmt.Println("Usage: loom -program <path-to-program.loom>")
		fmt.Println("  -program <path>    Path to a loomcycle program file")
		fmt.Println("  -manifest <path>   Path to a sample bank manifest (YAML)")
		fmt.Println("  -config <path>     Path to a YAML config file")
		fmt.Println("  -out <path>        Path to write the rendered WAV file (default out.wav)")
		fmt.Println("  -duration <secs>   Render duration in seconds (default 4.0)")
		fmt.Println("  -log               Enable logging (disabled by default)")
		os.Exit(1)
	}

	source, err := os.ReadFile(*programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading program file: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.LoadYAML(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.SampleRate = *sampleRate
	cfg.BlockSize = *blockSize
	if *manifestPath != "" {
		cfg.ManifestPath = *manifestPath
	}

	var logger *debug.Logger
	if *logLevel {
		logger = debug.NewLogger(10000)
		logger.SetComponentEnabled(debug.ComponentEngine, true)
		logger.SetComponentEnabled(debug.ComponentGraph, true)
		logger.SetComponentEnabled(debug.ComponentDSP, true)
		logger.SetComponentEnabled(debug.ComponentScheduler, true)
		logger.SetMinLevel(debug.LogLevelDebug)
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
		os.Exit(1)
	}
	if err := eng.LoadProgram(string(source)); err != nil {
		fmt.Fprintf(os.Stderr, "Error compiling program: %v\n", err)
		os.Exit(1)
	}

	frames := eng.Render(*duration)
	if err := samplebank.WriteWAV(*outPath, frames, cfg.SampleRate, 2); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendered %.2fs (%d samples) to %s\n", *duration, len(frames)/2, *outPath)
}
