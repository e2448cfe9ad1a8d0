// Command loomlive runs loomcycle online against a real audio device,
// reloading its program from stdin line by line: each blank-line-terminated
// block of input is compiled and staged as the next rig, the way a
// live-coding performer edits and re-submits a buffer (spec.md §6).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"loomcycle/internal/audiodevice"
	"loomcycle/internal/config"
	"loomcycle/internal/debug"
	"loomcycle/internal/engine"
)

func main() {
	manifestPath := flag.String("manifest", "", "Path to a sample bank manifest (YAML)")
	configPath := flag.String("config", "", "Path to a YAML config file (overrides defaults)")
	sampleRate := flag.Int("samplerate", 44100, "Sample rate in Hz")
	blockSize := flag.Int("blocksize", 512, "Render block size in samples")
	logLevel := flag.Bool("log", false, "Enable logging (disabled by default)")
	flag.Parse()

	cfg := config.Default()
	var err error
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
		logger.SetComponentEnabled(debug.ComponentControl, true)
		logger.SetMinLevel(debug.LogLevelDebug)
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
		os.Exit(1)
	}

	device, err := audiodevice.Open(cfg.SampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %v\n", err)
		os.Exit(1)
	}
	defer device.Close()

	stop := make(chan struct{})
	go renderLoop(eng, device, cfg.BlockSize, stop)

	fmt.Println("loomlive: paste a program, then a blank line to stage it. Ctrl-D to quit.")
	readProgramLoop(eng)
	close(stop)
}

// renderLoop is the audio thread: it only ever reads the engine's current
// rig via RenderBlock and pushes frames to the device, never touching the
// control-thread state readProgramLoop mutates.
func renderLoop(eng *engine.Engine, device *audiodevice.Device, blockSize int, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		frames := eng.RenderBlock(blockSize)
		left := make([]float32, blockSize)
		right := make([]float32, blockSize)
		for i := 0; i < blockSize; i++ {
			left[i] = frames[i*2]
			right[i] = frames[i*2+1]
		}
		if err := device.QueueStereo(left, right, blockSize*4); err != nil {
			fmt.Fprintf(os.Stderr, "audio queue error: %v\n", err)
		}
	}
}

// readProgramLoop is the control thread: it accumulates stdin lines into a
// buffer and stages a compiled program each time it sees a blank line,
// exactly the submit-a-block model spec.md §6 describes.
func readProgramLoop(eng *engine.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	var buf strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			source := buf.String()
			buf.Reset()
			if strings.TrimSpace(source) == "" {
				continue
			}
			if err := eng.LoadProgram(source); err != nil {
				fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
				continue
			}
			fmt.Println("staged.")
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
}
