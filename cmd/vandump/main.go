// Command vandump decodes a raw logic capture of a VAN bus line and
// lists the frame fields, per-bit annotations and protocol warnings.
package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/xuhaojie/pulseview-van-decoder/common"
	"github.com/xuhaojie/pulseview-van-decoder/internal/capture"
	"github.com/xuhaojie/pulseview-van-decoder/printer"
	"github.com/xuhaojie/pulseview-van-decoder/session"
	"github.com/xuhaojie/pulseview-van-decoder/van"
)

// fileConfig is the YAML document accepted by -config. It mirrors the
// decoder options plus the tool's logging settings.
type fileConfig struct {
	Decode van.Config `yaml:"decode"`
	Logs   logConfig  `yaml:"logs"`
}

type logConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

func main() {
	inPath := flag.String("in", "", "Path to the capture file (one byte per sample, line on bit 0)")
	configPath := flag.String("config", "", "Optional YAML config file")
	sampleRate := flag.Float64("samplerate", 0, "Sampling rate of the capture (samples/s)")
	bitrate := flag.Float64("bitrate", 0, "Nominal bitrate (bits/s)")
	dataBitrate := flag.Float64("data-bitrate", 0, "Post-arbitration data bitrate (bits/s, 0 = no switch)")
	samplePoint := flag.Float64("sample-point", 0, "Sample point (%)")
	sessionPath := flag.String("session", "", "Write the decode session to this CBOR file")
	logFile := flag.String("log-file", "", "Write debug logs to this rotating file")
	bits := flag.Bool("bits", false, "List per-bit annotations as well")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	if *inPath == "" {
		fmt.Println("vandump : Error: Missing capture file on -in option")
		os.Exit(1)
	}

	cfg := fileConfig{Decode: van.DefaultConfig()}
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fmt.Printf("Error: parse config: %v\n", err)
			os.Exit(1)
		}
	}
	if *sampleRate > 0 {
		cfg.Decode.SampleRate = *sampleRate
	}
	if *bitrate > 0 {
		cfg.Decode.NominalBitrate = *bitrate
	}
	if *dataBitrate > 0 {
		cfg.Decode.DataBitrate = *dataBitrate
	}
	if *samplePoint > 0 {
		cfg.Decode.SamplePointPercent = *samplePoint
	}
	if *logFile != "" {
		cfg.Logs.File = *logFile
	}

	log := buildLogger(cfg.Logs, *verbose)

	levels, err := capture.Load(*inPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	proc, err := van.NewProcessorWithLogger(cfg.Decode, van.NewMemoryCursor(levels), log)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var events []common.Event
	err = proc.Run(van.EventSinkFunc(func(ev common.Event) error {
		events = append(events, ev)
		if ev.Type == common.EventBitMark && !*bits {
			return nil
		}
		fmt.Println(printer.FormatEventLine(ev))
		return nil
	}))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	for _, f := range proc.Frames() {
		fmt.Println(printer.FormatFrameLine(f))
	}

	if *sessionPath != "" {
		s := &session.Session{
			Capture: *inPath,
			Config:  cfg.Decode,
			Frames:  proc.Frames(),
			Events:  events,
		}
		if err := session.Save(*sessionPath, s); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func buildLogger(cfg logConfig, verbose bool) common.Logger {
	minLevel := common.SeverityWarning
	if verbose {
		minLevel = common.SeverityDebug
	}
	if cfg.File == "" {
		return common.NewStdLoggerWithWriter(os.Stderr, minLevel)
	}
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 32
	}
	sink := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
	return common.NewStdLoggerWithWriter(sink, minLevel)
}
