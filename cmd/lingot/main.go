// Command lingot is a terminal musical instrument tuner: it captures audio,
// estimates the fundamental pitch, and prints a text gauge showing the
// nearest note and cents deviation.
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	lingot "github.com/wolftune/lingot-go"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configName string
	var wavPath string
	var useOSS bool

	pflag.StringVarP(&configName, "config", "c", "default", "config name under $HOME/.lingot/")
	pflag.StringVar(&wavPath, "wav", "", "analyze a WAV file instead of a live device")
	pflag.BoolVar(&useOSS, "oss", true, "capture from the OSS device named in the config")
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel})

	configPath, err := resolveConfigPath(configName)
	if err != nil {
		logger.Error("resolving config path", "err", err)
		return 1
	}

	cfg, loadErr := loadOrBootstrap(configPath, logger)
	if loadErr != nil {
		logger.Error("loading config", "err", loadErr)
		return 1
	}

	source, err := buildSource(cfg, wavPath, useOSS)
	if err != nil {
		logger.Error("opening audio source", "err", err)
		return 1
	}

	core, err := lingot.New(cfg, source, logger)
	if err != nil {
		logger.Error("constructing core", "err", err)
		return 1
	}

	if err := core.Start(); err != nil {
		logger.Error("starting core", "err", err)
		return 1
	}
	defer core.Stop()

	consumer := lingot.NewTermConsumer(core, cfg.Scale, os.Stdout)
	stop := make(chan struct{})
	go consumer.Run(time.Second/time.Duration(cfg.VisualizationRate), stop)

	if wav, ok := source.(*lingot.WAVSource); ok {
		if err := wav.ReadAll(); err != nil {
			logger.Error("reading WAV", "err", err)
		}
		close(stop)
		return 0
	}

	select {}
}

func resolveConfigPath(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".lingot", name+".conf"), nil
}

// loadOrBootstrap loads the named config, creating $HOME/.lingot/ and a
// DefaultConfig-backed file on first run, matching lingot.c's startup
// behaviour.
func loadOrBootstrap(path string, logger *log.Logger) (*lingot.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		cfg := lingot.DefaultConfig()
		if err := lingot.SaveConfig(path, cfg); err != nil {
			return nil, err
		}
		logger.Info("wrote default config", "path", path)
		return cfg, nil
	}

	return lingot.LoadConfig(path, nil)
}

func buildSource(cfg *lingot.Config, wavPath string, useOSS bool) (lingot.AudioSource, error) {
	if wavPath != "" {
		return lingot.NewWAVSource(wavPath, cfg.FFTSize)
	}
	if useOSS {
		return lingot.NewOSSSource(), nil
	}
	return nil, fmt.Errorf("no audio source selected")
}
