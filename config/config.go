// Package config loads the server configuration and watches it for edits.
package config

import (
	"os"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port int `yaml:"port"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Training struct {
		Algorithm     string  `yaml:"algorithm"`
		MaxIterations int     `yaml:"max_iterations"`
		Threshold     float64 `yaml:"threshold"`
		Seed          int64   `yaml:"seed"`
		MaxTreeDepth  int     `yaml:"max_tree_depth"`
	} `yaml:"training"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := defaults()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}
	return config, nil
}

func defaults() *Config {
	config := &Config{}
	config.Http.Port = 8080
	config.Log.Level = "info"
	config.Training.Algorithm = "tritraining"
	config.Training.MaxIterations = 40
	config.Training.Threshold = 0.5
	config.Training.MaxTreeDepth = 5
	return config
}

// Watch reloads the file on every write event and hands the fresh config
// to onChange. It blocks until the watcher fails; run it in a goroutine.
func Watch(path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			config, err := Load(path)
			if err != nil {
				continue
			}
			onChange(config)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
