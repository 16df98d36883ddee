package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf"
)

type configuration struct {
	Debug bool `conf:"default:false"`
	Web   struct {
		APIHost         string        `conf:"default:0.0.0.0:3000"`
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:30s"`
		ShutdownTimeout time.Duration `conf:"default:5s"`
		CORSOrigins     string        `conf:"default:*"`
	}
	DB struct {
		Filename string `conf:"default:chapterdesk.db"`
	}
	Sessions struct {
		Duration time.Duration `conf:"default:720h"`
	}
	Uploads struct {
		Articles  string `conf:"default:static/uploads/articles"`
		Manuals   string `conf:"default:static/manuals"`
		Embassies string `conf:"default:static/embassies"`
		Users     string `conf:"default:static/users"`
	}
	Folders struct {
		URL     string
		Timeout time.Duration `conf:"default:10s"`
	}
	Seed string
}

// loadConfiguration fetches settings from either the command line arguments or
// the environment, with sensible defaults for local development.
func loadConfiguration() (configuration, error) {
	var cfg configuration
	if err := conf.Parse(os.Args[1:], "CHAPTERDESK", &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			usage, err := conf.Usage("CHAPTERDESK", &cfg)
			if err != nil {
				return cfg, fmt.Errorf("generating configuration usage: %w", err)
			}
			fmt.Println(usage)
			return cfg, conf.ErrHelpWanted
		}
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}
	return cfg, nil
}
