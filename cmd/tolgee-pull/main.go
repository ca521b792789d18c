package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	tolgee "github.com/goliatone/go-tolgee"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a .tolgeerc.yaml cli config")
		apiURL     = flag.String("api-url", "", "backend base url (default from config/env)")
		apiKey     = flag.String("api-key", "", "backend api key (default from config/env)")
		projectID  = flag.String("project-id", "", "project id")
		path       = flag.String("path", "", "target directory for pulled translations")
		languages  = flag.String("languages", "", "comma separated language tags")
		format     = flag.String("format", "JSON", "export format")
		binary     = flag.String("binary", "", "tolgee cli binary (default: tolgee on PATH)")
		verbose    = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !*verbose {
		log = log.Level(zerolog.InfoLevel)
	}

	if err := run(*configPath, *apiURL, *apiKey, *projectID, *path, *languages, *format, *binary, log); err != nil {
		fmt.Fprintln(os.Stderr, "tolgee-pull:", err)
		os.Exit(1)
	}
}

func run(configPath, apiURL, apiKey, projectID, path, languages, format, binary string, log zerolog.Logger) error {
	pull := tolgee.PullRequest{Path: path, Format: format, ConfigPath: configPath}
	if languages != "" {
		pull.Languages = strings.Split(languages, ",")
	}

	if configPath != "" {
		fileCfg, err := tolgee.LoadCLIConfig(configPath)
		if err != nil {
			return err
		}
		if apiURL == "" {
			apiURL = fileCfg.APIURL
		}
		if apiKey == "" {
			apiKey = fileCfg.APIKey
		}
		if projectID == "" {
			projectID = fileCfg.ProjectID
		}
		if pull.Path == "" {
			pull.Path = fileCfg.Pull.Path
		}
		if len(pull.Languages) == 0 {
			pull.Languages = fileCfg.Pull.Languages
		}
		if format == "" {
			pull.Format = fileCfg.Format
		}
	}

	opts := []tolgee.Option{tolgee.WithLogger(log)}
	if apiKey != "" {
		opts = append(opts, tolgee.WithAPIKey(apiKey))
	}
	if projectID != "" {
		opts = append(opts, tolgee.WithProjectID(projectID))
	}
	if apiURL != "" {
		opts = append(opts, tolgee.WithAPIURL(apiURL))
	}

	cfg, err := tolgee.ConfigFromEnv(opts...)
	if err != nil {
		return err
	}

	cli, err := tolgee.NewCLI(cfg, binary)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Pull(ctx, pull)
}
