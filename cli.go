package tolgee

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// PullRequest carries the flags for a CLI pull.
type PullRequest struct {
	Path        string
	Format      string
	Languages   []string
	States      []string
	Namespaces  []string
	Tags        []string
	ExcludeTags []string
	ConfigPath  string
}

// PushRequest carries the flags for a CLI push.
type PushRequest struct {
	Format     string
	Languages  []string
	Tags       []string
	ConfigPath string
}

// runner abstracts subprocess execution for tests.
type runner func(ctx context.Context, binary string, args []string) error

// CLI wraps the tolgee command line tool. A zero exit code is success; a
// failed pull falls back to downloading a zip export over REST and extracting
// it into the target directory.
type CLI struct {
	cfg    *Config
	binary string
	log    zerolog.Logger
	run    runner
}

// NewCLI builds a wrapper around the given binary; pass "" for the default
// "tolgee" on PATH.
func NewCLI(cfg *Config, binary string) (*CLI, error) {
	if cfg == nil {
		return nil, ErrMissingAPIKey
	}
	if cfg.APIKey == "" {
		// CLI paths need credentials up front, unlike the client which
		// degrades lazily
		return nil, ErrMissingAPIKey
	}
	if binary == "" {
		binary = "tolgee"
	}
	return &CLI{
		cfg:    cfg,
		binary: binary,
		log:    cfg.Logger,
		run:    runCommand,
	}, nil
}

func runCommand(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd.Run()
}

// Pull downloads translations into req.Path, preferring the CLI and falling
// back to the REST zip export when the subprocess fails.
func (c *CLI) Pull(ctx context.Context, req PullRequest) error {
	if req.Path == "" {
		return fmt.Errorf("tolgee: pull needs a target path")
	}

	args := c.commonArgs(req.ConfigPath)
	args = append([]string{"pull"}, args...)
	args = append(args, "--path", req.Path)
	args = appendListFlag(args, "--languages", req.Languages)
	args = appendListFlag(args, "--states", req.States)
	args = appendListFlag(args, "--namespaces", req.Namespaces)
	args = appendListFlag(args, "--tags", req.Tags)
	args = appendListFlag(args, "--exclude-tags", req.ExcludeTags)
	if req.Format != "" {
		args = append(args, "--format", req.Format)
	}

	if err := c.run(ctx, c.binary, args); err != nil {
		c.log.Warn().Err(err).Msg("tolgee cli pull failed, falling back to REST export")
		return c.pullREST(ctx, req)
	}
	return nil
}

// Push uploads local translations through the CLI. There is no REST fallback
// for pushes.
func (c *CLI) Push(ctx context.Context, req PushRequest) error {
	args := c.commonArgs(req.ConfigPath)
	args = append([]string{"push"}, args...)
	args = appendListFlag(args, "--languages", req.Languages)
	args = appendListFlag(args, "--tags", req.Tags)
	if req.Format != "" {
		args = append(args, "--format", req.Format)
	}

	if err := c.run(ctx, c.binary, args); err != nil {
		return fmt.Errorf("tolgee: cli push: %w", err)
	}
	return nil
}

func (c *CLI) commonArgs(configPath string) []string {
	args := []string{
		"--api-url", c.cfg.APIURL,
		"--api-key", c.cfg.APIKey,
	}
	if c.cfg.ProjectID != "" {
		args = append(args, "--project-id", c.cfg.ProjectID)
	}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return args
}

func appendListFlag(args []string, flag string, values []string) []string {
	if len(values) == 0 {
		return args
	}
	return append(args, flag, strings.Join(values, ","))
}

// pullREST downloads the zip export and extracts it into req.Path.
func (c *CLI) pullREST(ctx context.Context, req PullRequest) error {
	base := strings.TrimSuffix(c.cfg.APIURL, "/")
	endpoint := base + "/projects/"
	if c.cfg.ProjectID != "" {
		endpoint += c.cfg.ProjectID + "/"
	}
	endpoint += "export"

	query := url.Values{}
	query.Set("zip", "true")
	if req.Format != "" {
		query.Set("format", req.Format)
	}
	if len(req.Languages) > 0 {
		query.Set("languages", strings.Join(req.Languages, ","))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("tolgee: building export request: %w", err)
	}
	httpReq.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("tolgee: export download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("tolgee: export download: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("tolgee: export download: %w", err)
	}

	if err := extractZip(body, req.Path); err != nil {
		return err
	}
	c.log.Info().Str("path", req.Path).Msg("translations extracted from REST export")
	return nil
}

// extractZip unpacks the archive into target, refusing entries that would
// escape the target directory.
func extractZip(data []byte, target string) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("tolgee: reading export archive: %w", err)
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("tolgee: creating target dir: %w", err)
	}

	cleanTarget := filepath.Clean(target)
	for _, file := range reader.File {
		dest := filepath.Join(cleanTarget, filepath.Clean(file.Name))
		if !strings.HasPrefix(dest, cleanTarget+string(os.PathSeparator)) {
			return fmt.Errorf("tolgee: archive entry %q escapes target dir", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("tolgee: extracting %s: %w", file.Name, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("tolgee: extracting %s: %w", file.Name, err)
		}

		src, err := file.Open()
		if err != nil {
			return fmt.Errorf("tolgee: extracting %s: %w", file.Name, err)
		}

		out, err := os.Create(dest)
		if err != nil {
			src.Close()
			return fmt.Errorf("tolgee: extracting %s: %w", file.Name, err)
		}

		_, err = io.Copy(out, src)
		src.Close()
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("tolgee: extracting %s: %w", file.Name, err)
		}
	}
	return nil
}

// CLIConfig mirrors the yaml config file consumed by the command line tool.
type CLIConfig struct {
	APIURL    string `yaml:"apiUrl"`
	APIKey    string `yaml:"apiKey"`
	ProjectID string `yaml:"projectId"`
	Format    string `yaml:"format"`
	Pull      struct {
		Path      string   `yaml:"path"`
		Languages []string `yaml:"languages"`
	} `yaml:"pull"`
}

// LoadCLIConfig reads a yaml CLI config file, e.g. .tolgeerc.yaml.
func LoadCLIConfig(path string) (*CLIConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tolgee: reading cli config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("tolgee: parsing cli config %s: %w", path, err)
	}
	return &cfg, nil
}
