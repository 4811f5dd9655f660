// Package config provides the configuration loader for docmill.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/docmill/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Default deployment parameters of the visual OCR and Ark services.
const (
	defaultOCRHost    = "visual.volcengineapi.com"
	defaultOCRRegion  = "cn-north-1"
	defaultOCRService = "cv"
	defaultOCRAction  = "OCRNormal"
	defaultOCRVersion = "2020-08-26"
	defaultOCRMode    = "default"
	defaultOCRTimeout = 30 * time.Second

	defaultModelName = "doubao-seed-1-6-251015"
	defaultBaseURL   = "https://ark.cn-beijing.volces.com/api/v3"
	defaultEffort    = "medium"
)

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// FileConfigLoader implements ports.ConfigLoader using a YAML file plus an
// optional .env file for secrets. All environment access happens here, at
// load time; the resulting Config is the only configuration components see.
type FileConfigLoader struct {
	Filename string
}

// SetFilename overrides the configuration file name. Empty names are
// ignored so flag defaults pass through unchanged.
func (l *FileConfigLoader) SetFilename(name string) {
	if name != "" {
		l.Filename = name
	}
}

// Load reads the configuration from the given working directory.
func (l *FileConfigLoader) Load(cwd string) (*domain.Config, error) {
	data, err := os.ReadFile(filepath.Join(cwd, l.Filename))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read config file")
	}

	var mf millfile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	env := loadEnvFile(filepath.Join(cwd, ".env"))

	cfg := &domain.Config{
		Workspace: domain.WorkspaceConfig{
			TextDir:      orDefault(mf.Workspace.TextDir, filepath.Join("Output", "text")),
			OutputDir:    orDefault(mf.Workspace.OutputDir, "Output"),
			MergedFile:   orDefault(mf.Workspace.MergedFile, filepath.Join("Output", "merged.txt")),
			CacheFile:    orDefault(mf.Workspace.CacheFile, filepath.Join("Output", "cache.json")),
			SnapshotFile: orDefault(mf.Workspace.SnapshotFile, filepath.Join("Output", "snapshot.json")),
		},
		Buckets: make(map[string]domain.BucketConfig, len(mf.Buckets)),
		OCR: domain.OCRConfig{
			Host:             orDefault(mf.OCR.Host, defaultOCRHost),
			Region:           orDefault(mf.OCR.Region, defaultOCRRegion),
			Service:          orDefault(mf.OCR.Service, defaultOCRService),
			Action:           orDefault(mf.OCR.Action, defaultOCRAction),
			Version:          orDefault(mf.OCR.Version, defaultOCRVersion),
			Mode:             orDefault(mf.OCR.Mode, defaultOCRMode),
			ApproximatePixel: mf.OCR.ApproximatePixel,
			FilterThresh:     mf.OCR.FilterThresh,
			HalfToFull:       mf.OCR.HalfToFull,
			Workers:          mf.OCR.Workers,
			Timeout:          parseDuration(mf.OCR.Timeout, defaultOCRTimeout),
		},
		Model: domain.ModelConfig{
			Name:            orDefault(mf.Model.Name, defaultModelName),
			BaseURL:         orDefault(mf.Model.BaseURL, defaultBaseURL),
			ReasoningEffort: orDefault(mf.Model.ReasoningEffort, defaultEffort),
		},
		Artifacts: make(map[string]domain.ArtifactConfig, len(mf.Artifacts)),
		Scheduler: domain.SchedulerConfig{
			Workers:    mf.Scheduler.Workers,
			MaxRetries: mf.Scheduler.MaxRetries,
			BaseDelay:  parseDuration(mf.Scheduler.BaseDelay, 1500*time.Millisecond),
		},
		Credentials: domain.Credentials{
			AccessKey:    env["VOLC_ACCESS_KEY"],
			SecretKey:    env["VOLC_SECRET_KEY"],
			SessionToken: env["VOLC_SESSION_TOKEN"],
			ArkAPIKey:    env["ARK_API_KEY"],
		},
	}

	for name, dto := range mf.Buckets {
		if dto.Dir == "" {
			return nil, zerr.With(zerr.New("bucket has no directory"), "bucket", name)
		}
		cfg.Buckets[name] = domain.BucketConfig{
			Dir:        dto.Dir,
			Extensions: lowerAll(dto.Extensions),
		}
	}

	for name, dto := range mf.Artifacts {
		if dto.Prompt == "" {
			return nil, zerr.With(zerr.New("artifact has no prompt"), "artifact", name)
		}
		format := domain.DocFormat(orDefault(dto.Format, string(domain.FormatMarkdown)))
		if format != domain.FormatText && format != domain.FormatMarkdown {
			return nil, zerr.With(zerr.With(zerr.New("unknown artifact format"), "artifact", name), "format", dto.Format)
		}
		cfg.Artifacts[name] = domain.ArtifactConfig{Prompt: dto.Prompt, Format: format}
	}

	return cfg, nil
}

// loadEnvFile merges KEY=VALUE lines from an optional env file under the
// current process environment; real environment variables win.
func loadEnvFile(path string) map[string]string {
	env := make(map[string]string)

	if data, err := os.ReadFile(path); err == nil {
		for line := range strings.Lines(string(data)) {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			value = strings.Trim(strings.TrimSpace(value), `"'`)
			if key != "" {
				env[key] = value
			}
		}
	}

	for _, key := range []string{"VOLC_ACCESS_KEY", "VOLC_SECRET_KEY", "VOLC_SESSION_TOKEN", "ARK_API_KEY"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			env[key] = value
		}
	}
	return env
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func lowerAll(strs []string) []string {
	out := make([]string, len(strs))
	for i, s := range strs {
		out[i] = strings.ToLower(s)
	}
	return out
}
