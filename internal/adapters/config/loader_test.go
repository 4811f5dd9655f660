package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/docmill/internal/adapters/config"
	"go.trai.ch/docmill/internal/core/domain"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docmill.yaml"), []byte(content), 0o600))
}

func TestLoad_Full(t *testing.T) {
	content := `
version: "1"
workspace:
  textDir: work/text
  outputDir: work/out
  mergedFile: work/out/all.txt
  cacheFile: work/state/cache.json
  snapshotFile: work/state/snapshot.json
buckets:
  contracts:
    dir: input/contracts
    extensions: [".PDF", ".docx"]
  receipts:
    dir: input/receipts
    extensions: [".jpg", ".png"]
ocr:
  host: visual.example.com
  region: ap-test-1
  mode: fast
  workers: 3
  timeout: 45s
model:
  name: test-model
  baseUrl: https://ark.example.com/api/v3
  reasoningEffort: high
artifacts:
  summary:
    prompt: "Summarize everything"
    format: markdown
  report:
    prompt: "Write a report"
    format: text
scheduler:
  workers: 5
  maxRetries: 4
  baseDelay: 2s
`
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, content)

	loader := &config.FileConfigLoader{Filename: "docmill.yaml"}
	cfg, err := loader.Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "work/text", cfg.Workspace.TextDir)
	assert.Equal(t, filepath.Join("work", "out", "all.txt"), filepath.Clean(cfg.Workspace.MergedFile))

	require.Contains(t, cfg.Buckets, "contracts")
	assert.Equal(t, []string{".pdf", ".docx"}, cfg.Buckets["contracts"].Extensions, "extensions lowercased")

	assert.Equal(t, "visual.example.com", cfg.OCR.Host)
	assert.Equal(t, "ap-test-1", cfg.OCR.Region)
	assert.Equal(t, "cv", cfg.OCR.Service, "unset fields keep their defaults")
	assert.Equal(t, "fast", cfg.OCR.Mode)
	assert.Equal(t, 3, cfg.OCR.Workers)
	assert.Equal(t, 45*time.Second, cfg.OCR.Timeout)

	assert.Equal(t, "test-model", cfg.Model.Name)
	assert.Equal(t, "high", cfg.Model.ReasoningEffort)

	require.Contains(t, cfg.Artifacts, "report")
	assert.Equal(t, domain.FormatText, cfg.Artifacts["report"].Format)
	assert.Equal(t, domain.FormatMarkdown, cfg.Artifacts["summary"].Format)

	assert.Equal(t, 5, cfg.Scheduler.Workers)
	assert.Equal(t, 4, cfg.Scheduler.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Scheduler.BaseDelay)
}

func TestLoad_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "version: \"1\"\n")

	loader := &config.FileConfigLoader{Filename: "docmill.yaml"}
	cfg, err := loader.Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "visual.volcengineapi.com", cfg.OCR.Host)
	assert.Equal(t, "cn-north-1", cfg.OCR.Region)
	assert.Equal(t, "OCRNormal", cfg.OCR.Action)
	assert.Equal(t, "2020-08-26", cfg.OCR.Version)
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, "doubao-seed-1-6-251015", cfg.Model.Name)
	assert.Equal(t, "medium", cfg.Model.ReasoningEffort)
	assert.Equal(t, filepath.Join("Output", "merged.txt"), cfg.Workspace.MergedFile)
	assert.Equal(t, 1500*time.Millisecond, cfg.Scheduler.BaseDelay)
	assert.Empty(t, cfg.Buckets)
	assert.Empty(t, cfg.Artifacts)
}

func TestLoad_MissingFile(t *testing.T) {
	loader := &config.FileConfigLoader{Filename: "docmill.yaml"}
	_, err := loader.Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "buckets: [not a map\n")

	loader := &config.FileConfigLoader{Filename: "docmill.yaml"}
	_, err := loader.Load(tmpDir)
	assert.Error(t, err)
}

func TestLoad_BucketWithoutDir(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `
buckets:
  broken:
    extensions: [".pdf"]
`)

	loader := &config.FileConfigLoader{Filename: "docmill.yaml"}
	_, err := loader.Load(tmpDir)
	assert.Error(t, err)
}

func TestLoad_ArtifactWithoutPrompt(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `
artifacts:
  broken:
    format: text
`)

	loader := &config.FileConfigLoader{Filename: "docmill.yaml"}
	_, err := loader.Load(tmpDir)
	assert.Error(t, err)
}

func TestLoad_ArtifactUnknownFormat(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `
artifacts:
  broken:
    prompt: p
    format: pdf
`)

	loader := &config.FileConfigLoader{Filename: "docmill.yaml"}
	_, err := loader.Load(tmpDir)
	assert.Error(t, err)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `
ocr:
  timeout: soon
scheduler:
  baseDelay: "-5s"
`)

	loader := &config.FileConfigLoader{Filename: "docmill.yaml"}
	cfg, err := loader.Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Scheduler.BaseDelay)
}

func TestLoad_EnvFileCredentials(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "version: \"1\"\n")
	envContent := `
# secrets
VOLC_ACCESS_KEY=ak-from-file
VOLC_SECRET_KEY="sk-from-file"
ARK_API_KEY='ark-from-file'
IGNORED LINE
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(envContent), 0o600))

	loader := &config.FileConfigLoader{Filename: "docmill.yaml"}
	cfg, err := loader.Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "ak-from-file", cfg.Credentials.AccessKey)
	assert.Equal(t, "sk-from-file", cfg.Credentials.SecretKey)
	assert.Equal(t, "ark-from-file", cfg.Credentials.ArkAPIKey)
	assert.Empty(t, cfg.Credentials.SessionToken)
}

func TestLoad_ProcessEnvWins(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "version: \"1\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".env"),
		[]byte("VOLC_ACCESS_KEY=from-file\n"), 0o600))
	t.Setenv("VOLC_ACCESS_KEY", "from-process")

	loader := &config.FileConfigLoader{Filename: "docmill.yaml"}
	cfg, err := loader.Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "from-process", cfg.Credentials.AccessKey)
}
