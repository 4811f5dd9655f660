package domain

import "time"

// Config is the single explicit configuration object built once at startup
// and handed to every component constructor. No component reads ambient
// process state after loading.
type Config struct {
	Workspace   WorkspaceConfig
	Buckets     map[string]BucketConfig
	OCR         OCRConfig
	Model       ModelConfig
	Artifacts   map[string]ArtifactConfig
	Scheduler   SchedulerConfig
	Credentials Credentials
}

// WorkspaceConfig locates the pipeline's directories and state files.
type WorkspaceConfig struct {
	TextDir      string
	OutputDir    string
	MergedFile   string
	CacheFile    string
	SnapshotFile string
}

// BucketConfig describes one named category of input documents.
type BucketConfig struct {
	Dir        string
	Extensions []string
}

// OCRConfig holds the visual OCR deployment parameters.
type OCRConfig struct {
	Host    string
	Region  string
	Service string
	Action  string
	Version string

	// Optional recognition knobs forwarded verbatim when non-empty.
	Mode             string
	ApproximatePixel string
	FilterThresh     string
	HalfToFull       string

	Workers int
	Timeout time.Duration
}

// ArtifactConfig names one downstream artifact: the prompt that produces
// it and the format its document is rendered in.
type ArtifactConfig struct {
	Prompt string
	Format DocFormat
}

// SchedulerConfig bounds the worker pool and its retry policy.
type SchedulerConfig struct {
	Workers    int
	MaxRetries int
	BaseDelay  time.Duration
}

// Credentials carry the remote service secrets resolved at load time.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	ArkAPIKey    string
}

// PromptValues returns the tracked prompt configuration for snapshotting.
func (c Config) PromptValues() map[string]string {
	prompts := make(map[string]string, len(c.Artifacts))
	for name, artifact := range c.Artifacts {
		prompts[name] = artifact.Prompt
	}
	return prompts
}
