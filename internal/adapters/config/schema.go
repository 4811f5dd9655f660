package config

// millfile represents the structure of the docmill.yaml configuration file.
type millfile struct {
	Version   string                 `yaml:"version"`
	Workspace workspaceDTO           `yaml:"workspace"`
	Buckets   map[string]bucketDTO   `yaml:"buckets"`
	OCR       ocrDTO                 `yaml:"ocr"`
	Model     modelDTO               `yaml:"model"`
	Artifacts map[string]artifactDTO `yaml:"artifacts"`
	Scheduler schedulerDTO           `yaml:"scheduler"`
}

type workspaceDTO struct {
	TextDir      string `yaml:"textDir"`
	OutputDir    string `yaml:"outputDir"`
	MergedFile   string `yaml:"mergedFile"`
	CacheFile    string `yaml:"cacheFile"`
	SnapshotFile string `yaml:"snapshotFile"`
}

type bucketDTO struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
}

type ocrDTO struct {
	Host             string `yaml:"host"`
	Region           string `yaml:"region"`
	Service          string `yaml:"service"`
	Action           string `yaml:"action"`
	Version          string `yaml:"version"`
	Mode             string `yaml:"mode"`
	ApproximatePixel string `yaml:"approximatePixel"`
	FilterThresh     string `yaml:"filterThresh"`
	HalfToFull       string `yaml:"halfToFull"`
	Workers          int    `yaml:"workers"`
	Timeout          string `yaml:"timeout"`
}

type modelDTO struct {
	Name            string `yaml:"name"`
	BaseURL         string `yaml:"baseUrl"`
	ReasoningEffort string `yaml:"reasoningEffort"`
}

type artifactDTO struct {
	Prompt string `yaml:"prompt"`
	Format string `yaml:"format"`
}

type schedulerDTO struct {
	Workers    int    `yaml:"workers"`
	MaxRetries int    `yaml:"maxRetries"`
	BaseDelay  string `yaml:"baseDelay"`
}
