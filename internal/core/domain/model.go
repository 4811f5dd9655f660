package domain

// Message is a single chat message sent to the completion service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelConfig identifies the remote generation configuration. Cache entries
// produced under different configurations never alias each other.
type ModelConfig struct {
	Name            string
	BaseURL         string
	ReasoningEffort string
}

// Extraction is the result of normalizing one source document to text.
type Extraction struct {
	Pages    []string
	Language string
}

// Text joins the non-empty pages into the document's plain text.
func (e Extraction) Text() string {
	var out string
	for _, page := range e.Pages {
		if page == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += page
	}
	return out
}

// DocFormat selects the rendering applied to generated text.
type DocFormat string

const (
	// FormatText renders markdown down to plain text.
	FormatText DocFormat = "text"
	// FormatMarkdown passes generated markdown through untouched.
	FormatMarkdown DocFormat = "markdown"
)
