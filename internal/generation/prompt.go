package generation

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/phrazzld/scry-mcq/internal/domain"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// Template names, one per engine operation.
const (
	tmplContextGenerate  = "context_generate.tmpl"
	tmplContextReview    = "context_review.tmpl"
	tmplContextRefine    = "context_refine.tmpl"
	tmplQuestionGenerate = "question_generate.tmpl"
	tmplQuestionReview   = "question_review.tmpl"
	tmplQuestionRefine   = "question_refine.tmpl"
)

// promptData is the data passed to every prompt template.
type promptData struct {
	SourceText    string
	Subject       string
	Topic         string
	KeyPoints     string
	Exercises     string
	BloomLevel    domain.BloomLevel
	BloomGuidance string
	Count         int
	Context       string
	QuestionJSON  string
	Feedback      string
}

func newPromptData(req domain.GenerationRequest) promptData {
	return promptData{
		SourceText:    req.SourceText,
		Subject:       req.Subject,
		Topic:         req.Topic,
		KeyPoints:     req.KeyPoints,
		Exercises:     req.Exercises,
		BloomLevel:    req.BloomLevel,
		BloomGuidance: req.BloomLevel.Guidance(),
		Count:         req.ItemCount,
	}
}

// loadTemplates parses the embedded prompt set.
func loadTemplates() (*template.Template, error) {
	tmpl, err := template.New("prompts").Option("missingkey=error").ParseFS(promptFS, "prompts/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt templates: %v", ErrInvalidConfig, err)
	}
	for _, name := range []string{
		tmplContextGenerate, tmplContextReview, tmplContextRefine,
		tmplQuestionGenerate, tmplQuestionReview, tmplQuestionRefine,
	} {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("%w: missing prompt template %s", ErrInvalidConfig, name)
		}
	}
	return tmpl, nil
}

func render(tmpl *template.Template, name string, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %s: %w", name, err)
	}
	return buf.String(), nil
}
