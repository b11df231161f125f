package models

// Step is one line of generated interaction code, e.g. a navigation or a click.
type Step struct {
	Text string `json:"text" yaml:"text"`
}

func NewSteps(texts ...string) []Step {
	steps := make([]Step, 0, len(texts))
	for _, t := range texts {
		steps = append(steps, Step{Text: t})
	}
	return steps
}

func StepTexts(steps []Step) []string {
	texts := make([]string, 0, len(steps))
	for _, s := range steps {
		texts = append(texts, s.Text)
	}
	return texts
}
