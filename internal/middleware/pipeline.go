package middleware

import "net/http"

// Stage is one named step of the pipeline.
type Stage struct {
	Name string
	Wrap func(http.Handler) http.Handler
}

// Pipeline applies its stages in order, the first stage being outermost.
type Pipeline struct {
	stages []Stage
}

func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: append([]Stage(nil), stages...)}
}

// Then wraps h with every stage.
func (p *Pipeline) Then(h http.Handler) http.Handler {
	for i := len(p.stages) - 1; i >= 0; i-- {
		h = p.stages[i].Wrap(h)
	}
	return h
}

// Names lists the stages in the order requests pass through them.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}
