package api

import (
	"time"

	"github.com/angeloszaimis/experiments-viewer/config"
	"github.com/angeloszaimis/experiments-viewer/internal/store"
)

// DateTime renders as a timezone-less timestamp.
type DateTime time.Time

func (d DateTime) MarshalJSON() ([]byte, error) {
	t := time.Time(d)
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(config.DateTimeFormat) + `"`), nil
}

type experimentJSON struct {
	ID           int64    `json:"id"`
	Slug         string   `json:"slug"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Enabled      bool     `json:"enabled"`
	CreationDate DateTime `json:"creation_date"`
}

type experimentListJSON struct {
	Experiments []experimentJSON `json:"experiments"`
}

type authorJSON struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type populationJSON struct {
	TotalClients int64 `json:"total_clients"`
	TotalPings   int64 `json:"total_pings"`
}

type metricSummaryJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type experimentDetailJSON struct {
	experimentJSON
	Authors     []authorJSON              `json:"authors"`
	Populations map[string]populationJSON `json:"populations"`
	Metrics     []metricSummaryJSON       `json:"metrics"`
}

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type metricPopulationJSON struct {
	Name string `json:"name"`
	Data any    `json:"data"`
}

type metricJSON struct {
	ID          int64                  `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Type        string                 `json:"type"`
	Categories  []string               `json:"categories,omitempty"`
	Populations []metricPopulationJSON `json:"populations"`
}

type errorJSON struct {
	Detail string `json:"detail"`
}

// categoricalTypes are metric types whose buckets are labels rather than
// numbers.
var categoricalTypes = map[string]bool{
	"BooleanHistogram": true,
	"BooleanScalar":    true,
	"FlagHistogram":    true,
}

// IsCategorical reports whether metrics of type metricType render as
// labelled categories.
func IsCategorical(metricType string) bool {
	return categoricalTypes[metricType]
}

func newExperimentJSON(e store.Experiment) experimentJSON {
	return experimentJSON{
		ID:           e.ID,
		Slug:         e.Slug,
		Name:         e.Name,
		Description:  e.Description,
		Enabled:      e.Enabled,
		CreationDate: DateTime(e.CreationDate),
	}
}

func newExperimentDetailJSON(d store.ExperimentDetail) experimentDetailJSON {
	out := experimentDetailJSON{
		experimentJSON: newExperimentJSON(d.Experiment),
		Authors:        make([]authorJSON, 0, len(d.Authors)),
		Populations:    make(map[string]populationJSON, len(d.Populations)),
		Metrics:        make([]metricSummaryJSON, 0, len(d.Metrics)),
	}
	for _, a := range d.Authors {
		out.Authors = append(out.Authors, authorJSON{Name: a.Name, Email: a.Email})
	}
	for _, p := range d.Populations {
		out.Populations[p.Name] = populationJSON{TotalClients: p.TotalClients, TotalPings: p.TotalPings}
	}
	for _, m := range d.Metrics {
		out.Metrics = append(out.Metrics, metricSummaryJSON{ID: m.ID, Name: m.Name, Type: m.Type})
	}
	return out
}

// newMetricJSON renders numeric metrics as x/y pairs and categorical metrics
// as a shared category list with one y value per category.
func newMetricJSON(m store.MetricData) metricJSON {
	out := metricJSON{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Type:        m.Type,
		Populations: make([]metricPopulationJSON, 0, len(m.Populations)),
	}

	if IsCategorical(m.Type) {
		seen := map[string]bool{}
		for _, p := range m.Populations {
			for _, pt := range p.Points {
				if !seen[pt.Label] {
					seen[pt.Label] = true
					out.Categories = append(out.Categories, pt.Label)
				}
			}
		}
		for _, p := range m.Populations {
			values := make(map[string]float64, len(p.Points))
			for _, pt := range p.Points {
				values[pt.Label] = pt.Y
			}
			data := make([]float64, len(out.Categories))
			for i, c := range out.Categories {
				data[i] = values[c]
			}
			out.Populations = append(out.Populations, metricPopulationJSON{Name: p.Name, Data: data})
		}
		return out
	}

	for _, p := range m.Populations {
		data := make([]pointJSON, len(p.Points))
		for i, pt := range p.Points {
			data[i] = pointJSON{X: pt.X, Y: pt.Y}
		}
		out.Populations = append(out.Populations, metricPopulationJSON{Name: p.Name, Data: data})
	}
	return out
}
