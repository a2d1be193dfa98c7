package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Experiment struct {
	ID           int64
	Slug         string
	Name         string
	Description  string
	Enabled      bool
	CreationDate time.Time
}

type Author struct {
	Name  string
	Email string
}

type Population struct {
	ID           int64
	Name         string
	TotalClients int64
	TotalPings   int64
}

// MetricSummary identifies a metric that has data for an experiment.
type MetricSummary struct {
	ID   int64
	Name string
	Type string
}

// ExperimentDetail is an experiment with everything hanging off it.
type ExperimentDetail struct {
	Experiment
	Authors     []Author
	Populations []Population
	Metrics     []MetricSummary
}

type Metric struct {
	ID          int64
	Name        string
	Description string
	Type        string
}

// Point is one bucket of a metric. Categorical metrics use Label, numeric
// metrics use X.
type Point struct {
	Position int
	Label    string
	X        float64
	Y        float64
}

type MetricPopulation struct {
	Name   string
	Points []Point
}

// MetricData is a metric restricted to the populations of one experiment.
type MetricData struct {
	Metric
	Populations []MetricPopulation
}

const experimentColumns = "id, slug, name, description, enabled, creation_date"

func scanExperiment(scan func(...any) error) (Experiment, error) {
	var (
		e       Experiment
		created int64
	)
	if err := scan(&e.ID, &e.Slug, &e.Name, &e.Description, &e.Enabled, &created); err != nil {
		return Experiment{}, err
	}
	e.CreationDate = fromMillis(created)
	return e, nil
}

// ListExperiments returns every experiment ordered by id.
func (s *Store) ListExperiments(ctx context.Context) ([]Experiment, error) {
	rows, err := s.query(ctx, s.db, "SELECT "+experimentColumns+" FROM experiments ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	experiments := []Experiment{}
	for rows.Next() {
		e, err := scanExperiment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		experiments = append(experiments, e)
	}
	return experiments, rows.Err()
}

func (s *Store) getExperiment(ctx context.Context, id int64) (Experiment, error) {
	row := s.queryRow(ctx, s.db, "SELECT "+experimentColumns+" FROM experiments WHERE id = ?", id)
	e, err := scanExperiment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Experiment{}, ErrNotFound
	}
	if err != nil {
		return Experiment{}, fmt.Errorf("get experiment %d: %w", id, err)
	}
	return e, nil
}

// GetExperiment loads one experiment with its authors, populations and the
// metrics that have data for it.
func (s *Store) GetExperiment(ctx context.Context, id int64) (ExperimentDetail, error) {
	e, err := s.getExperiment(ctx, id)
	if err != nil {
		return ExperimentDetail{}, err
	}

	detail := ExperimentDetail{
		Experiment:  e,
		Authors:     []Author{},
		Populations: []Population{},
		Metrics:     []MetricSummary{},
	}

	rows, err := s.query(ctx, s.db,
		"SELECT name, email FROM experiment_authors WHERE experiment_id = ? ORDER BY id", id)
	if err != nil {
		return ExperimentDetail{}, fmt.Errorf("list authors: %w", err)
	}
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.Name, &a.Email); err != nil {
			rows.Close()
			return ExperimentDetail{}, fmt.Errorf("scan author: %w", err)
		}
		detail.Authors = append(detail.Authors, a)
	}
	rows.Close()

	rows, err = s.query(ctx, s.db,
		"SELECT id, name, total_clients, total_pings FROM populations WHERE experiment_id = ? ORDER BY name", id)
	if err != nil {
		return ExperimentDetail{}, fmt.Errorf("list populations: %w", err)
	}
	for rows.Next() {
		var p Population
		if err := rows.Scan(&p.ID, &p.Name, &p.TotalClients, &p.TotalPings); err != nil {
			rows.Close()
			return ExperimentDetail{}, fmt.Errorf("scan population: %w", err)
		}
		detail.Populations = append(detail.Populations, p)
	}
	rows.Close()

	rows, err = s.query(ctx, s.db, `
SELECT DISTINCT m.id, m.name, m.type
FROM metrics m
JOIN metric_points mp ON mp.metric_id = m.id
JOIN populations p ON p.id = mp.population_id
WHERE p.experiment_id = ?
ORDER BY m.id`, id)
	if err != nil {
		return ExperimentDetail{}, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m MetricSummary
		if err := rows.Scan(&m.ID, &m.Name, &m.Type); err != nil {
			return ExperimentDetail{}, fmt.Errorf("scan metric: %w", err)
		}
		detail.Metrics = append(detail.Metrics, m)
	}

	return detail, rows.Err()
}

// GetMetric loads a metric with the points recorded for the populations of
// the experiment. It returns ErrNotFound when either does not exist or the
// metric has no data for the experiment.
func (s *Store) GetMetric(ctx context.Context, experimentID, metricID int64) (MetricData, error) {
	var m Metric
	err := s.queryRow(ctx, s.db,
		"SELECT id, name, description, type FROM metrics WHERE id = ?", metricID,
	).Scan(&m.ID, &m.Name, &m.Description, &m.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return MetricData{}, ErrNotFound
	}
	if err != nil {
		return MetricData{}, fmt.Errorf("get metric %d: %w", metricID, err)
	}

	rows, err := s.query(ctx, s.db, `
SELECT p.name, mp.position, mp.label, mp.x, mp.y
FROM metric_points mp
JOIN populations p ON p.id = mp.population_id
WHERE mp.metric_id = ? AND p.experiment_id = ?
ORDER BY p.name, mp.position`, metricID, experimentID)
	if err != nil {
		return MetricData{}, fmt.Errorf("list metric points: %w", err)
	}
	defer rows.Close()

	data := MetricData{Metric: m}
	for rows.Next() {
		var (
			population string
			pt         Point
		)
		if err := rows.Scan(&population, &pt.Position, &pt.Label, &pt.X, &pt.Y); err != nil {
			return MetricData{}, fmt.Errorf("scan metric point: %w", err)
		}
		n := len(data.Populations)
		if n == 0 || data.Populations[n-1].Name != population {
			data.Populations = append(data.Populations, MetricPopulation{Name: population})
			n++
		}
		data.Populations[n-1].Points = append(data.Populations[n-1].Points, pt)
	}
	if err := rows.Err(); err != nil {
		return MetricData{}, err
	}

	if len(data.Populations) == 0 {
		return MetricData{}, ErrNotFound
	}
	return data, nil
}

// SetExperimentEnabled flips the visibility of an experiment.
func (s *Store) SetExperimentEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.exec(ctx, s.db, "UPDATE experiments SET enabled = ? WHERE id = ?", enabled, id)
	if err != nil {
		return fmt.Errorf("update experiment %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update experiment %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
