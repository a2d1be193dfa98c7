package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateExperiment inserts an experiment and returns it with its id.
func (s *Store) CreateExperiment(ctx context.Context, e Experiment) (Experiment, error) {
	if e.CreationDate.IsZero() {
		e.CreationDate = time.Now().UTC().Truncate(time.Second)
	}

	err := s.queryRow(ctx, s.db, `
INSERT INTO experiments (slug, name, description, enabled, creation_date)
VALUES (?, ?, ?, ?, ?)
RETURNING id`,
		e.Slug, e.Name, e.Description, e.Enabled, toMillis(e.CreationDate),
	).Scan(&e.ID)
	if err != nil {
		return Experiment{}, fmt.Errorf("create experiment %s: %w", e.Slug, err)
	}
	return e, nil
}

func (s *Store) AddAuthor(ctx context.Context, experimentID int64, a Author) error {
	_, err := s.exec(ctx, s.db,
		"INSERT INTO experiment_authors (experiment_id, name, email) VALUES (?, ?, ?)",
		experimentID, a.Name, a.Email)
	if err != nil {
		return fmt.Errorf("add author: %w", err)
	}
	return nil
}

func (s *Store) AddPopulation(ctx context.Context, experimentID int64, p Population) (Population, error) {
	err := s.queryRow(ctx, s.db, `
INSERT INTO populations (experiment_id, name, total_clients, total_pings)
VALUES (?, ?, ?, ?)
RETURNING id`,
		experimentID, p.Name, p.TotalClients, p.TotalPings,
	).Scan(&p.ID)
	if err != nil {
		return Population{}, fmt.Errorf("add population %s: %w", p.Name, err)
	}
	return p, nil
}

func (s *Store) CreateMetric(ctx context.Context, m Metric) (Metric, error) {
	err := s.queryRow(ctx, s.db,
		"INSERT INTO metrics (name, description, type) VALUES (?, ?, ?) RETURNING id",
		m.Name, m.Description, m.Type,
	).Scan(&m.ID)
	if err != nil {
		return Metric{}, fmt.Errorf("create metric %s: %w", m.Name, err)
	}
	return m, nil
}

// AddPoints records the buckets of a metric for one population, numbering
// them in the order given.
func (s *Store) AddPoints(ctx context.Context, metricID, populationID int64, points []Point) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i, pt := range points {
			_, err := s.exec(ctx, tx, `
INSERT INTO metric_points (metric_id, population_id, position, label, x, y)
VALUES (?, ?, ?, ?, ?, ?)`,
				metricID, populationID, i, pt.Label, pt.X, pt.Y)
			if err != nil {
				return fmt.Errorf("add point %d: %w", i, err)
			}
		}
		return nil
	})
}
