// Package grid evaluates the geomagnetic field over a regular
// latitude/longitude grid using a fixed worker pool. Each worker owns a
// private evaluation scratch buffer, so all workers share one snapshot
// concurrently.
package grid

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/geomag/geofield/internal/field"
)

// Request describes a regular grid at a single altitude.
type Request struct {
	LatMin, LatMax, LatStep float64
	LonMin, LonMax, LonStep float64
	AltM                    float64
}

// dims returns the number of rows and columns the request spans.
// The feeder generates points from the same counts, so the budget
// check and the produced grid always agree.
func (r Request) dims() (nLat, nLon int) {
	nLat = int((r.LatMax-r.LatMin)/r.LatStep) + 1
	nLon = int((r.LonMax-r.LonMin)/r.LonStep) + 1
	return nLat, nLon
}

// Points returns the number of grid points the request spans, or an
// error when the ranges or steps are ill-formed.
func (r Request) Points() (int, error) {
	if r.LatStep <= 0 || r.LonStep <= 0 {
		return 0, fmt.Errorf("grid steps must be positive")
	}
	if r.LatMax < r.LatMin || r.LonMax < r.LonMin {
		return 0, fmt.Errorf("grid ranges must be non-empty")
	}
	nLat, nLon := r.dims()
	return nLat * nLon, nil
}

// Sample is the field at one grid point.
type Sample struct {
	LatDeg float64     `json:"lat"`
	LonDeg float64     `json:"lon"`
	Field  field.Field `json:"field"`
}

type job struct {
	lat, lon float64
}

type result struct {
	sample Sample
	err    error
}

// Pool manages a fixed number of goroutines for parallel field
// evaluation.
type Pool struct {
	workers int
	logger  *slog.Logger
}

// NewPool creates a worker pool with the given number of workers.
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		logger:  logger,
	}
}

// Compute evaluates the field at every point of the grid. Points whose
// evaluation fails (e.g. altitude outside the model bounds) are logged
// and skipped. Returns the successful samples plus success and error
// counts.
func (p *Pool) Compute(ctx context.Context, mdl field.Model, req Request) ([]Sample, int, int, error) {
	total, err := req.Points()
	if err != nil {
		return nil, 0, 0, err
	}

	jobs := make(chan job, p.workers*2)
	results := make(chan result, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var scratch field.Scratch
			for jb := range jobs {
				f, err := field.Evaluate(mdl, jb.lat, jb.lon, req.AltM, &scratch)
				res := result{
					sample: Sample{LatDeg: jb.lat, LonDeg: jb.lon, Field: f},
					err:    err,
				}
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine. Points come from the index form so
	// float accumulation cannot drift past the count Points() gave.
	nLat, nLon := req.dims()
	go func() {
		defer close(jobs)
		for i := 0; i < nLat; i++ {
			lat := req.LatMin + float64(i)*req.LatStep
			for j := 0; j < nLon; j++ {
				lon := req.LonMin + float64(j)*req.LonStep
				select {
				case jobs <- job{lat: lat, lon: lon}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	samples := make([]Sample, 0, total)
	var successCount, errorCount int
	for res := range results {
		if res.err != nil {
			errorCount++
			p.logger.Warn("grid point evaluation failed",
				"lat", res.sample.LatDeg,
				"lon", res.sample.LonDeg,
				"error", res.err,
			)
			continue
		}
		successCount++
		samples = append(samples, res.sample)
	}

	return samples, successCount, errorCount, nil
}
