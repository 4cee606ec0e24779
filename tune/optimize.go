package tune

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"sync"

	"gonum.org/v1/gonum/optimize"
)

// ErrNoEvaluations is returned when the search ends before scoring anything.
var ErrNoEvaluations = errors.New("tune: no evaluations completed")

// Options controls a search.
type Options struct {
	MaxEvals     int
	Population   int     // 0 picks from the dimension
	InitStepSize float64 // in normalized units; 0 uses 0.3
	Log          io.Writer
	Progress     func(eval int, fitness, best float64)
}

// Result is the best point found.
type Result struct {
	Params      []float64 // clamped raw values, ordered as ParamVector.Specs
	Fitness     float64
	Evaluations int
}

// Run minimizes the evaluator's fitness with CMA-ES in the normalized
// parameter space, starting from the defaults. Every evaluation is appended
// to opts.Log as CSV when set.
func Run(ev *Evaluator, opts Options) (Result, error) {
	params := ev.params
	dim := params.Dim()

	var logWriter *csv.Writer
	if opts.Log != nil {
		logWriter = csv.NewWriter(opts.Log)
		header := []string{"eval", "fitness"}
		for _, spec := range params.Specs {
			header = append(header, spec.Name)
		}
		if err := logWriter.Write(header); err != nil {
			return Result{}, fmt.Errorf("writing tune log: %w", err)
		}
		logWriter.Flush()
	}

	var (
		mu   sync.Mutex
		best = Result{Fitness: math.Inf(1)}
	)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness := ev.Evaluate(clamped)

			mu.Lock()
			defer mu.Unlock()
			best.Evaluations++
			if fitness < best.Fitness {
				best.Fitness = fitness
				best.Params = clamped
			}

			if logWriter != nil {
				row := []string{strconv.Itoa(best.Evaluations), strconv.FormatFloat(fitness, 'f', 6, 64)}
				for _, v := range clamped {
					row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
				}
				logWriter.Write(row)
				logWriter.Flush()
			}
			if opts.Progress != nil {
				opts.Progress(best.Evaluations, fitness, best.Fitness)
			}
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: max(1, opts.MaxEvals),
		Concurrent:      0, // Sequential evaluation
	}

	popSize := opts.Population
	if popSize == 0 {
		popSize = 4 + int(3*math.Log(float64(dim)))
	}
	step := opts.InitStepSize
	if step == 0 {
		step = 0.3
	}
	method := &optimize.CmaEsChol{
		InitStepSize: step,
		Population:   popSize,
	}

	initX := params.Normalize(params.DefaultVector())
	if _, err := optimize.Minimize(problem, initX, settings, method); err != nil {
		slog.Debug("optimization ended", "error", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if best.Params == nil {
		return best, ErrNoEvaluations
	}
	if logWriter != nil {
		if err := logWriter.Error(); err != nil {
			return best, fmt.Errorf("writing tune log: %w", err)
		}
	}
	return best, nil
}
