package engine

import (
	"context"
	"sort"
	"time"

	fsh "github.com/FHIR/sushi-sub009"
	"github.com/FHIR/sushi-sub009/element"
	"github.com/FHIR/sushi-sub009/rules"
	"github.com/FHIR/sushi-sub009/worker"
)

// Outcome is one artifact's compilation output. Definition is nil when the
// result is marked failed.
type Outcome struct {
	Document   *rules.Document
	Definition *element.StructureDefinition
	Result     *fsh.Result
	Duration   time.Duration
}

type batchJob struct {
	idx int
	doc *rules.Document
}

type batchOut struct {
	idx     int
	outcome Outcome
}

// CompileAll compiles the documents in parallel over a worker pool.
// Documents are independent: each compilation works on its own tree and
// shares only the read-only fisher. Outcomes come back in input order.
func (e *Engine) CompileAll(ctx context.Context, docs []*rules.Document) []Outcome {
	if len(docs) == 0 {
		return nil
	}

	handler := func(_ context.Context, job batchJob) batchOut {
		start := time.Now()
		sd, result := e.Compile(job.doc)
		elapsed := time.Since(start)
		e.stats.RecordArtifact(result, elapsed)

		e.logger.Debug().
			Str("artifact", job.doc.Name).
			Bool("succeeded", result.Succeeded).
			Int("errors", result.ErrorCount()).
			Int("warnings", result.WarningCount()).
			Dur("elapsed", elapsed).
			Msg("compiled")

		return batchOut{
			idx: job.idx,
			outcome: Outcome{
				Document:   job.doc,
				Definition: sd,
				Result:     result,
				Duration:   elapsed,
			},
		}
	}

	pool := worker.NewPool(ctx, handler, e.opts.WorkerCount)
	go func() {
		for i, doc := range docs {
			if !pool.Submit(batchJob{idx: i, doc: doc}) {
				break
			}
		}
		pool.Close()
	}()

	collected := make([]batchOut, 0, len(docs))
	for out := range pool.Results() {
		collected = append(collected, out)
	}
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].idx < collected[j].idx
	})

	outcomes := make([]Outcome, 0, len(collected))
	for _, out := range collected {
		outcomes = append(outcomes, out.outcome)
	}
	return outcomes
}
