package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeOCE/MBSync/internal/config"
	"github.com/codeOCE/MBSync/internal/decoder"
	"github.com/codeOCE/MBSync/internal/inventory"
	"github.com/codeOCE/MBSync/internal/layout"
	"github.com/codeOCE/MBSync/internal/report"
	"github.com/codeOCE/MBSync/internal/session"
)

// Importer stores a parsed report as a session.
type Importer interface {
	Import(ctx context.Context, id, filename, contentHash string, items []inventory.Item) (*session.Session, error)
}

// Worker processes a single report job.
type Worker struct {
	parser      *report.Parser
	sessions    Importer
	log         *slog.Logger
	decodeOpts  decoder.Options
	layoutCfg   layout.Config
	pageWorkers int
	stats       *JobStats
}

func NewWorker(cfg config.Config, parser *report.Parser, sessions Importer, log *slog.Logger) *Worker {
	return &Worker{
		parser:      parser,
		sessions:    sessions,
		log:         log,
		decodeOpts:  decoder.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext},
		layoutCfg:   layout.Config{RowTolerance: cfg.RowTolerance, GapThreshold: cfg.GapThreshold},
		pageWorkers: cfg.PageWorkers,
	}
}

// Process runs decode, reconstruct, parse and import for a job. Any failure
// ends the job without touching session state.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	defer job.releaseFileData()
	start := time.Now()

	fail := func(phase string, err error) {
		log.Error("job failed", "phase", phase, "error", err)
		job.AddError(err.Error())
		w.record(start, true)
		job.SetStatus(StatusFailed, phase)
	}

	// Phase 1: Decode
	job.SetStatus(StatusDecoding, "decoding")
	dec, err := decoder.ForFile(job.Filename, w.decodeOpts)
	if err != nil {
		fail("decoding", fmt.Errorf("%w: %v", decoder.ErrInvalidReport, err))
		return
	}
	doc, err := dec.Decode(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		if !errors.Is(err, decoder.ErrInvalidReport) {
			err = fmt.Errorf("%w: %v", decoder.ErrInvalidReport, err)
		}
		fail("decoding", err)
		return
	}
	job.SetDecoded(len(doc.Pages), doc.FragmentCount())

	// Phase 2: Reconstruct lines
	job.SetStatus(StatusReconstructing, "reconstructing")
	lines, err := layout.ReconstructDocument(ctx, doc, w.layoutCfg, w.pageWorkers)
	if err != nil {
		fail("reconstructing", err)
		return
	}

	// Phase 3: Parse
	job.SetStatus(StatusParsing, "parsing")
	res := w.parser.Parse(lines)
	job.SetParsed(res.Lines, len(res.Items), res.Skipped, res.Duplicates)
	log.Info("report parsed", "pages", len(doc.Pages), "lines", res.Lines,
		"items", len(res.Items), "skipped", res.Skipped, "duplicates", res.Duplicates)

	if len(res.Items) == 0 {
		fail("parsing", fmt.Errorf("%w: no data rows found", decoder.ErrInvalidReport))
		return
	}

	// Phase 4: Store
	job.SetStatus(StatusStoring, "storing")
	sess, err := w.sessions.Import(ctx, job.TargetSession(), job.Filename, job.ContentHash, res.Items)
	if err != nil {
		fail("storing", err)
		return
	}
	job.SetSession(sess.ID)
	w.record(start, false)
	job.SetStatus(StatusCompleted, "done")
	log.Info("job completed", "session_id", sess.ID, "duration_ms", time.Since(start).Milliseconds())
}

func (w *Worker) record(start time.Time, failed bool) {
	if w.stats != nil {
		w.stats.Record(time.Since(start), failed)
	}
}
