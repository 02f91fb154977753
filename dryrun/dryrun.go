// Package dryrun implements the non-writing rehearsal producer:
// it generates the would-be SELECT, samples and
// transforms one page, validates the output rows, probes the
// destination's fast-path eligibility, and composes the findings into
// a single structured report without ever writing to the destination.
package dryrun

import (
	"context"

	"github.com/dataflux/dataflux/internal/errs"
	"github.com/dataflux/dataflux/mapping"
	"github.com/dataflux/dataflux/offset"
	"github.com/dataflux/dataflux/producer"
	"github.com/dataflux/dataflux/sink"
	"github.com/dataflux/dataflux/sqlgen"
	"github.com/dataflux/dataflux/source"
	"github.com/dataflux/dataflux/validate"
	"github.com/dataflux/dataflux/value"
)

// Status is the dry run's overall outcome, derived from the worst
// severity finding across schema validation; sample rows that failed
// to transform count as warnings.
type Status int

const (
	Success Status = iota
	SuccessWithWarnings
	Failure
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case SuccessWithWarnings:
		return "success_with_warnings"
	default:
		return "failure"
	}
}

// FastPathSummary reports whether the destination's COPY+MERGE fast
// path is usable for this table, and why not when it isn't — most
// commonly because the table carries no primary key for the MERGE/
// UPSERT half of the path to key on.
type FastPathSummary struct {
	Supported bool
	Reason string
	Capabilities sink.Capabilities
}

// TransformSummary reports how the sample page fared through the
// transform stage.
type TransformSummary struct {
	SampledRows int
	TransformedRows int
	FailedRows []errs.FailedRow
}

// Config bundles everything one dry run needs: live collaborators
// (Source, Destination, Generator) plus the already-resolved pipeline
// configuration (mapping, offset strategy, table shape, row
// transformer) that a real run would also use.
type Config struct {
	Entity string
	DestTable string
	BatchSize int
	Table sqlgen.TableMeta
	Strategy offset.Strategy
	Fields mapping.FieldTransformations
	Transform producer.RowTransformer
	Src source.Source
	Dest sink.Destination
	Gen sqlgen.Generator
	Validator *validate.Validator
}

// Report is the composed result of one dry run.
type Report struct {
	Summary string
	GeneratedSQL []sqlgen.Statement
	Transform TransformSummary
	Mapping mapping.FieldTransformations
	SchemaValidation []validate.Finding
	OffsetValidation string
	FastPathSummary FastPathSummary
	Status Status
}

// Run executes the dry-run pipeline against cfg, never writing to the
// destination.
func Run(ctx context.Context, cfg Config) (Report, error) {
	var report Report
	report.Mapping = cfg.Fields

	// (i) SqlGeneration
	sql, offsetNote, err := generateSelect(cfg)
	if err != nil {
		return Report{}, err
	}
	report.GeneratedSQL = sql
	report.OffsetValidation = offsetNote

	// (ii) SchemaValidation is cfg.Validator, already initialized by
	// the caller from the destination's metadata graph.

	// (iii) Sampling
	page, err := cfg.Src.FetchData(ctx, cfg.BatchSize, offset.NoneCursor())
	if err != nil {
		return Report{}, err
	}
	report.Transform.SampledRows = len(page.Rows)

	transformed, failedRows := sampleTransform(page.Rows, cfg.Transform)
	report.Transform.TransformedRows = len(transformed)
	report.Transform.FailedRows = failedRows

	for _, row := range transformed {
		findings := cfg.Validator.ValidateRow(cfg.DestTable, row)
		report.SchemaValidation = append(report.SchemaValidation, findings...)
	}

	// (iv) FastPath
	report.FastPathSummary = probeFastPath(ctx, cfg)

	// (v) compose status
	report.Status = composeStatus(report)
	report.Summary = summarize(report)
	return report, nil
}

func generateSelect(cfg Config) ([]sqlgen.Statement, string, error) {
	reqs, err := cfg.Src.BuildFetchRowsRequests(cfg.BatchSize, offset.NoneCursor())
	if err != nil {
		return nil, "", err
	}
	var statements []sqlgen.Statement
	for _, req := range reqs {
		if cfg.Strategy != nil {
			req.Builder = cfg.Strategy.ApplyToBuilder(req.Builder, offset.NoneCursor(), cfg.BatchSize)
		}
		stmt, err := cfg.Gen.Select(req)
		if err != nil {
			return nil, "", err
		}
		statements = append(statements, stmt)
	}
	note := "no offset strategy configured; page will not advance deterministically"
	if cfg.Strategy != nil {
		note = "offset strategy " + cfg.Strategy.Name() + " applied to first page"
	}
	return statements, note, nil
}

func sampleTransform(rows []value.RowData, transform producer.RowTransformer) ([]value.RowData, []errs.FailedRow) {
	if transform == nil {
		return rows, nil
	}
	var out []value.RowData
	var failed []errs.FailedRow
	for i, row := range rows {
		t, err := transform(row)
		if err != nil {
			failed = append(failed, errs.NewFailedRow("dryrun", "sample", "sample", i, "transform", err, nil))
			continue
		}
		out = append(out, t)
	}
	return out, failed
}

func probeFastPath(ctx context.Context, cfg Config) FastPathSummary {
	if cfg.Dest == nil {
		return FastPathSummary{Supported: false, Reason: "no destination configured"}
	}
	caps, err := cfg.Dest.Adapter().Capabilities(ctx, cfg.DestTable)
	if err != nil {
		return FastPathSummary{Supported: false, Reason: err.Error()}
	}
	if len(cfg.Table.PrimaryKeys) == 0 {
		return FastPathSummary{Supported: false, Reason: "destination table has no primary key for MERGE/UPSERT", Capabilities: caps}
	}
	s := cfg.Dest.Sink()
	if s == nil {
		return FastPathSummary{Supported: false, Reason: "destination exposes no sink", Capabilities: caps}
	}
	ok, reason := s.SupportFastPath(ctx, cfg.Table)
	return FastPathSummary{Supported: ok, Reason: reason, Capabilities: caps}
}

func composeStatus(r Report) Status {
	hasError := false
	hasWarning := len(r.Transform.FailedRows) > 0
	for _, f := range r.SchemaValidation {
		if f.Severity == validate.SeverityError {
			hasError = true
		} else {
			hasWarning = true
		}
	}
	switch {
	case hasError:
		return Failure
	case hasWarning:
		return SuccessWithWarnings
	default:
		return Success
	}
}

func summarize(r Report) string {
	switch r.Status {
	case Failure:
		return "dry run found schema errors that would abort a real run"
	case SuccessWithWarnings:
		return "dry run completed with warnings"
	default:
		return "dry run completed with no findings"
	}
}
