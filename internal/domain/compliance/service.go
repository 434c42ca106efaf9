package compliance

import (
	"context"
	"io"
)

// EmployeeResolver maps the identifiers carried by regulatory files to
// employee ids. Identity is an external collaborator concern; the engine
// only consumes the mapping.
type EmployeeResolver interface {
	ByCPF(ctx context.Context, cpf string) (string, error)
}

// ComplianceService is the bidirectional AFD/AEJ exchange.
type ComplianceService interface {
	// ImportAfd streams an AFD file, applying punch records through the
	// ingest rules. Malformed and duplicate lines are collected in the
	// report; cancellation mid-file keeps already-applied punches.
	ImportAfd(ctx context.Context, r io.Reader, actorID string) (ImportReport, error)

	// ExportAej streams the AEJ file for the range to w. A given range and
	// dataset always produce byte-identical output.
	ExportAej(ctx context.Context, req ExportRequest, w io.Writer) error
}
