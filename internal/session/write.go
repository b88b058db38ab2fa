package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/opsfolio/resource-surveillance-sub000/internal/builder"
	"github.com/opsfolio/resource-surveillance-sub000/internal/capexec"
	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
	"github.com/opsfolio/resource-surveillance-sub000/internal/rssd"
)

// writeCtx carries the identifiers every write needs, avoiding a long
// positional parameter list across the dispatch functions below.
type writeCtx struct {
	tx        *sql.Tx
	deviceID  string
	sessionID string
	fsPathID  string
	metrics   Metrics
}

// writeUniformResource dispatches one builder.Build result to the matching
// insert routine, mirroring the `UniformResourceWriter` trait impls in
// original_source/src/resource_serde/src/ingest/mod.rs.
func writeUniformResource(ctx context.Context, wc writeCtx, ur *resource.UniformResource) WriterAction {
	cr := ur.Resource

	switch ur.Kind {
	case resource.VariantCapturableExec:
		return writeCapturableExec(ctx, wc, cr)
	case resource.VariantMarkdown:
		return writeMarkdown(ctx, wc, cr)
	case resource.VariantXML:
		return writeXML(ctx, wc, cr)
	case resource.VariantImage:
		return writeBinary(ctx, wc, cr)
	case resource.VariantUnknown:
		return writeUnknown(ctx, wc, cr, ur.TriedAlternateNature)
	default: // HTML, JSON, JsonableText, PlainText, SourceCode, ImapResource
		return writeText(ctx, wc, cr, cr.Nature)
	}
}

func sizeBytesPtr(n int) *int64 {
	v := int64(n)
	return &v
}

func lastModifiedString(cr *resource.ContentResource) string {
	if cr.LastModifiedAt == nil {
		return ""
	}
	return cr.LastModifiedAt.Format("2006-01-02T15:04:05Z07:00")
}

func writeText(ctx context.Context, wc writeCtx, cr *resource.ContentResource, nature string) WriterAction {
	supplied := cr.SupplyText()
	if supplied.Err == resource.ErrContentUnavailable {
		return WriterAction{Kind: ActionContentUnavailable, URI: cr.URI}
	}
	if supplied.Err != nil {
		return WriterAction{Kind: ActionContentSupplierError, URI: cr.URI, Err: supplied.Err}
	}

	id, _, err := rssd.InsertUniformResource(ctx, wc.tx, rssd.UniformResourceRow{
		DeviceID: wc.deviceID, SessionID: wc.sessionID, FsPathID: wc.fsPathID,
		URI: cr.URI, ContentDigest: supplied.Digest, Content: []byte(supplied.Text),
		Nature: nature, SizeBytes: cr.SizeBytes, LastModifiedAt: lastModifiedString(cr),
	})
	if err != nil {
		return WriterAction{Kind: ActionError, URI: cr.URI, Err: err}
	}
	wc.metrics.IncUniformResourceInserted()
	return WriterAction{Kind: ActionInserted, URI: cr.URI, UniformResourceID: id}
}

func writeBinary(ctx context.Context, wc writeCtx, cr *resource.ContentResource) WriterAction {
	supplied := cr.SupplyBinary()
	if supplied.Err == resource.ErrContentUnavailable {
		return WriterAction{Kind: ActionContentUnavailable, URI: cr.URI}
	}
	if supplied.Err != nil {
		return WriterAction{Kind: ActionContentSupplierError, URI: cr.URI, Err: supplied.Err}
	}

	id, _, err := rssd.InsertUniformResource(ctx, wc.tx, rssd.UniformResourceRow{
		DeviceID: wc.deviceID, SessionID: wc.sessionID, FsPathID: wc.fsPathID,
		URI: cr.URI, ContentDigest: supplied.Digest, Content: supplied.Binary,
		Nature: cr.Nature, SizeBytes: cr.SizeBytes, LastModifiedAt: lastModifiedString(cr),
	})
	if err != nil {
		return WriterAction{Kind: ActionError, URI: cr.URI, Err: err}
	}
	wc.metrics.IncUniformResourceInserted()
	return WriterAction{Kind: ActionInserted, URI: cr.URI, UniformResourceID: id}
}

func writeUnknown(ctx context.Context, wc writeCtx, cr *resource.ContentResource, triedAlternate string) WriterAction {
	id, _, err := rssd.InsertUniformResource(ctx, wc.tx, rssd.UniformResourceRow{
		DeviceID: wc.deviceID, SessionID: wc.sessionID, FsPathID: wc.fsPathID,
		URI: cr.URI, ContentDigest: resource.NoDigest, Content: nil,
		Nature: cr.Nature, SizeBytes: cr.SizeBytes, LastModifiedAt: lastModifiedString(cr),
	})
	if err != nil {
		return WriterAction{Kind: ActionError, URI: cr.URI, Err: err}
	}
	nature := triedAlternate
	if nature == "" {
		nature = cr.Nature
	}
	if nature == "" {
		nature = "?"
	}
	return WriterAction{
		Kind: ActionInserted, URI: cr.URI, UniformResourceID: id,
		URStatusOverride: fmt.Sprintf("UKNOWN_NATURE(%s)", nature),
	}
}

func writeMarkdown(ctx context.Context, wc writeCtx, cr *resource.ContentResource) WriterAction {
	supplied := cr.SupplyText()
	if supplied.Err == resource.ErrContentUnavailable {
		return WriterAction{Kind: ActionContentUnavailable, URI: cr.URI}
	}
	if supplied.Err != nil {
		return WriterAction{Kind: ActionContentSupplierError, URI: cr.URI, Err: supplied.Err}
	}

	fm := builder.BuildMarkdownFrontmatter(supplied.Text)
	var fmBodyAttrs, fmJSON string
	if fm.HasFence && fm.Parsed != nil {
		attrsJSON, err := json.Marshal(fm.Parsed)
		if err == nil {
			fmJSON = string(attrsJSON)
			wrapped, err := json.Marshal(map[string]any{
				"frontMatter": fm.Raw,
				"body":        fm.Body,
				"attrs":       fm.Parsed,
			})
			if err == nil {
				fmBodyAttrs = string(wrapped)
			}
		}
	}

	id, _, err := rssd.InsertUniformResource(ctx, wc.tx, rssd.UniformResourceRow{
		DeviceID: wc.deviceID, SessionID: wc.sessionID, FsPathID: wc.fsPathID,
		URI: cr.URI, ContentDigest: supplied.Digest, Content: []byte(supplied.Text),
		Nature: cr.Nature, SizeBytes: cr.SizeBytes, LastModifiedAt: lastModifiedString(cr),
		ContentFmBodyAttrs: fmBodyAttrs, Frontmatter: fmJSON,
	})
	if err != nil {
		return WriterAction{Kind: ActionError, URI: cr.URI, Err: err}
	}
	wc.metrics.IncUniformResourceInserted()
	return WriterAction{Kind: ActionInserted, URI: cr.URI, UniformResourceID: id}
}

func writeXML(ctx context.Context, wc writeCtx, cr *resource.ContentResource) WriterAction {
	supplied := cr.SupplyText()
	if supplied.Err == resource.ErrContentUnavailable {
		return WriterAction{Kind: ActionContentUnavailable, URI: cr.URI}
	}
	if supplied.Err != nil {
		return WriterAction{Kind: ActionContentSupplierError, URI: cr.URI, Err: supplied.Err}
	}

	id, _, err := rssd.InsertUniformResource(ctx, wc.tx, rssd.UniformResourceRow{
		DeviceID: wc.deviceID, SessionID: wc.sessionID, FsPathID: wc.fsPathID,
		URI: cr.URI, ContentDigest: supplied.Digest, Content: []byte(supplied.Text),
		Nature: cr.Nature, SizeBytes: cr.SizeBytes, LastModifiedAt: lastModifiedString(cr),
	})
	if err != nil {
		return WriterAction{Kind: ActionError, URI: cr.URI, Err: err}
	}
	wc.metrics.IncUniformResourceInserted()

	transformed, err := xmlToJSON(supplied.Text)
	if err != nil {
		return WriterAction{Kind: ActionError, URI: cr.URI, Err: err}
	}
	transformDigest := resource.Sha1Hex([]byte(transformed))
	_, err = rssd.InsertUniformResourceTransform(ctx, wc.tx, id, cr.URI, transformDigest,
		[]byte(transformed), "json", int64(len(transformed)))
	if err != nil {
		return WriterAction{Kind: ActionError, URI: cr.URI, Err: err}
	}
	return WriterAction{Kind: ActionInserted, URI: cr.URI, UniformResourceID: id}
}

func writeCapturableExec(ctx context.Context, wc writeCtx, cr *resource.ContentResource) WriterAction {
	if cr.CapTextSupplier != nil {
		_ = writeText(ctx, wc, cloneForOwnSource(cr), cr.Nature)
	}

	ce := cr.CapturableExec
	if ce == nil || !ce.Executable {
		return WriterAction{Kind: ActionCapturableExecNotExecutable, URI: cr.URI}
	}

	envelope := capexec.IngestEnvelope{SurveilrIngest: capexec.IngestContext{
		Device:  capexec.IngestDevice{DeviceID: wc.deviceID},
		Session: capexec.IngestSession{WalkSessionID: wc.sessionID, WalkPathID: wc.fsPathID, DirEntry: capexec.IngestDirEntry{Path: cr.URI}},
	}}
	stdin, err := capexec.MarshalEnvelope(envelope)
	if err != nil {
		return WriterAction{Kind: ActionCapturableExecError, URI: cr.URI, Err: err}
	}

	exec := capexec.NewNativeExecutive(ce.URI)
	start := startTime()
	result, err := exec.Execute(ctx, stdin)
	wc.metrics.ObserveCapturableExecDuration(finishTime().Sub(start).Seconds())
	if err != nil {
		return WriterAction{Kind: ActionCapturableExecError, URI: cr.URI, Err: err}
	}

	diags := map[string]any{
		"args": []string{}, "stdin": string(stdin),
		"exit-status": result.ExitStatus, "stderr": result.Stderr,
	}

	if result.ExitStatus != 0 {
		return WriterAction{Kind: ActionCapturedExecutableNonZeroExit, URI: cr.URI, ShellResult: result, CapturedExecDiags: diags}
	}

	if ce.IsBatchedSQL {
		return WriterAction{Kind: ActionCapturedExecutableSqlOutput, URI: cr.URI, SQLScript: result.Stdout, CapturedExecDiags: diags}
	}

	outputDigest := result.StdoutHash()
	outputSize := sizeBytesPtr(len(result.Stdout))
	id, _, err := rssd.InsertUniformResource(ctx, wc.tx, rssd.UniformResourceRow{
		DeviceID: wc.deviceID, SessionID: wc.sessionID, FsPathID: wc.fsPathID,
		URI: cr.URI, ContentDigest: outputDigest, Content: []byte(result.Stdout),
		Nature: ce.Nature, SizeBytes: outputSize,
	})
	if err != nil {
		return WriterAction{Kind: ActionCapturableExecUrCreateError, URI: cr.URI, Err: err}
	}
	wc.metrics.IncUniformResourceInserted()
	return WriterAction{Kind: ActionInsertedExecutableOutput, URI: cr.URI, UniformResourceID: id, CapturedExecDiags: diags}
}

// cloneForOwnSource builds a throwaway ContentResource so the capturable
// executable's own source text can be stored via the normal text writer
// without letting that call mutate the original cr (whose CapturableExec
// supplier is still needed afterwards).
func cloneForOwnSource(cr *resource.ContentResource) *resource.ContentResource {
	return &resource.ContentResource{
		URI: cr.URI, Nature: "surveilr-capturable-exec-source",
		SizeBytes: cr.SizeBytes, LastModifiedAt: cr.LastModifiedAt,
		TextSupplier: cr.CapTextSupplier, Flags: cr.Flags,
	}
}
