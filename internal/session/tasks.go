package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/opsfolio/resource-surveillance-sub000/internal/behavior"
	"github.com/opsfolio/resource-surveillance-sub000/internal/device"
	"github.com/opsfolio/resource-surveillance-sub000/internal/rssd"
	"github.com/opsfolio/resource-surveillance-sub000/internal/walk"
)

// TasksOptions configures one `ingest tasks` run: each non-blank line read
// from Input is executed as a capturable executable and its output is
// stored against ur_ingest_session_task, grounded on
// original_source/src/resource_serde/src/ingest/tasks.rs's `ingest_tasks`.
type TasksOptions struct {
	Input   io.Reader
	Nature  string // default "json" when empty
	Metrics Metrics

	// Behavior, LoadBehaviorName and SaveBehaviorName resolve and persist
	// an IngestTasksBehavior the same way FilesOptions does for
	// IngestFilesBehavior: an explicit Behavior wins, otherwise a named one
	// is loaded from the RSSD, otherwise an empty classifier is used.
	Behavior         *behavior.IngestTasksBehavior
	LoadBehaviorName string
	SaveBehaviorName string
}

// IngestTasks mirrors IngestFiles' transaction shape but has no filesystem
// root: every line is itself the capturable-executable candidate.
func IngestTasks(ctx context.Context, dbFsPath string, opts TasksOptions) (Result, error) {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	started := startTime()

	conn, err := rssd.Open(ctx, dbFsPath)
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestTasks: open: %w", err)
	}
	defer conn.Close()

	tx, err := conn.DB.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestTasks: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := rssd.Bootstrap(ctx, tx); err != nil {
		return Result{}, fmt.Errorf("session.IngestTasks: bootstrap: %w", err)
	}

	dev, err := device.New("")
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestTasks: device: %w", err)
	}
	sysinfo, err := device.StateSysinfoJSON(ctx)
	if err != nil {
		sysinfo = "{}"
	}
	deviceID, err := rssd.UpsertDevice(ctx, tx, dev.Name, device.State, dev.Boundary, sysinfo)
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestTasks: upsert device: %w", err)
	}

	loadedBehavior := opts.Behavior
	if loadedBehavior == nil && opts.LoadBehaviorName != "" {
		confJSON, found, err := rssd.LoadBehaviorConfig(ctx, tx, deviceID, opts.LoadBehaviorName)
		if err != nil {
			return Result{}, fmt.Errorf("session.IngestTasks: load behavior %s: %w", opts.LoadBehaviorName, err)
		}
		if found {
			b, err := behavior.FromTasksJSON([]byte(confJSON))
			if err != nil {
				return Result{}, fmt.Errorf("session.IngestTasks: parse behavior %s: %w", opts.LoadBehaviorName, err)
			}
			loadedBehavior = &b
		} else {
			log.Warn().Str("behavior", opts.LoadBehaviorName).Msg("session: named task behavior not found, using default")
		}
	}
	beh := behavior.NewTasksBehavior(behavior.ClassifierJSON{})
	if loadedBehavior != nil {
		beh = *loadedBehavior
	}

	var behaviorID string
	if opts.SaveBehaviorName != "" {
		confJSON, err := beh.PersistableJSONText()
		if err != nil {
			return Result{}, fmt.Errorf("session.IngestTasks: behavior json: %w", err)
		}
		behaviorID, err = rssd.UpsertBehavior(ctx, tx, deviceID, opts.SaveBehaviorName, confJSON)
		if err != nil {
			return Result{}, fmt.Errorf("session.IngestTasks: upsert behavior: %w", err)
		}
	}
	behaviorJSON, err := beh.PersistableJSONText()
	if err != nil {
		behaviorJSON = "{}"
	}

	sessionID, err := rssd.InsertSession(ctx, tx, deviceID, behaviorID, behaviorJSON, started.Format(time.RFC3339))
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestTasks: insert session: %w", err)
	}

	taskWalker := walk.NewTaskLineWalker(opts.Input)
	if opts.Nature != "" {
		taskWalker.Nature = opts.Nature
	}

	walkErr := taskWalker.Walk(func(enc walk.Encountered) bool {
		handleTaskLine(ctx, tx, deviceID, sessionID, enc, metrics)
		return true
	})
	if walkErr != nil {
		log.Error().Err(walkErr).Msg("session: task-line walk error")
	}

	if err := rssd.FinishSession(ctx, tx, sessionID, finishTime().Format(time.RFC3339)); err != nil {
		log.Error().Err(err).Msg("session: unable to finish task session row")
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("session.IngestTasks: commit: %w", err)
	}
	committed = true

	finished := finishTime()
	metrics.ObserveSessionDuration(finished.Sub(started).Seconds())
	return Result{SessionID: sessionID, DeviceID: deviceID, Started: started, Finished: finished}, nil
}

// handleTaskLine runs enc's capturable executable and records the outcome
// as a ur_ingest_session_task row; there is no fs_path for task lines, so
// this writes directly rather than going through handleEncountered.
func handleTaskLine(ctx context.Context, tx *sql.Tx, deviceID, sessionID string, enc walk.Encountered, metrics Metrics) {
	if enc.Kind != walk.KindResource {
		return
	}

	wc := writeCtx{tx: tx, deviceID: deviceID, sessionID: sessionID, metrics: metrics}
	action := writeCapturableExec(ctx, wc, enc.Resource)
	metrics.IncURStatus(action.Status())

	uniformResourceID := action.UniformResourceID
	if action.Kind == ActionCapturedExecutableSqlOutput {
		if _, err := tx.ExecContext(ctx, action.SQLScript); err != nil {
			action = WriterAction{
				Kind: ActionError, URI: action.URI, Err: err,
				CapturedExecDiags: map[string]any{"SQL": action.SQLScript},
			}
			metrics.IncURStatus(action.Status())
		} else {
			action.URStatusOverride = "EXECUTED_CAPTURED_SQL"
		}
	}

	var capturedExecJSON string
	if action.CapturedExecDiags != nil {
		if b, err := json.Marshal(action.CapturedExecDiags); err == nil {
			capturedExecJSON = string(b)
		}
	}

	if _, err := rssd.InsertTaskEntry(ctx, tx, sessionID, capturedExecJSON, uniformResourceID, action.Status(), action.Diagnostics()); err != nil {
		log.Error().Err(err).Str("uri", enc.URI).Msg("session: unable to insert task entry")
	}
}
