package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/opsfolio/resource-surveillance-sub000/internal/device"
	"github.com/opsfolio/resource-surveillance-sub000/internal/imap"
	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
	"github.com/opsfolio/resource-surveillance-sub000/internal/rssd"
)

// ImapOptions configures one `ingest imap` run, grounded on
// original_source/src/resource_serde/src/ingest/imap/mod.rs's `ingest_imap`.
type ImapOptions struct {
	Config  imap.Config
	Folders []string
	Metrics Metrics
}

// imapElaboration mirrors the original's ImapElaboration/FolderElaboration
// JSON shape, stored as the session's summary in ur_ingest_session.elaboration
// via rssd.SetSessionElaboration.
type imapElaboration struct {
	DiscoveredFolderCount int                      `json:"discovered_folder_count"`
	EmailFetchDuration    string                   `json:"email_fetch_duration"`
	EmailIngestDuration   string                   `json:"email_ingest_duration"`
	Folders               map[string]folderSummary `json:"folders"`
}

type folderSummary struct {
	Name             string `json:"name"`
	MessageCount     int    `json:"message_count"`
	TextPlainCount   int    `json:"text_plain_count"`
	HTMLContentCount int    `json:"html_content_count"`
}

// IngestImap connects to the configured mailbox, fetches each requested
// folder in bounded batches, and writes every message's raw text, full
// JSON, and text/plain and text/html bodies as separate uniform_resource
// rows, exactly as the original's per-message insert sequence does.
func IngestImap(ctx context.Context, dbFsPath string, opts ImapOptions) (Result, error) {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	started := startTime()

	conn, err := rssd.Open(ctx, dbFsPath)
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestImap: open: %w", err)
	}
	defer conn.Close()

	tx, err := conn.DB.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestImap: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := rssd.Bootstrap(ctx, tx); err != nil {
		return Result{}, fmt.Errorf("session.IngestImap: bootstrap: %w", err)
	}

	dev, err := device.New("")
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestImap: device: %w", err)
	}
	sysinfo, err := device.StateSysinfoJSON(ctx)
	if err != nil {
		sysinfo = "{}"
	}
	deviceID, err := rssd.UpsertDevice(ctx, tx, dev.Name, device.State, dev.Boundary, sysinfo)
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestImap: upsert device: %w", err)
	}

	sessionID, err := rssd.InsertSession(ctx, tx, deviceID, "", "{}", started.Format(time.RFC3339))
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestImap: insert session: %w", err)
	}

	accountID, err := rssd.InsertIMAPAccount(ctx, tx, sessionID, opts.Config.Username, opts.Config.Addr)
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestImap: insert account: %w", err)
	}

	fetchStart := nowFn()
	client, err := imap.New(ctx, opts.Config)
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestImap: connect: %w", err)
	}
	defer client.Close()

	folderNames := opts.Folders
	if len(folderNames) == 0 {
		folderNames = opts.Config.Mailboxes
	}

	elaboration := imapElaboration{Folders: map[string]folderSummary{}}
	fetchDuration := nowFn().Sub(fetchStart)

	ingestStart := nowFn()
	for _, name := range folderNames {
		folder, err := client.FetchFolder(ctx, name)
		if err != nil {
			log.Error().Err(err).Str("folder", name).Msg("session: imap fetch error, skipping folder")
			continue
		}
		summary := writeImapFolder(ctx, tx, deviceID, sessionID, accountID, opts.Config.Username, folder, metrics)
		elaboration.Folders[name] = summary
	}
	elaboration.DiscoveredFolderCount = len(folderNames)
	elaboration.EmailFetchDuration = fetchDuration.String()
	elaboration.EmailIngestDuration = nowFn().Sub(ingestStart).String()

	summaryJSON, err := json.MarshalIndent(elaboration, "", "  ")
	if err != nil {
		summaryJSON = []byte("{}")
	}
	if err := rssd.FinishSession(ctx, tx, sessionID, finishTime().Format(time.RFC3339)); err != nil {
		log.Error().Err(err).Msg("session: unable to finish imap session row")
	}
	if err := rssd.SetSessionElaboration(ctx, tx, sessionID, string(summaryJSON)); err != nil {
		log.Error().Err(err).Msg("session: unable to store imap elaboration")
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("session.IngestImap: commit: %w", err)
	}
	committed = true

	finished := finishTime()
	metrics.ObserveSessionDuration(finished.Sub(started).Seconds())
	return Result{SessionID: sessionID, DeviceID: deviceID, Started: started, Finished: finished}, nil
}

// writeImapFolder inserts the folder row and every message's raw text,
// full JSON, text/plain bodies, and text/html bodies as separate
// uniform_resource rows, per ingest/imap/mod.rs's `process_emails`.
func writeImapFolder(ctx context.Context, tx *sql.Tx, deviceID, sessionID, accountID, username string, folder imap.Folder, metrics Metrics) folderSummary {
	summary := folderSummary{Name: folder.Name, MessageCount: len(folder.Messages)}

	folderID, err := rssd.InsertIMAPFolder(ctx, tx, accountID, folder.Name)
	if err != nil {
		log.Error().Err(err).Str("folder", folder.Name).Msg("session: unable to insert imap folder")
		return summary
	}

	for _, msg := range folder.Messages {
		uri := fmt.Sprintf("smtp://%s/%s", username, msg.MessageID)

		urID, _, err := rssd.InsertUniformResource(ctx, tx, rssd.UniformResourceRow{
			DeviceID: deviceID, SessionID: sessionID,
			URI: uri, ContentDigest: resource.Sha1Hex([]byte(msg.RawText)),
			Content: []byte(msg.RawText), Nature: "text",
			SizeBytes: sizeBytesPtr(len(msg.RawText)),
		})
		if err != nil {
			log.Error().Err(err).Str("uri", uri).Msg("session: unable to insert imap message text")
			continue
		}
		metrics.IncUniformResourceInserted()

		if _, err := rssd.InsertIMAPMessage(ctx, tx, folderID, urID, 0, msg.MessageID, msg.Subject); err != nil {
			log.Error().Err(err).Str("uri", uri).Msg("session: unable to insert imap message row")
		}

		if msg.RawJSON != "" {
			if _, _, err := rssd.InsertUniformResource(ctx, tx, rssd.UniformResourceRow{
				DeviceID: deviceID, SessionID: sessionID,
				URI: uri + "/json", ContentDigest: resource.Sha1Hex([]byte(msg.RawJSON)),
				Content: []byte(msg.RawJSON), Nature: "json",
				SizeBytes: sizeBytesPtr(len(msg.RawJSON)),
			}); err == nil {
				metrics.IncUniformResourceInserted()
			}
		}

		for _, text := range msg.TextPlain {
			if _, _, err := rssd.InsertUniformResource(ctx, tx, rssd.UniformResourceRow{
				DeviceID: deviceID, SessionID: sessionID,
				URI: uri + "/txt", ContentDigest: resource.Sha1Hex([]byte(text)),
				Content: []byte(text), Nature: "txt", SizeBytes: sizeBytesPtr(len(text)),
			}); err == nil {
				metrics.IncUniformResourceInserted()
				summary.TextPlainCount++
			}
		}

		for _, html := range msg.TextHTML {
			if _, _, err := rssd.InsertUniformResource(ctx, tx, rssd.UniformResourceRow{
				DeviceID: deviceID, SessionID: sessionID,
				URI: uri + "/html", ContentDigest: resource.Sha1Hex([]byte(html)),
				Content: []byte(html), Nature: "html", SizeBytes: sizeBytesPtr(len(html)),
			}); err == nil {
				metrics.IncUniformResourceInserted()
				summary.HTMLContentCount++
			}
		}
	}

	return summary
}
