// Package imap is the IMAP walker backend: it connects to a mailbox, lists
// folders, and fetches messages in bounded batches, grounded on
// original_source/src/resource_imap/src/lib.rs's `ImapResource` trait and
// `DefaultImapService`. Microsoft 365 OAuth is reached only through
// TokenSource, matching the original's decision to keep msft/* a
// pluggable collaborator rather than a core dependency.
package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	imapclient "github.com/emersion/go-imap/client"
	"github.com/rs/dnscache"
	"github.com/rs/zerolog/log"
)

// TokenSource supplies a bearer token for XOAUTH2 SASL login, satisfied by
// an oauth2.TokenSource wrapper for the Microsoft 365 path.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config mirrors original_source's ImapConfig.
type Config struct {
	Username           string
	Password           string
	Addr               string
	Port               int
	Mailboxes          []string
	BatchSize          uint64
	ExtractAttachments bool
	Progress           bool

	// TokenSource selects the Microsoft 365 / XOAUTH2 login path when set;
	// Username+Password is used otherwise.
	TokenSource TokenSource
}

// Folder is one mailbox folder and the messages fetched from it.
type Folder struct {
	Name     string
	Metadata string
	Messages []Message
}

var resolver = &dnscache.Resolver{}

// dialTLS resolves Addr through the shared dnscache resolver before
// dialing, so repeated connections to the same mailbox host skip
// redundant DNS lookups.
func dialTLS(ctx context.Context, addr string, port int) (*tls.Conn, error) {
	ips, err := resolver.LookupHost(ctx, addr)
	if err != nil || len(ips) == 0 {
		return nil, fmt.Errorf("imap.dialTLS: resolve %s: %w", addr, err)
	}
	dialer := &net.Dialer{Timeout: 15 * time.Second}
	hostPort := net.JoinHostPort(ips[0], fmt.Sprintf("%d", port))
	return tls.DialWithDialer(dialer, "tcp", hostPort, &tls.Config{ServerName: addr})
}

// Client fetches folders/messages from one mailbox session.
type Client struct {
	cfg  Config
	conn *imapclient.Client
}

// New dials and authenticates against cfg.Addr:cfg.Port, using XOAUTH2 when
// cfg.TokenSource is set and plain LOGIN otherwise.
func New(ctx context.Context, cfg Config) (*Client, error) {
	tlsConn, err := dialTLS(ctx, cfg.Addr, cfg.Port)
	if err != nil {
		return nil, err
	}
	c, err := imapclient.New(tlsConn)
	if err != nil {
		return nil, fmt.Errorf("imap.New: client: %w", err)
	}

	if cfg.TokenSource != nil {
		token, err := cfg.TokenSource.Token(ctx)
		if err != nil {
			c.Logout()
			return nil, fmt.Errorf("imap.New: token: %w", err)
		}
		if err := c.Authenticate(xoauth2{username: cfg.Username, token: token}); err != nil {
			c.Logout()
			return nil, fmt.Errorf("imap.New: xoauth2 authenticate: %w", err)
		}
	} else {
		if err := c.Login(cfg.Username, cfg.Password); err != nil {
			c.Logout()
			return nil, fmt.Errorf("imap.New: login: %w", err)
		}
	}

	return &Client{cfg: cfg, conn: c}, nil
}

// Close logs out and releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Logout()
}

// Folders lists every folder name visible to this account.
func (c *Client) Folders(ctx context.Context) ([]string, error) {
	mailboxes := make(chan *imapclient.MailboxInfo, 16)
	done := make(chan error, 1)
	go func() { done <- c.conn.List("", "*", mailboxes) }()

	var names []string
	for m := range mailboxes {
		names = append(names, m.Name)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap.Folders: %w", err)
	}
	return names, nil
}

// FetchFolder selects name and fetches up to cfg.BatchSize most-recent
// messages, walking backwards in chunks of at most 1000 UIDs per the
// original's IMAP batching (a single server-side FETCH range is capped to
// avoid command-line-length and server timeout limits).
func (c *Client) FetchFolder(ctx context.Context, name string) (Folder, error) {
	mbox, err := c.conn.Select(name, true)
	if err != nil {
		return Folder{}, fmt.Errorf("imap.FetchFolder: select %s: %w", name, err)
	}
	if mbox.Messages == 0 {
		log.Debug().Str("folder", name).Msg("imap: empty folder")
		return Folder{Name: name}, nil
	}

	const maxServerBatch = 1000
	remaining := mbox.Messages
	if c.cfg.BatchSize > 0 && uint32(c.cfg.BatchSize) < remaining {
		remaining = uint32(c.cfg.BatchSize)
	}
	end := mbox.Messages

	var messages []Message
	for remaining > 0 && end > 0 {
		fetchSize := remaining
		if fetchSize > maxServerBatch {
			fetchSize = maxServerBatch
		}
		start := uint32(1)
		if end > fetchSize {
			start = end - fetchSize + 1
		}

		fetched, err := c.fetchRange(start, end)
		if err != nil {
			return Folder{}, fmt.Errorf("imap.FetchFolder: fetch %s %d:%d: %w", name, start, end, err)
		}
		messages = append(messages, fetched...)

		remaining -= fetchSize
		end = start - 1
	}

	return Folder{Name: name, Messages: messages}, nil
}
