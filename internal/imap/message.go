package imap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	goimap "github.com/emersion/go-imap"
)

// Attachment is one non-inline MIME part extracted from a message, present
// only when Config.ExtractAttachments is set.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
	ContentID   string `json:"content_id"`
}

// Message mirrors original_source's EmailResource field-for-field.
type Message struct {
	Subject     string       `json:"subject"`
	From        string       `json:"from"`
	Cc          []string     `json:"cc"`
	Bcc         []string     `json:"bcc"`
	References  []string     `json:"references"`
	InReplyTo   string       `json:"in_reply_to,omitempty"`
	MessageID   string       `json:"message_id"`
	To          []string     `json:"to"`
	Date        string       `json:"date"`
	TextPlain   []string     `json:"text_plain"`
	TextHTML    []string     `json:"text_html"`
	RawText     string       `json:"raw_text"`
	RawJSON     string       `json:"raw_json"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

func (c *Client) fetchRange(start, end uint32) ([]Message, error) {
	seqset := new(goimap.SeqSet)
	seqset.AddRange(start, end)

	fetched := make(chan *goimap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- c.conn.Fetch(seqset, []goimap.FetchItem{goimap.FetchEnvelope, goimap.FetchRFC822}, fetched)
	}()

	var out []Message
	for raw := range fetched {
		msg, err := convertMessage(raw, c.cfg.ExtractAttachments)
		if err != nil {
			continue
		}
		out = append(out, msg)
	}
	if err := <-done; err != nil {
		return nil, err
	}
	return out, nil
}

// convertMessage parses one fetched IMAP message's RFC822 body into a
// Message, grounded on lib.rs's `convert_to_email_resource` (there using
// mail-parser; here net/mail + mime/multipart, since no MIME-parsing
// library appears anywhere in the example pack — see DESIGN.md).
func convertMessage(raw *goimap.Message, extractAttachments bool) (Message, error) {
	var body []byte
	for _, literal := range raw.Body {
		if literal == nil {
			continue
		}
		b, err := io.ReadAll(literal)
		if err != nil {
			return Message{}, fmt.Errorf("imap.convertMessage: read body: %w", err)
		}
		body = b
		break
	}
	if body == nil {
		return Message{}, fmt.Errorf("imap.convertMessage: message had no body")
	}

	parsed, err := mail.ReadMessage(bytes.NewReader(body))
	if err != nil {
		return Message{}, fmt.Errorf("imap.convertMessage: parse: %w", err)
	}
	header := parsed.Header

	msg := Message{
		Subject:    decodeHeader(header.Get("Subject")),
		From:       firstAddress(header.Get("From")),
		Cc:         addressList(header.Get("Cc")),
		Bcc:        addressList(header.Get("Bcc")),
		References: strings.Fields(header.Get("References")),
		InReplyTo:  strings.TrimSpace(header.Get("In-Reply-To")),
		MessageID:  strings.Trim(header.Get("Message-Id"), "<> "),
		To:         addressList(header.Get("To")),
		Date:       header.Get("Date"),
		RawText:    string(body),
	}

	contentType := header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err == nil && strings.HasPrefix(mediaType, "multipart/") {
		extractParts(&msg, multipart.NewReader(parsed.Body, params["boundary"]), extractAttachments)
	} else {
		text, decodeErr := decodeBody(parsed.Body, header.Get("Content-Transfer-Encoding"))
		if decodeErr == nil {
			if strings.Contains(mediaType, "html") {
				msg.TextHTML = append(msg.TextHTML, text)
			} else {
				msg.TextPlain = append(msg.TextPlain, text)
			}
		}
	}

	if b, err := json.Marshal(msg); err == nil {
		msg.RawJSON = string(b)
	}
	return msg, nil
}

func extractParts(msg *Message, mr *multipart.Reader, extractAttachments bool) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			return
		}
		disposition, dispParams, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
		contentType := part.Header.Get("Content-Type")
		mediaType, _, _ := mime.ParseMediaType(contentType)

		if disposition == "attachment" || (disposition != "inline" && !strings.HasPrefix(mediaType, "text/")) {
			if extractAttachments {
				data, err := io.ReadAll(part)
				if err == nil {
					msg.Attachments = append(msg.Attachments, Attachment{
						Filename:    dispParams["filename"],
						ContentType: mediaType,
						Content:     data,
						ContentID:   strings.Trim(part.Header.Get("Content-Id"), "<>"),
					})
				}
			}
			continue
		}

		text, err := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			continue
		}
		if strings.Contains(mediaType, "html") {
			msg.TextHTML = append(msg.TextHTML, text)
		} else {
			msg.TextPlain = append(msg.TextPlain, text)
		}
	}
}

func decodeBody(r io.Reader, transferEncoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "quoted-printable":
		b, err := io.ReadAll(quotedprintable.NewReader(r))
		return string(b), err
	default:
		b, err := io.ReadAll(r)
		return string(b), err
	}
}

func decodeHeader(s string) string {
	dec := new(mime.WordDecoder)
	if decoded, err := dec.DecodeHeader(s); err == nil {
		return decoded
	}
	return s
}

func firstAddress(s string) string {
	addrs := addressList(s)
	if len(addrs) == 0 {
		return ""
	}
	return addrs[0]
}

func addressList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parsed, err := mail.ParseAddressList(s)
	if err != nil {
		return []string{strings.TrimSpace(s)}
	}
	out := make([]string, 0, len(parsed))
	for _, a := range parsed {
		out = append(out, a.Address)
	}
	return out
}
