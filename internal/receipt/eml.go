package receipt

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

var headerDecoder = new(mime.WordDecoder)

// ParseEmail reads an RFC 5322 message, such as a saved .eml file, and
// returns its headers with the first text/plain and text/html parts.
func ParseEmail(r io.Reader) (Email, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return Email{}, fmt.Errorf("reading message: %w", err)
	}

	email := Email{
		ID:      strings.Trim(msg.Header.Get("Message-Id"), "<> "),
		From:    decodeHeader(msg.Header.Get("From")),
		Subject: decodeHeader(msg.Header.Get("Subject")),
	}
	if date, err := msg.Header.Date(); err == nil {
		email.ReceivedAt = date.UTC()
	}

	plain, html, err := readParts(msg.Body, msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return Email{}, err
	}
	email.Body = plain
	email.HTMLBody = html
	return email, nil
}

func decodeHeader(v string) string {
	decoded, err := headerDecoder.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

// readParts walks a (possibly nested) MIME body collecting the first plain
// and HTML text parts. Attachments are skipped.
func readParts(body io.Reader, contentType, encoding string) (plain, html string, err error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return "", "", fmt.Errorf("multipart message without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return plain, html, fmt.Errorf("reading part: %w", err)
			}
			if part.FileName() != "" {
				continue
			}
			// NextPart already undoes quoted-printable
			p, h, err := readParts(part, part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"))
			if err != nil {
				return plain, html, err
			}
			if plain == "" {
				plain = p
			}
			if html == "" {
				html = h
			}
		}
		return plain, html, nil
	}

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", "", fmt.Errorf("reading body: %w", err)
	}

	switch mediaType {
	case "text/plain":
		return string(data), "", nil
	case "text/html":
		return "", string(data), nil
	}
	return "", "", nil
}
