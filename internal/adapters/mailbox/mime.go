package mailbox

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"
)

var htmlTagPattern = regexp.MustCompile(`(?s)<[^>]*>`)

// ExtractReceiptText extracts the text content from an email message.
// For multipart messages it prefers text/plain parts; an HTML-only
// message is tag-stripped so the receipt lines survive.
func ExtractReceiptText(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	// If it's not a multipart message, just decode the body
	if !strings.Contains(strings.ToLower(contentType), "multipart/") {
		body, err := decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			return "", err
		}
		if strings.Contains(strings.ToLower(contentType), "text/html") {
			return stripHTML(body), nil
		}
		return body, nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	}

	boundary, ok := params["boundary"]
	if !ok {
		return decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	}

	mr := multipart.NewReader(msg.Body, boundary)

	var plainContent bytes.Buffer
	var htmlContent bytes.Buffer

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		partContentType := strings.ToLower(part.Header.Get("Content-Type"))

		switch {
		case strings.Contains(partContentType, "text/plain"):
			text, err := decodePartBody(part)
			if err != nil {
				continue
			}
			plainContent.WriteString(text)
			plainContent.WriteString("\n")
		case strings.Contains(partContentType, "text/html"):
			text, err := decodePartBody(part)
			if err != nil {
				continue
			}
			htmlContent.WriteString(text)
			htmlContent.WriteString("\n")
		case strings.Contains(partContentType, "multipart/"):
			// Nested multipart, typically multipart/alternative inside
			// multipart/mixed. One level of recursion covers what the
			// grocery senders actually produce.
			nested, err := extractNestedText(part)
			if err == nil && nested != "" {
				plainContent.WriteString(nested)
				plainContent.WriteString("\n")
			}
		}
		// Skip other parts (attachments, etc.)
	}

	if plainContent.Len() > 0 {
		return plainContent.String(), nil
	}
	if htmlContent.Len() > 0 {
		return stripHTML(htmlContent.String()), nil
	}

	return "", nil
}

// extractNestedText handles one nested multipart level
func extractNestedText(part *multipart.Part) (string, error) {
	mediaType, params, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return "", err
	}
	boundary, ok := params["boundary"]
	if !ok {
		return "", nil
	}

	mr := multipart.NewReader(part, boundary)
	var content bytes.Buffer
	for {
		nested, err := mr.NextPart()
		if err != nil {
			break
		}
		if strings.Contains(strings.ToLower(nested.Header.Get("Content-Type")), "text/plain") {
			text, err := decodePartBody(nested)
			if err != nil {
				continue
			}
			content.WriteString(text)
		}
	}
	return content.String(), nil
}

// decodePartBody decodes a multipart part honoring its transfer encoding
func decodePartBody(part *multipart.Part) (string, error) {
	return decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
}

// decodeBody reads a body applying the Content-Transfer-Encoding
func decodeBody(r io.Reader, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// stripHTML reduces an HTML body to its visible text
func stripHTML(html string) string {
	// Drop non-content elements wholesale before stripping tags
	for _, element := range []string{"style", "script", "head"} {
		re := regexp.MustCompile(`(?is)<` + element + `[^>]*>.*?</` + element + `>`)
		html = re.ReplaceAllString(html, "")
	}

	html = regexp.MustCompile(`(?i)<br\s*/?>`).ReplaceAllString(html, "\n")
	html = regexp.MustCompile(`(?i)</(p|div|tr|li|h[1-6])>`).ReplaceAllString(html, "\n")
	text := htmlTagPattern.ReplaceAllString(html, " ")

	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&oslash;", "ø",
		"&aring;", "å",
		"&aelig;", "æ",
	)
	text = replacer.Replace(text)

	// Collapse the whitespace noise tag stripping leaves behind
	lines := strings.Split(text, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
