package mailbox

import (
	"net/mail"
	"strings"
	"testing"
)

func readMessage(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to parse test message: %v", err)
	}
	return msg
}

func TestExtractReceiptTextPlain(t *testing.T) {
	raw := "From: no-reply@oda.com\r\n" +
		"Subject: Oda: Kvittering for bestilling #12345678\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Levert 12. januar 2025\r\n" +
		"1 stk Tine Helmelk 1l\r\n"

	text, err := ExtractReceiptText(readMessage(t, raw))
	if err != nil {
		t.Fatalf("ExtractReceiptText() error = %v", err)
	}
	if !strings.Contains(text, "Tine Helmelk") {
		t.Errorf("extracted text missing receipt line: %q", text)
	}
}

func TestExtractReceiptTextQuotedPrintable(t *testing.T) {
	raw := "From: no-reply@oda.com\r\n" +
		"Subject: Kvittering\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"1 stk Bringeb=C3=A6r 125g\r\n"

	text, err := ExtractReceiptText(readMessage(t, raw))
	if err != nil {
		t.Fatalf("ExtractReceiptText() error = %v", err)
	}
	if !strings.Contains(text, "Bringebær") {
		t.Errorf("quoted-printable body not decoded: %q", text)
	}
}

func TestExtractReceiptTextPrefersPlainPart(t *testing.T) {
	raw := "From: no-reply@oda.com\r\n" +
		"Subject: Kvittering\r\n" +
		"Content-Type: multipart/alternative; boundary=\"frontier\"\r\n" +
		"\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"2 stk Gulrot 750g\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><body><p>2 stk Gulrot 750g</p></body></html>\r\n" +
		"--frontier--\r\n"

	text, err := ExtractReceiptText(readMessage(t, raw))
	if err != nil {
		t.Fatalf("ExtractReceiptText() error = %v", err)
	}
	if strings.Contains(text, "<p>") {
		t.Errorf("html part leaked into extracted text: %q", text)
	}
	if !strings.Contains(text, "Gulrot") {
		t.Errorf("plain part missing from extracted text: %q", text)
	}
}

func TestExtractReceiptTextHTMLOnly(t *testing.T) {
	raw := "From: no-reply@oda.com\r\n" +
		"Subject: Kvittering\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><head><style>p { color: red; }</style></head>" +
		"<body><p>Ordrenummer: 87654321</p><p>1 stk R&oslash;dl&oslash;k</p></body></html>\r\n"

	text, err := ExtractReceiptText(readMessage(t, raw))
	if err != nil {
		t.Fatalf("ExtractReceiptText() error = %v", err)
	}
	if strings.Contains(text, "color: red") {
		t.Errorf("style content survived stripping: %q", text)
	}
	if !strings.Contains(text, "Ordrenummer: 87654321") {
		t.Errorf("visible text missing after stripping: %q", text)
	}
	if !strings.Contains(text, "Rødløk") {
		t.Errorf("html entities not decoded: %q", text)
	}
}

func TestStripHTMLKeepsLineStructure(t *testing.T) {
	html := "<div>Levert 12. januar 2025</div><div>1 stk Melk</div><br>2 stk Egg"
	text := stripHTML(html)

	lines := strings.Split(text, "\n")
	if len(lines) != 3 {
		t.Fatalf("stripHTML() produced %d lines, want 3: %q", len(lines), text)
	}
	if lines[1] != "1 stk Melk" {
		t.Errorf("stripHTML() line = %q, want %q", lines[1], "1 stk Melk")
	}
}
