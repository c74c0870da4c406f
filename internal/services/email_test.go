package services

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseMultipartMessage(t *testing.T, raw []byte) (*mail.Message, *multipart.Reader) {
	t.Helper()

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)
	require.NotEmpty(t, params["boundary"])

	return msg, multipart.NewReader(msg.Body, params["boundary"])
}

func TestBuildAttachmentMessage(t *testing.T) {
	svc := NewEmailService("smtp.example.com", "587", "user", "pass", "noreply@example.com")

	pdf := []byte("%PDF-1.4 fake receipt body")
	raw, err := svc.buildAttachmentMessage(
		"donor@example.com", "기부금 영수증", "<p>첨부를 확인하세요</p>", "receipt_홍길동.pdf", pdf)
	require.NoError(t, err)

	msg, mr := parseMultipartMessage(t, raw)
	assert.Equal(t, "donor@example.com", msg.Header.Get("To"))

	htmlPart, err := mr.NextPart()
	require.NoError(t, err)
	assert.Contains(t, htmlPart.Header.Get("Content-Type"), "text/html")
	htmlBody, err := io.ReadAll(htmlPart)
	require.NoError(t, err)
	assert.Contains(t, string(htmlBody), "첨부를 확인하세요")

	attPart, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", attPart.Header.Get("Content-Type"))
	assert.Contains(t, attPart.Header.Get("Content-Disposition"), "receipt_홍길동.pdf")

	encoded, err := io.ReadAll(attPart)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, pdf, decoded)

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBuildAttachmentMessage_BoundaryIsRandom(t *testing.T) {
	svc := NewEmailService("smtp.example.com", "587", "user", "pass", "noreply@example.com")

	first, err := svc.buildAttachmentMessage("a@x", "s", "b", "f.pdf", []byte("data"))
	require.NoError(t, err)
	second, err := svc.buildAttachmentMessage("a@x", "s", "b", "f.pdf", []byte("data"))
	require.NoError(t, err)

	boundaryOf := func(raw []byte) string {
		msg, err := mail.ReadMessage(bytes.NewReader(raw))
		require.NoError(t, err)
		_, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
		require.NoError(t, err)
		return params["boundary"]
	}
	assert.NotEqual(t, boundaryOf(first), boundaryOf(second))
}

func TestBuildAttachmentMessage_BodyContainingDelimiterText(t *testing.T) {
	svc := NewEmailService("smtp.example.com", "587", "user", "pass", "noreply@example.com")

	// an attachment whose plaintext looks like a MIME delimiter must still
	// round-trip intact
	hostile := []byte("--donation-mail-boundary--\r\nnot a real part")
	raw, err := svc.buildAttachmentMessage("a@x", "s", "<p>hi</p>", "f.pdf", hostile)
	require.NoError(t, err)

	_, mr := parseMultipartMessage(t, raw)
	_, err = mr.NextPart()
	require.NoError(t, err)
	attPart, err := mr.NextPart()
	require.NoError(t, err)

	encoded, err := io.ReadAll(attPart)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, hostile, decoded)
}
