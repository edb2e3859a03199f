package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransportSendsJSON(t *testing.T) {
	var got ContactMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	msg := NewMessage(validForm(), fixedNow)
	receipt, err := NewHTTPTransport(srv.URL).Send(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, receipt.Confirmed)
	assert.Equal(t, http.StatusCreated, receipt.StatusCode)
	assert.Equal(t, msg, got)
}

func TestHTTPTransportErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"message":"email rejected"},{"message":"too fast"}]}`))
	}))
	defer srv.Close()

	_, err := NewHTTPTransport(srv.URL).Send(context.Background(), NewMessage(validForm(), fixedNow))
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusUnprocessableEntity, ue.StatusCode)
	assert.Equal(t, []string{"email rejected", "too fast"}, ue.Messages)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestHTTPTransportResultError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"error","error":"sheet locked"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPTransport(srv.URL).Send(context.Background(), NewMessage(validForm(), fixedNow))
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, []string{"sheet locked"}, ue.Messages)
}

func TestHTTPTransportNonJSONSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	receipt, err := NewHTTPTransport(srv.URL).Send(context.Background(), NewMessage(validForm(), fixedNow))
	require.NoError(t, err)
	assert.True(t, receipt.Confirmed)
}

func TestHTTPTransportUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPTransport(url).Send(context.Background(), NewMessage(validForm(), fixedNow))
	assert.ErrorIs(t, err, ErrNetwork)
	var ue *UpstreamError
	assert.False(t, errors.As(err, &ue))
}

func TestSMTPTransport(t *testing.T) {
	var sentTo []string
	var body string
	tr := &SMTPTransport{
		Host: "smtp.example.com", Port: "587", User: "me@example.com", Pass: "pw", To: "owner@example.com",
		sendMail: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			assert.Equal(t, "smtp.example.com:587", addr)
			assert.Equal(t, "me@example.com", from)
			sentTo = to
			body = string(msg)
			return nil
		},
	}

	receipt, err := tr.Send(context.Background(), NewMessage(validForm(), fixedNow))
	require.NoError(t, err)
	assert.True(t, receipt.Confirmed)
	assert.Equal(t, []string{"owner@example.com"}, sentTo)
	assert.True(t, strings.HasPrefix(body, "To: owner@example.com\r\n"))
	assert.Contains(t, body, "Subject: Portfolio Contact: Project enquiry")
	assert.Contains(t, body, "Reply-To: user@example.com")
}

func TestSMTPTransportMissingCredentials(t *testing.T) {
	_, err := (&SMTPTransport{Host: "h", Port: "1"}).Send(context.Background(), ContactMessage{})
	assert.ErrorContains(t, err, "credentials")
}

func TestSMTPTransportHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	tr := &SMTPTransport{
		Host: "h", Port: "1", User: "u", Pass: "p", To: "t",
		sendMail: func(string, smtp.Auth, string, []string, []byte) error {
			<-release
			return nil
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tr.Send(ctx, ContactMessage{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSMTPTransportSendError(t *testing.T) {
	tr := &SMTPTransport{
		Host: "h", Port: "1", User: "u", Pass: "p", To: "t",
		sendMail: func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("535 auth failed")
		},
	}
	_, err := tr.Send(context.Background(), ContactMessage{})
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorContains(t, err, "535")
}

func TestSMTPTransportKeepsVisitorInputOutOfHeaders(t *testing.T) {
	var mail string
	tr := &SMTPTransport{
		Host: "h", Port: "1", User: "u", Pass: "p", To: "owner@example.com",
		sendMail: func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
			mail = string(msg)
			return nil
		},
	}
	f := validForm()
	f.Subject = "Hello there\r\nBcc: victim@evil.example"

	res := newTestSubmitter(tr, Options{}).Submit(context.Background(), f, &Recorder{})
	require.Equal(t, StateSuccess, res.State)

	head, _, found := strings.Cut(mail, "\r\n\r\n")
	require.True(t, found)
	lines := strings.Split(head, "\r\n")
	for _, l := range lines {
		assert.False(t, strings.HasPrefix(strings.ToLower(l), "bcc:"), l)
	}
	assert.Len(t, lines, 4)
	assert.Contains(t, head, "Subject: Portfolio Contact: Hello there Bcc: victim@evil.example\r\n")
}

func TestSMTPSubjectEncodesNonASCII(t *testing.T) {
	msg := NewMessage(validForm(), fixedNow)
	msg.Subject = "Café website"
	mail := string(composeMail("u", "t", msg))
	assert.Contains(t, mail, "Subject: =?utf-8?q?Portfolio_Contact:_Caf=C3=A9_website?=\r\n")
}
