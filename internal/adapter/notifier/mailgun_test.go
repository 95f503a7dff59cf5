package notifier

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/rs/zerolog"
)

type fakeMailer struct {
	*mailgun.MailgunImpl
	sent int
	err  error
}

func (f *fakeMailer) Send(_ context.Context, _ *mailgun.Message) (string, string, error) {
	if f.err != nil {
		return "rejected", "", f.err
	}
	f.sent++
	return "Queued", "<id@example.com>", nil
}

func newFakeMailer(err error) *fakeMailer {
	return &fakeMailer{MailgunImpl: mailgun.NewMailgun("mg.example.com", "key-test"), err: err}
}

func TestMailgunNotifier_Send(t *testing.T) {
	fake := newFakeMailer(nil)
	n := &MailgunNotifier{mg: fake, sender: "Cashdesk <no-reply@example.com>", logger: zerolog.Nop()}

	if err := n.Send(context.Background(), "maker@example.com", "Your code", "1234", "<b>1234</b>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.sent != 1 {
		t.Fatalf("expected one message sent, got %d", fake.sent)
	}
}

func TestMailgunNotifier_SendError(t *testing.T) {
	boom := errors.New("401 unauthorized")
	n := &MailgunNotifier{mg: newFakeMailer(boom), sender: "no-reply@example.com", logger: zerolog.Nop()}

	err := n.Send(context.Background(), "maker@example.com", "Your code", "1234", "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestLogNotifier_Send(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	if err := n.Send(context.Background(), "a@example.com", "Your code", "4821", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "a@example.com") || !strings.Contains(out, "4821") {
		t.Fatalf("expected message in log, got %s", out)
	}
}
