package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Send(context.Context, []string, string, string) error {
	r.calls++
	return r.err
}

func TestMulti(t *testing.T) {
	t.Run("sends_to_all_and_joins_errors", func(t *testing.T) {
		boom := errors.New("boom")
		first := &recordingNotifier{err: boom}
		second := &recordingNotifier{}

		err := Multi{first, second}.Send(context.Background(), []string{"a@b.c"}, "s", "b")
		if !errors.Is(err, boom) {
			t.Errorf("expected joined error to contain boom, got %v", err)
		}
		if first.calls != 1 || second.calls != 1 {
			t.Errorf("expected both notifiers to be called, got %d and %d", first.calls, second.calls)
		}
	})

	t.Run("nil_when_all_succeed", func(t *testing.T) {
		if err := (Multi{&recordingNotifier{}, Nop{}}).Send(context.Background(), nil, "s", "b"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		n, closeFn, err := New(Options{Driver: "none"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := n.(Nop); !ok {
			t.Errorf("expected Nop, got %T", n)
		}
		if err := closeFn(); err != nil {
			t.Errorf("unexpected close error: %v", err)
		}
	})

	t.Run("smtp", func(t *testing.T) {
		n, _, err := New(Options{Driver: "SMTP", SMTP: SMTPConfig{Host: "localhost", Port: "25"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := n.(*SMTPNotifier); !ok {
			t.Errorf("expected *SMTPNotifier, got %T", n)
		}
	})

	t.Run("amqp_without_url", func(t *testing.T) {
		if _, _, err := New(Options{Driver: "amqp"}); err == nil {
			t.Error("expected error when AMQP_URL is missing")
		}
	})

	t.Run("unknown_driver", func(t *testing.T) {
		if _, _, err := New(Options{Driver: "pigeon"}); err == nil {
			t.Error("expected error for unknown driver")
		}
	})
}

func TestSMTPNotifier(t *testing.T) {
	cfg := SMTPConfig{Host: "mail.test", Port: "587", From: "alerts@fintrack.local"}

	t.Run("builds_html_message", func(t *testing.T) {
		n := NewSMTPNotifier(cfg)
		var gotAddr string
		var gotTo []string
		var gotMsg []byte
		n.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotTo, gotMsg = addr, to, msg
			return nil
		}

		err := n.Send(context.Background(), []string{"a@test.com", "b@test.com"}, "Hello", "<p>hi</p>")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotAddr != "mail.test:587" {
			t.Errorf("unexpected addr %q", gotAddr)
		}
		if len(gotTo) != 2 {
			t.Errorf("expected 2 recipients, got %v", gotTo)
		}
		msg := string(gotMsg)
		for _, want := range []string{"Subject: Hello\r\n", "To: a@test.com, b@test.com\r\n", "Content-Type: text/html", "\r\n\r\n<p>hi</p>"} {
			if !strings.Contains(msg, want) {
				t.Errorf("message missing %q:\n%s", want, msg)
			}
		}
	})

	t.Run("no_recipients_is_noop", func(t *testing.T) {
		n := NewSMTPNotifier(cfg)
		n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
			t.Error("sendMail should not be called")
			return nil
		}
		if err := n.Send(context.Background(), nil, "s", "b"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("returns_on_deadline", func(t *testing.T) {
		n := NewSMTPNotifier(cfg)
		release := make(chan struct{})
		defer close(release)
		n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
			<-release
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := n.Send(ctx, []string{"a@test.com"}, "s", "b")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})

	t.Run("wraps_transport_error", func(t *testing.T) {
		n := NewSMTPNotifier(cfg)
		boom := errors.New("relay refused")
		n.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return boom }

		if err := n.Send(context.Background(), []string{"a@test.com"}, "s", "b"); !errors.Is(err, boom) {
			t.Errorf("expected wrapped relay error, got %v", err)
		}
	})
}

type fakeChannel struct {
	key string
	msg amqp091.Publishing
	err error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp091.Publishing) error {
	f.key = key
	f.msg = msg
	return f.err
}

func TestAMQPNotifier(t *testing.T) {
	t.Run("publishes_persistent_json", func(t *testing.T) {
		ch := &fakeChannel{}
		n := &AMQPNotifier{channel: ch, queue: "notifications"}

		err := n.Send(context.Background(), []string{"admin@test.com"}, "Alert", "<b>over</b>")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ch.key != "notifications" {
			t.Errorf("expected routing key notifications, got %q", ch.key)
		}
		if ch.msg.DeliveryMode != amqp091.Persistent {
			t.Errorf("expected persistent delivery")
		}

		var got Message
		if err := json.Unmarshal(ch.msg.Body, &got); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if got.Subject != "Alert" || got.BodyHTML != "<b>over</b>" || len(got.Recipients) != 1 {
			t.Errorf("unexpected payload %+v", got)
		}
	})

	t.Run("publish_error", func(t *testing.T) {
		n := &AMQPNotifier{channel: &fakeChannel{err: amqp091.ErrClosed}, queue: "q"}
		if err := n.Send(context.Background(), []string{"a@test.com"}, "s", "b"); !errors.Is(err, amqp091.ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})
}
