package email

import (
	"errors"
	"net"
	"net/textproto"
	"testing"
	"time"

	"gopkg.in/gomail.v2"
)

func TestBuildMessageRequiresFields(t *testing.T) {
	cases := map[string]struct {
		from string
		msg  Message
	}{
		"from":    {"", Message{To: []string{"x@y.z"}, Subject: "s", TextBody: "b"}},
		"to":      {"a@b.c", Message{To: []string{" "}, Subject: "s", TextBody: "b"}},
		"subject": {"a@b.c", Message{To: []string{"x@y.z"}, TextBody: "b"}},
		"body":    {"a@b.c", Message{To: []string{"x@y.z"}, Subject: "s"}},
	}
	for field, tc := range cases {
		_, err := buildMessage(tc.from, tc.msg)
		var invalid ErrInvalidMessage
		if !errors.As(err, &invalid) || invalid.Field != field {
			t.Errorf("%s: err = %v", field, err)
		}
	}
}

func TestDisabledClient(t *testing.T) {
	c, _ := New(Config{Enabled: false})
	if err := c.Send(t.Context(), Message{}); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

func testClient(t *testing.T, send func(*gomail.Message) error) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.From = "no-reply@odonto.test"
	cfg.SMTPHost = "smtp.odonto.test"
	cfg.RetryBackoff = time.Millisecond
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	c.send = send
	return c
}

// The default sender dials the configured relay; a refused connection
// comes back as a send failure.
func TestSendDialsConfiguredRelay(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.From = "no-reply@odonto.test"
	cfg.SMTPHost = "127.0.0.1"
	cfg.SMTPPort = port
	cfg.SMTPUseTLS = false
	cfg.MaxAttempts = 1
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	err = c.Send(t.Context(), testMessage)
	var sendErr ErrSend
	if !errors.As(err, &sendErr) || sendErr.Attempts != 1 {
		t.Fatalf("err = %v, want ErrSend after 1 attempt", err)
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		t.Errorf("err = %v, want a dial error", err)
	}
}

var testMessage = Message{To: []string{"ana@odonto.test"}, Subject: "hi", TextBody: "hello"}

func TestSendRetriesTransientFailures(t *testing.T) {
	calls := 0
	c := testClient(t, func(*gomail.Message) error {
		calls++
		if calls < 3 {
			return &textproto.Error{Code: 421, Msg: "try again later"}
		}
		return nil
	})

	if err := c.Send(t.Context(), testMessage); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestSendStopsOnPermanentFailure(t *testing.T) {
	calls := 0
	c := testClient(t, func(*gomail.Message) error {
		calls++
		return &textproto.Error{Code: 550, Msg: "mailbox unavailable"}
	})

	err := c.Send(t.Context(), testMessage)
	var sendErr ErrSend
	if !errors.As(err, &sendErr) {
		t.Fatalf("err = %v, want ErrSend", err)
	}
	if sendErr.Attempts != 1 || calls != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1", sendErr.Attempts, calls)
	}
}

func TestSendGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	c := testClient(t, func(*gomail.Message) error {
		calls++
		return errors.New("connection refused")
	})

	err := c.Send(t.Context(), testMessage)
	var sendErr ErrSend
	if !errors.As(err, &sendErr) || sendErr.Attempts != 3 {
		t.Fatalf("err = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
