package stepup

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/wlhuang/riskgate/internal/mail"
	"github.com/wlhuang/riskgate/internal/render"
	"github.com/wlhuang/riskgate/internal/store"
)

func TestMain(m *testing.M) {
	if err := render.Initialize(nil, ""); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeResolver struct {
	emails map[string]string
}

func (f *fakeResolver) ResolveEmail(ctx context.Context, subject string) (string, error) {
	email, ok := f.emails[subject]
	if !ok {
		return "", errors.New("account not found")
	}
	return email, nil
}

type fakeSender struct {
	sent []*mail.Message
	err  error
}

func (f *fakeSender) Send(message *mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, message)
	return nil
}

type managerHarness struct {
	manager *Manager
	sender  *fakeSender
	now     time.Time
}

func newHarness(t *testing.T) *managerHarness {
	t.Helper()
	h := &managerHarness{
		sender: &fakeSender{},
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	resolver := &fakeResolver{emails: map[string]string{"YWxpY2U=": "alice@example.com"}}
	h.manager = NewManager(store.NewMemStorage(), resolver, h.sender,
		WithNowFunc(func() time.Time { return h.now }))
	return h
}

// issuedCode pulls the generated code back out of the dispatched message
// subject ("<code> is your verification code").
func (h *managerHarness) issuedCode(t *testing.T) string {
	t.Helper()
	if len(h.sender.sent) == 0 {
		t.Fatal("no mail dispatched")
	}
	subject := h.sender.sent[len(h.sender.sent)-1].Subject
	code := subject[:6]
	if _, err := strconv.Atoi(code); err != nil {
		t.Fatalf("mail subject %q does not start with a numeric code", subject)
	}
	return code
}

func TestIssueAndVerify(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.manager.Issue(ctx, "sess-1", "YWxpY2U="); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	code := h.issuedCode(t)

	subject, err := h.manager.Verify(ctx, "sess-1", code)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if subject != "YWxpY2U=" {
		t.Errorf("Verify subject = %q, want alice handle", subject)
	}

	// Single use: the same code must not verify again.
	if _, err := h.manager.Verify(ctx, "sess-1", code); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("second Verify = %v, want ErrSessionExpired", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.manager.Issue(ctx, "sess-1", "YWxpY2U="); err != nil {
		t.Fatal(err)
	}
	code := h.issuedCode(t)

	// Exactly at the boundary the code is still valid.
	h.now = h.now.Add(3 * time.Minute)
	if _, err := h.manager.Verify(ctx, "sess-1", "000000"); !errors.Is(err, ErrBadOTP) {
		t.Errorf("at boundary with wrong code: got %v, want ErrBadOTP", err)
	}

	h.now = h.now.Add(time.Second)
	if _, err := h.manager.Verify(ctx, "sess-1", code); !errors.Is(err, ErrOTPExpired) {
		t.Errorf("past expiry with correct code: got %v, want ErrOTPExpired", err)
	}
}

func TestVerifyWrongCodeNoLockout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.manager.Issue(ctx, "sess-1", "YWxpY2U="); err != nil {
		t.Fatal(err)
	}
	code := h.issuedCode(t)

	// Any number of wrong guesses inside the window leaves the challenge
	// usable; only the expiry bounds guessing.
	for i := 0; i < 5; i++ {
		if _, err := h.manager.Verify(ctx, "sess-1", "000000"); !errors.Is(err, ErrBadOTP) {
			t.Fatalf("wrong guess %d: got %v, want ErrBadOTP", i, err)
		}
	}
	if _, err := h.manager.Verify(ctx, "sess-1", code); err != nil {
		t.Errorf("correct code after wrong guesses failed: %v", err)
	}
}

func TestVerifyWithoutIssue(t *testing.T) {
	h := newHarness(t)
	if _, err := h.manager.Verify(context.Background(), "sess-none", "123456"); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Verify without pending challenge = %v, want ErrSessionExpired", err)
	}
}

func TestIssueNoEmailOnRecord(t *testing.T) {
	h := newHarness(t)
	if err := h.manager.Issue(context.Background(), "sess-1", "Ym9i"); !errors.Is(err, ErrNoEmailOnRecord) {
		t.Errorf("Issue for unknown subject = %v, want ErrNoEmailOnRecord", err)
	}
	if len(h.sender.sent) != 0 {
		t.Error("no mail should be dispatched when no address resolves")
	}
}

func TestIssueSendFailure(t *testing.T) {
	h := newHarness(t)
	h.sender.err = errors.New("smtp down")
	if err := h.manager.Issue(context.Background(), "sess-1", "YWxpY2U="); !errors.Is(err, ErrOTPSendFailed) {
		t.Errorf("Issue with failing sender = %v, want ErrOTPSendFailed", err)
	}
	// Dispatch failed, so no pending challenge may remain.
	if _, err := h.manager.Verify(context.Background(), "sess-1", "123456"); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Verify after failed dispatch = %v, want ErrSessionExpired", err)
	}
}

func TestChallengeScopedToSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.manager.Issue(ctx, "sess-1", "YWxpY2U="); err != nil {
		t.Fatal(err)
	}
	code := h.issuedCode(t)

	if _, err := h.manager.Verify(ctx, "sess-2", code); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("code must not verify under another session: got %v", err)
	}
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := generateOTP(6)
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 digits", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d outside [100000, 999999]", n)
		}
	}
}

func TestReasonCodes(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrNoEmailOnRecord, "no_email_on_record"},
		{ErrOTPSendFailed, "otp_send_failed"},
		{ErrSessionExpired, "session_expired"},
		{ErrOTPExpired, "otp_expired"},
		{ErrBadOTP, "bad_otp"},
		{errors.New("other"), ""},
	}
	for _, c := range cases {
		if got := Reason(c.err); got != c.want {
			t.Errorf("Reason(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}
