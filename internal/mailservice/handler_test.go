package mailservice

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/inkpost/internal/common"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForRecipient(t *testing.T, m *MockMailer) string {
	t.Helper()

	select {
	case r := <-m.sent:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for email")
		return ""
	}
}

func TestSendWelcomeEmails(t *testing.T) {
	mockMC := &MockMessageConsumer{bodies: []string{
		`not json`,
		`{"username": "alice", "email": "alice@example.com"}`,
	}}
	mockMC.On("Consume", common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue).Return()

	mockMailer := newMockMailer(0)
	s := newMailService(mockMC, mockMailer, 0, testLogger())
	t.Cleanup(s.Close)

	require.NoError(t, s.SendWelcomeEmails())

	assert.Equal(t, "alice@example.com", waitForRecipient(t, mockMailer))
	assert.Equal(t, 1, mockMailer.Attempts())
	mockMC.AssertExpectations(t)
}

func TestSendWelcomeEmailsRetries(t *testing.T) {
	mockMC := &MockMessageConsumer{bodies: []string{`{"username": "bob", "email": "bob@example.com"}`}}
	mockMC.On("Consume", common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue).Return()

	mockMailer := newMockMailer(2)
	s := newMailService(mockMC, mockMailer, 0, testLogger())
	s.baseDelay = time.Millisecond
	t.Cleanup(s.Close)

	require.NoError(t, s.SendWelcomeEmails())

	assert.Equal(t, "bob@example.com", waitForRecipient(t, mockMailer))
	assert.Equal(t, 3, mockMailer.Attempts())
}

func TestSendWelcomeEmailsGivesUp(t *testing.T) {
	mockMC := &MockMessageConsumer{bodies: []string{`{"username": "bob", "email": "bob@example.com"}`}}
	mockMC.On("Consume", common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue).Return()

	mockMailer := newMockMailer(maxRetries)
	s := newMailService(mockMC, mockMailer, 0, testLogger())
	s.baseDelay = time.Millisecond

	require.NoError(t, s.SendWelcomeEmails())

	assert.Eventually(t, func() bool { return mockMailer.Attempts() == maxRetries }, 5*time.Second, 10*time.Millisecond)
	s.Close()
	assert.Equal(t, maxRetries, mockMailer.Attempts())
}

func TestSendWelcomeEmailsSkipsPermanentFailures(t *testing.T) {
	mockMC := &MockMessageConsumer{bodies: []string{
		`{"username": "bob", "email": "bob@example.invalid"}`,
		`{"username": "carol", "email": "carol@example.com"}`,
	}}
	mockMC.On("Consume", common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue).Return()

	mockMailer := newMockMailer(1)
	mockMailer.err = fmt.Errorf("%w: 550 mailbox unavailable", errPermanent)
	s := newMailService(mockMC, mockMailer, 0, testLogger())
	s.baseDelay = time.Millisecond
	t.Cleanup(s.Close)

	require.NoError(t, s.SendWelcomeEmails())

	assert.Equal(t, "carol@example.com", waitForRecipient(t, mockMailer))
	assert.Equal(t, 2, mockMailer.Attempts())
}

func TestSendWelcomeEmailsRateLimited(t *testing.T) {
	mockMC := &MockMessageConsumer{bodies: []string{
		`{"username": "a1", "email": "a1@example.com"}`,
		`{"username": "a2", "email": "a2@example.com"}`,
		`{"username": "a3", "email": "a3@example.com"}`,
	}}
	mockMC.On("Consume", common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue).Return()

	mockMailer := newMockMailer(0)
	s := newMailService(mockMC, mockMailer, 10, testLogger())
	t.Cleanup(s.Close)

	start := time.Now()
	require.NoError(t, s.SendWelcomeEmails())

	for i := 0; i < 3; i++ {
		waitForRecipient(t, mockMailer)
	}

	// burst of one, then 100ms between sends
	assert.GreaterOrEqual(t, time.Since(start), 180*time.Millisecond)
}
