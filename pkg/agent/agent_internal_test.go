package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignalInboxReadyUnblocksOnce(t *testing.T) {
	a := newAgent(Config{DeviceID: "pig5"}, nil)

	select {
	case <-a.inboxReady:
		t.Fatal("inboxReady must not be closed before signalInboxReady is called")
	case <-time.After(10 * time.Millisecond):
	}

	a.signalInboxReady()

	select {
	case <-a.inboxReady:
	case <-time.After(10 * time.Millisecond):
		t.Fatal("inboxReady must be closed immediately after signalInboxReady")
	}

	assert.NotPanics(t, func() {
		a.signalInboxReady()
		a.signalInboxReady()
	}, "signalInboxReady must be safe to call repeatedly across the inbox consumer's reconnect loop")
}
