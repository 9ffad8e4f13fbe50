package nats

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/idebridge/internal/domain/ide"
	"github.com/corey/idebridge/internal/ports"
)

func TestEncode(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := encode(ports.ActivateTokenLocationsEvent{LocationIDs: []uint64{4, 9}}, now)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, ports.EventActivateTokenLocations, env.Kind)
	assert.True(t, now.Equal(env.Time))
	_, err = uuid.Parse(env.ID)
	assert.NoError(t, err)

	var payload ports.ActivateTokenLocationsEvent
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, []uint64{4, 9}, payload.LocationIDs)
}

func TestEncode_UniqueIDs(t *testing.T) {
	a, err := encode(ports.ActivateWindowEvent{}, time.Now())
	require.NoError(t, err)
	b, err := encode(ports.ActivateWindowEvent{}, time.Now())
	require.NoError(t, err)

	var ea, eb Envelope
	require.NoError(t, json.Unmarshal(a, &ea))
	require.NoError(t, json.Unmarshal(b, &eb))
	assert.NotEqual(t, ea.ID, eb.ID)
}

func TestSubjects(t *testing.T) {
	p := NewPublisher(nil, "", nil)
	assert.Equal(t, "idebridge.events.status", p.EventSubject(ports.EventStatus))
	assert.Equal(t, "idebridge.commands.move_cursor", p.MoveCursorSubject())

	p = NewPublisher(nil, "dev.alice", nil)
	assert.Equal(t, "dev.alice.events.new_project", p.EventSubject(ports.EventNewProject))
}

// testConn connects to NATS or skips the test if NATS_URL is not set.
func testConn(t *testing.T) *nats.Conn {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func testPrefix(t *testing.T) string {
	return "idebridge-test." + uuid.NewString()[:8]
}

func TestPublisher_PublishesEnvelope(t *testing.T) {
	nc := testConn(t)
	p := NewPublisher(nc, testPrefix(t), nil)

	msgs := make(chan *nats.Msg, 4)
	sub, err := nc.ChanSubscribe(p.EventSubject(ports.EventStatus), msgs)
	require.NoError(t, err)
	defer sub.Unsubscribe()
	require.NoError(t, nc.Flush())

	p.Publish(ports.StatusEvent{Text: "hello", Error: true})
	require.NoError(t, nc.Flush())

	select {
	case msg := <-msgs:
		var env Envelope
		require.NoError(t, json.Unmarshal(msg.Data, &env))
		assert.Equal(t, ports.EventStatus, env.Kind)
		var status ports.StatusEvent
		require.NoError(t, json.Unmarshal(env.Payload, &status))
		assert.Equal(t, ports.StatusEvent{Text: "hello", Error: true}, status)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
	assert.Zero(t, p.FailedCount())
}

func TestPublisher_SubscribeMoveCursor(t *testing.T) {
	nc := testConn(t)
	p := NewPublisher(nc, testPrefix(t), nil)

	var mu sync.Mutex
	var got []ide.MoveCursorRequest
	stop, err := p.SubscribeMoveCursor(func(req ide.MoveCursorRequest) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, req)
		if req.Row == 0 {
			return errors.New("no transport")
		}
		return nil
	})
	require.NoError(t, err)
	defer stop()
	require.NoError(t, nc.Flush())

	resp, err := nc.Request(p.MoveCursorSubject(), []byte(`{"file":"src/a.cpp","row":10,"column":3}`), 5*time.Second)
	require.NoError(t, err)
	var reply CommandReply
	require.NoError(t, json.Unmarshal(resp.Data, &reply))
	assert.True(t, reply.OK)

	resp, err = nc.Request(p.MoveCursorSubject(), []byte(`{"file":"src/a.cpp"}`), 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(resp.Data, &reply))
	assert.False(t, reply.OK)
	assert.Equal(t, "no transport", reply.Error)

	resp, err = nc.Request(p.MoveCursorSubject(), []byte(`not json`), 5*time.Second)
	require.NoError(t, err)
	reply = CommandReply{}
	require.NoError(t, json.Unmarshal(resp.Data, &reply))
	assert.False(t, reply.OK)
	assert.Contains(t, reply.Error, "invalid move cursor command")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []ide.MoveCursorRequest{
		{FilePath: "src/a.cpp", Row: 10, Column: 3},
		{FilePath: "src/a.cpp"},
	}, got)
}
