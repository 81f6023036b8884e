package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxscribe/internal/sqlinline"
)

func TestLocalBrokerDeliversToOwnerOnly(t *testing.T) {
	b := NewLocalBroker(4)
	mine := b.Subscribe("u1")
	other := b.Subscribe("u2")
	defer mine.Close()
	defer other.Close()

	ev, err := New(TypeProfileUpdated, "u1", map[string]int64{"tokens": 4970})
	require.NoError(t, err)
	require.NoError(t, b.Publish(context.Background(), ev))

	got := <-mine.C()
	assert.Equal(t, TypeProfileUpdated, got.Type)
	assert.JSONEq(t, `{"tokens":4970}`, string(got.Data))
	select {
	case e := <-other.C():
		t.Fatalf("unexpected event for other user: %+v", e)
	default:
	}
}

func TestLocalBrokerDropsWhenFull(t *testing.T) {
	b := NewLocalBroker(1)
	sub := b.Subscribe("u1")
	defer sub.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Publish(context.Background(), Event{Type: TypeProfileUpdated, UserID: "u1"}))
	}
	assert.Len(t, sub.C(), 1)
	assert.Equal(t, uint64(2), b.dropped.Load())
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	b := NewLocalBroker(1)
	sub := b.Subscribe("u1")
	assert.Equal(t, 1, b.Subscribers("u1"))
	sub.Close()
	sub.Close()
	assert.Equal(t, 0, b.Subscribers("u1"))
	_, open := <-sub.C()
	assert.False(t, open)
	require.NoError(t, b.Publish(context.Background(), Event{Type: TypeProfileUpdated, UserID: "u1"}))
}

type notifySQL struct {
	query string
	args  []any
}

func (n *notifySQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	n.query, n.args = query, args
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (n *notifySQL) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (n *notifySQL) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

func TestPGBrokerPublishAndDeliver(t *testing.T) {
	local := NewLocalBroker(2)
	sql := &notifySQL{}
	b := NewPGBroker(local, sql, nil, zerolog.Nop())

	ev, err := New(TypeTranscriptionCreated, "u1", map[string]string{"id": "t1"})
	require.NoError(t, err)
	require.NoError(t, b.Publish(context.Background(), ev))
	assert.Equal(t, sqlinline.QNotifyEvent, sql.query)
	require.Len(t, sql.args, 2)
	assert.Equal(t, Channel, sql.args[0])

	sub := b.Subscribe("u1")
	defer sub.Close()
	require.NoError(t, b.deliver(context.Background(), []byte(sql.args[1].(string))))
	got := <-sub.C()
	assert.Equal(t, TypeTranscriptionCreated, got.Type)

	var data map[string]string
	require.NoError(t, json.Unmarshal(got.Data, &data))
	assert.Equal(t, "t1", data["id"])

	assert.Error(t, b.deliver(context.Background(), []byte("nope")))
	assert.Error(t, b.deliver(context.Background(), []byte(`{"type":"x"}`)))
}
