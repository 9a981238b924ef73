package comm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/rss-runtime/pkg/party"
	"golang.org/x/sync/errgroup"
)

var fastPolicy = Policy{Timeout: 200 * time.Millisecond, Attempts: 3, Backoff: 10 * time.Millisecond}

func testOptions(id party.ID) Options {
	return Options{
		PartyID:  id,
		Parties:  3,
		BasePort: 32000,
		Hosts:    []string{"127.0.0.1", "127.0.0.1", "127.0.0.1"},
		Policy:   fastPolicy,
	}
}

func openAll(t *testing.T, n *MemoryNetwork) map[party.ID]Channel {
	channels := make(map[party.ID]Channel, 3)
	for _, id := range party.All {
		ch, err := n.Open(context.Background(), testOptions(id))
		require.NoError(t, err)
		t.Cleanup(func() { _ = ch.Close() })
		channels[id] = ch
	}
	return channels
}

func TestOptions_Validate(t *testing.T) {
	valid := testOptions(party.B)
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(o *Options)
	}{
		{"none", func(o *Options) { o.PartyID = party.None }},
		{"parties", func(o *Options) { o.Parties = 4 }},
		{"hosts", func(o *Options) { o.Hosts = o.Hosts[:2] }},
		{"empty host", func(o *Options) { o.Hosts = []string{"a", "", "c"} }},
		{"port", func(o *Options) { o.BasePort = 0 }},
		{"port overflow", func(o *Options) { o.BasePort = 65534 }},
		{"cert without key", func(o *Options) { o.ServerCert = "cert.pem" }},
		{"password without key", func(o *Options) { o.ServerPrivateKeyPassword = "secret" }},
		{"policy", func(o *Options) { o.Policy = Policy{Timeout: time.Second} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOptions(party.A)
			tt.modify(&o)
			assert.Error(t, o.Validate())
		})
	}
}

func TestOptions_Endpoint(t *testing.T) {
	o := testOptions(party.A)
	o.Hosts = []string{"10.0.0.1", "10.0.0.2", "::1"}
	addr, err := o.Endpoint(party.B)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2:32001", addr)
	addr, err = o.Endpoint(party.C)
	require.NoError(t, err)
	assert.Equal(t, "[::1]:32002", addr)
	_, err = o.Endpoint(party.None)
	assert.Error(t, err)
}

func TestOptions_SSID(t *testing.T) {
	a, b := testOptions(party.A), testOptions(party.B)
	assert.Equal(t, a.SSID(), b.SSID(), "the role is not part of the session")
	b.BasePort++
	assert.NotEqual(t, a.SSID(), b.SSID())
}

func TestPolicy_Do(t *testing.T) {
	calls := 0
	err := fastPolicy.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return ErrPeerUnreachable
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = fastPolicy.Do(context.Background(), func(context.Context) error {
		calls++
		return ErrPeerUnreachable
	})
	assert.ErrorIs(t, err, ErrPeerUnreachable)
	assert.Equal(t, fastPolicy.Attempts, calls)

	calls = 0
	err = fastPolicy.Do(context.Background(), func(context.Context) error {
		calls++
		return ErrPeerRejected
	})
	assert.ErrorIs(t, err, ErrPeerRejected)
	assert.Equal(t, 1, calls, "only unreachable peers are retried")

	err = fastPolicy.Do(context.Background(), func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(fastPolicy.Timeout), deadline, fastPolicy.Timeout)
		return nil
	})
	assert.NoError(t, err)
}

func TestMessage_Decode(t *testing.T) {
	msg := Message{SSID: []byte{1}, From: party.A, To: party.C, Kind: KindData, Seq: 2, Data: []byte("key")}
	raw, err := msg.Encode()
	require.NoError(t, err)
	decoded, err := DecodeMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, msg.Hash(), decoded.Hash())
	assert.True(t, decoded.IsFor(party.C))
	assert.False(t, decoded.IsFor(party.B))

	_, err = DecodeMessage([]byte{0xff, 0x00})
	assert.ErrorIs(t, err, ErrMalformedPayload)

	bad := msg
	bad.To = party.A
	raw, err = bad.Encode()
	require.NoError(t, err)
	_, err = DecodeMessage(raw)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	bad = msg
	bad.Kind = 9
	raw, err = bad.Encode()
	require.NoError(t, err)
	_, err = DecodeMessage(raw)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestMemoryNetwork_Transfer(t *testing.T) {
	n := NewMemoryNetwork()
	channels := openAll(t, n)

	type step struct{ from, to party.ID }
	steps := []step{{party.A, party.B}, {party.A, party.C}, {party.B, party.C}, {party.C, party.A}, {party.C, party.B}}

	results := make([][][]byte, len(party.All))
	var g errgroup.Group
	for _, id := range party.All {
		id := id
		ch := channels[id]
		g.Go(func() error {
			out := make([][]byte, len(steps))
			for i, s := range steps {
				local := []byte{byte(id), byte(i)}
				got, err := ch.Transfer(context.Background(), s.from, s.to, local)
				if err != nil {
					return err
				}
				out[i] = got
			}
			results[id] = out
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i, s := range steps {
		sent := []byte{byte(s.from), byte(i)}
		assert.Equal(t, sent, results[s.from][i], "sender keeps its value")
		assert.Equal(t, sent, results[s.to][i], "receiver gets the sender's value")
		for _, other := range party.All.Remove(s.from).Remove(s.to) {
			assert.Equal(t, []byte{byte(other), byte(i)}, results[other][i], "bystander is untouched")
		}
	}
}

func TestMemoryNetwork_Open(t *testing.T) {
	n := NewMemoryNetwork()
	n.Fail(party.B)

	_, err := n.Open(context.Background(), testOptions(party.B))
	assert.ErrorIs(t, err, ErrBootstrap)

	ch, err := n.Open(context.Background(), testOptions(party.A))
	require.NoError(t, err)
	_, err = n.Open(context.Background(), testOptions(party.A))
	assert.ErrorIs(t, err, ErrBootstrap, "party already joined")

	_, err = n.Open(context.Background(), testOptions(party.None))
	assert.ErrorIs(t, err, ErrBootstrap)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = n.Open(ctx, testOptions(party.C))
	assert.ErrorIs(t, err, ErrBootstrap)

	assert.NoError(t, ch.Close())
	assert.NoError(t, ch.Close())
	_, err = ch.Transfer(context.Background(), party.A, party.B, []byte{1})
	assert.ErrorIs(t, err, ErrClosed)

	_, err = n.Open(context.Background(), testOptions(party.A))
	assert.NoError(t, err, "a closed party may join again")
}

func TestMemoryNetwork_Unreachable(t *testing.T) {
	n := NewMemoryNetwork()
	a, err := n.Open(context.Background(), testOptions(party.A))
	require.NoError(t, err)
	defer a.Close()

	start := time.Now()
	_, err = a.Transfer(context.Background(), party.A, party.B, []byte{1})
	assert.ErrorIs(t, err, ErrPeerUnreachable)
	assert.True(t, time.Since(start) < 2*time.Second)

	_, err = a.Transfer(context.Background(), party.C, party.A, nil)
	assert.ErrorIs(t, err, ErrPeerUnreachable, "nobody sends to A")
	assert.False(t, errors.Is(err, ErrPeerRejected))
}

func TestMemoryNetwork_Rejected(t *testing.T) {
	n := NewMemoryNetwork()
	channels := openAll(t, n)

	var g errgroup.Group
	var errA, errB error
	g.Go(func() error {
		_, errA = channels[party.A].Transfer(context.Background(), party.A, party.B, nil)
		return nil
	})
	g.Go(func() error {
		_, errB = channels[party.B].Transfer(context.Background(), party.A, party.B, []byte("ignored"))
		return nil
	})
	require.NoError(t, g.Wait())
	assert.ErrorIs(t, errA, ErrPeerRejected)
	assert.ErrorIs(t, errB, ErrMalformedPayload)
}

func TestMemoryNetwork_Malformed(t *testing.T) {
	n := NewMemoryNetwork()
	channels := openAll(t, n)

	garbage := []byte("not cbor")
	require.NoError(t, n.deliver(party.B, garbage))
	_, err := channels[party.B].Transfer(context.Background(), party.A, party.B, nil)
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.Equal(t, make([]byte, len(garbage)), garbage, "delivered envelopes are cleared once read")

	foreign := Message{SSID: []byte("other session"), From: party.A, To: party.C, Kind: KindData, Data: []byte{1}}
	raw, err := foreign.Encode()
	require.NoError(t, err)
	require.NoError(t, n.deliver(party.C, raw))
	_, err = channels[party.C].Transfer(context.Background(), party.A, party.C, nil)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestMemoryNetwork_Invalid(t *testing.T) {
	n := NewMemoryNetwork()
	channels := openAll(t, n)
	_, err := channels[party.A].Transfer(context.Background(), party.A, party.A, []byte{1})
	assert.Error(t, err)
	_, err = channels[party.A].Transfer(context.Background(), party.None, party.A, []byte{1})
	assert.Error(t, err)
	assert.Equal(t, party.A, channels[party.A].Self())
}

func TestMemoryNetwork_Drop(t *testing.T) {
	n := NewMemoryNetwork()
	channels := openAll(t, n)
	n.Drop(party.B)

	_, err := channels[party.A].Transfer(context.Background(), party.A, party.B, []byte{1})
	assert.ErrorIs(t, err, ErrPeerUnreachable)

	_, err = n.Open(context.Background(), testOptions(party.B))
	assert.NoError(t, err, "a dropped party may join again")
}

func TestRestrict(t *testing.T) {
	assert.Nil(t, Restrict(nil))

	n := NewMemoryNetwork()
	channels := openAll(t, n)
	link := Restrict(channels[party.A])
	assert.Equal(t, party.A, link.Self())
	_, ok := link.(Channel)
	assert.False(t, ok)

	got, err := link.Transfer(context.Background(), party.B, party.C, []byte{7})
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, got, "bystanders keep their value")
}
