package capture

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vahor/dofuscap/internal/decode"
	"github.com/vahor/dofuscap/internal/schema"
	"github.com/vahor/dofuscap/internal/subscribe"
)

const fixtureHeaderHex = "0000000000000000000000000800450000281234000006000000c0a80101c0a8010215b30050000000000000000050000000" +
	"00000000"

func frameWithBody(body []byte) []byte {
	raw, err := hex.DecodeString(fixtureHeaderHex)
	if err != nil {
		panic(err)
	}
	return append(raw, body...)
}

// fakeSource replays a fixed slice of raw frames then returns io.EOF.
type fakeSource struct {
	frames [][]byte
	idx    int
}

func (f *fakeSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	if f.idx >= len(f.frames) {
		return nil, gopacket.CaptureInfo{}, io.EOF
	}
	raw := f.frames[f.idx]
	f.idx++
	return raw, gopacket.CaptureInfo{Timestamp: time.Now()}, nil
}

func (f *fakeSource) Close() {}

func newTestLoop(t *testing.T) (*Loop, *subscribe.Registry) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"class_name": "Root", "attributes": {"v": "Byte"}}
	]`), 0o644))
	reg, err := schema.Load(path, zap.NewNop())
	require.NoError(t, err)

	subs := subscribe.New(zap.NewNop())
	dec := decode.New(reg, zap.NewNop())
	loop := New(subs, dec, zap.NewNop())
	return loop, subs
}

func TestRunDispatchesOnlyWithSubscribers(t *testing.T) {
	loop, subs := newTestLoop(t)

	var received any
	subs.Subscribe(0, "test", func(msg any) { received = msg })

	// header=1 -> id=0, sizeType=1 (one length byte); length=1; body=[0x07]
	payload := []byte{0x00, 0x01, 0x01, 0x07}
	src := &fakeSource{frames: [][]byte{frameWithBody(payload)}}

	err := loop.Run(context.Background(), src)
	require.NoError(t, err)
	require.NotNil(t, received)

	msg, ok := received.(*decode.Message)
	require.True(t, ok)
	assert.Equal(t, "Root", msg.Name)
}

func TestRunDropsWithoutSubscribers(t *testing.T) {
	loop, _ := newTestLoop(t)
	payload := []byte{0x00, 0x01, 0x01, 0x07}
	src := &fakeSource{frames: [][]byte{frameWithBody(payload)}}

	err := loop.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, loop.Profiles.Size())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	loop, _ := newTestLoop(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{frames: [][]byte{frameWithBody([]byte{0x00, 0x01, 0x01, 0x07})}}
	err := loop.Run(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}
