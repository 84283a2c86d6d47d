package transport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dish59742/gitwire/pktline"
)

func TestFetchPackEmptyRepo(t *testing.T) {
	var server bytes.Buffer
	require.NoError(t, pktline.WritePacket(&server, nil))

	ep, cmd := dialMock(server.Bytes())

	refs, err := FetchPack(ep, DialOptions{}, FetchRequest{
		DetermineWants: func(RefMap) []string { return nil },
		PackSink:       func([]byte) error { return nil },
	})
	require.NoError(t, err)
	require.Empty(t, refs)
	require.Equal(t, "0000", cmd.stdin.String())
}

func TestFetchPackSideBand(t *testing.T) {
	const id = "abc0000000000000000000000000000000abc1"

	var server bytes.Buffer
	require.NoError(t, pktline.WritePacket(&server, []byte(id+" HEAD\x00multi_ack side-band-64k\n")))
	require.NoError(t, pktline.WritePacket(&server, []byte(id+" refs/heads/master\n")))
	require.NoError(t, pktline.WritePacket(&server, nil))

	require.NoError(t, pktline.WritePacket(&server, []byte("NAK\n")))
	packBytes := []byte("PACK-PAYLOAD")
	require.NoError(t, pktline.WritePacket(&server, append([]byte{1}, packBytes...)))
	require.NoError(t, pktline.WritePacket(&server, nil))

	ep, cmd := dialMock(server.Bytes())

	var gotPack []byte
	refs, err := FetchPack(ep, DialOptions{}, FetchRequest{
		DetermineWants: func(RefMap) []string { return []string{id} },
		PackSink: func(p []byte) error {
			gotPack = append(gotPack, p...)
			return nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, RefMap{"HEAD": id, "refs/heads/master": id}, refs)
	require.Equal(t, packBytes, gotPack)

	sent := cmd.stdin.String()
	require.Contains(t, sent, "want "+id)
	require.Contains(t, sent, "done\n")
}

type fakeWalker struct {
	haves []string
	i     int
	acked []string
}

func (w *fakeWalker) Next() (string, bool) {
	if w.i >= len(w.haves) {
		return "", false
	}
	id := w.haves[w.i]
	w.i++
	return id, true
}

func (w *fakeWalker) Ack(id string) { w.acked = append(w.acked, id) }

func TestFetchPackWithHaveLoop(t *testing.T) {
	const wantID = "abc0000000000000000000000000000000abc1"
	const haveID = "def0000000000000000000000000000000def1"

	var server bytes.Buffer
	require.NoError(t, pktline.WritePacket(&server, []byte(wantID+" refs/heads/master\x00multi_ack side-band-64k\n")))
	require.NoError(t, pktline.WritePacket(&server, nil))

	require.NoError(t, pktline.WritePacket(&server, []byte("NAK\n")))
	packBytes := []byte("PACK-PAYLOAD")
	require.NoError(t, pktline.WritePacket(&server, append([]byte{1}, packBytes...)))
	require.NoError(t, pktline.WritePacket(&server, nil))

	ep, cmd := dialMock(server.Bytes())

	walker := &fakeWalker{haves: []string{haveID}}
	var gotPack []byte
	refs, err := FetchPack(ep, DialOptions{}, FetchRequest{
		DetermineWants: func(RefMap) []string { return []string{wantID} },
		Walker:         walker,
		PackSink: func(p []byte) error {
			gotPack = append(gotPack, p...)
			return nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, RefMap{"refs/heads/master": wantID}, refs)
	require.Equal(t, packBytes, gotPack)

	sent := cmd.stdin.String()
	require.Contains(t, sent, "have "+haveID)
	require.Contains(t, sent, "done\n")
	require.Equal(t, len(walker.haves), walker.i, "walker is drained to exhaustion before done is sent")
}

func TestFetchPackHaveLoopInterleavesACKs(t *testing.T) {
	const wantID = "abc0000000000000000000000000000000abc1"
	const have1 = "111d000000000000000000000000000000111d"
	const have2 = "222d000000000000000000000000000000222d"

	var server bytes.Buffer
	require.NoError(t, pktline.WritePacket(&server, []byte(wantID+" refs/heads/master\x00multi_ack side-band-64k\n")))
	require.NoError(t, pktline.WritePacket(&server, nil))

	// One ACK continue per "have", read back in lockstep since CanRead
	// always reports ready for this mock.
	require.NoError(t, pktline.WritePacket(&server, []byte("ACK "+have1+" continue\n")))
	require.NoError(t, pktline.WritePacket(&server, []byte("ACK "+have2+" continue\n")))

	require.NoError(t, pktline.WritePacket(&server, []byte("NAK\n")))
	packBytes := []byte("PACK-PAYLOAD")
	require.NoError(t, pktline.WritePacket(&server, append([]byte{1}, packBytes...)))
	require.NoError(t, pktline.WritePacket(&server, nil))

	ep, _ := dialMockReady(server.Bytes())

	walker := &fakeWalker{haves: []string{have1, have2}}
	refs, err := FetchPack(ep, DialOptions{}, FetchRequest{
		DetermineWants: func(RefMap) []string { return []string{wantID} },
		Walker:         walker,
		PackSink:       func([]byte) error { return nil },
	})
	require.NoError(t, err)
	require.Equal(t, RefMap{"refs/heads/master": wantID}, refs)
	require.Equal(t, []string{have1, have2}, walker.acked)
}

func TestFetchPackServerRefused(t *testing.T) {
	var server bytes.Buffer
	require.NoError(t, pktline.WritePacket(&server, []byte("ERR access denied\n")))

	ep, _ := dialMock(server.Bytes())
	_, err := FetchPack(ep, DialOptions{}, FetchRequest{
		DetermineWants: func(RefMap) []string { return nil },
		PackSink:       func([]byte) error { return nil },
	})
	require.Error(t, err)

	var refused *ServerRefusedError
	require.ErrorAs(t, err, &refused)
	require.Equal(t, "access denied", refused.Reason)
}
