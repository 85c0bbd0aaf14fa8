package player

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/minbar/internal/broadcast"
)

type recordingPublisher struct {
	channels []string
	payloads [][]byte
	err      error
}

func (r *recordingPublisher) Publish(screen, channel string, payload []byte, retain bool) error {
	r.channels = append(r.channels, screen+"/"+channel)
	r.payloads = append(r.payloads, payload)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func TestRemote(t *testing.T) {
	pub := &recordingPublisher{}
	r := NewRemote(pub, "main-hall")

	require.NoError(t, r.Play("media/adzan.mp3"))
	require.NoError(t, r.Stop())

	assert.Equal(t, []string{"main-hall/" + broadcast.ChannelAudio, "main-hall/" + broadcast.ChannelAudio}, pub.channels)

	var cmd Command
	require.NoError(t, json.Unmarshal(pub.payloads[0], &cmd))
	assert.Equal(t, Command{Action: "play", Src: "media/adzan.mp3"}, cmd)
	assert.JSONEq(t, `{"action":"stop"}`, string(pub.payloads[1]))

	pub.err = errors.New("offline")
	assert.ErrorContains(t, r.Play("x.mp3"), "play")
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Play("anything.mp3"))
	assert.NoError(t, Nop{}.Stop())
}

func TestDecoderFor(t *testing.T) {
	for _, src := range []string{"a.mp3", "b.WAV", "c.ogg", "dir/d.oga"} {
		_, err := decoderFor(src)
		assert.NoError(t, err, src)
	}
	_, err := decoderFor("cover.png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSpeakerPlayErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/media/broken.mp3", []byte("not audio"), 0o644))
	// no sound device in tests: only the paths that fail before playback are exercised
	s := &Speaker{fs: fs, root: "/media", rate: DefaultSampleRate}

	assert.ErrorIs(t, s.Play("tarhim.flac"), ErrUnsupportedFormat)
	assert.ErrorContains(t, s.Play("missing.mp3"), "failed to open")
	assert.ErrorContains(t, s.Play("broken.mp3"), "failed to decode")
}

func TestSpeakerPath(t *testing.T) {
	s := &Speaker{root: "/srv/media"}
	assert.Equal(t, "/srv/media/adzan.mp3", s.path("adzan.mp3"))
	assert.Equal(t, "/tmp/x.mp3", s.path("/tmp/x.mp3"))
}
