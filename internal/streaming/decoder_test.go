package streaming

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(t *testing.T, d *Decoder, chunks ...string) {
	t.Helper()
	for _, c := range chunks {
		d.Feed([]byte(c))
	}
}

func TestDecoder_PlainJSONChunks(t *testing.T) {
	d := NewDecoder()
	feedAll(t, d, `{"output":"Hello"}`, `{"response":"World"}`)
	assert.Equal(t, "HelloWorld", d.Transcript())
}

func TestDecoder_SSEFraming(t *testing.T) {
	d := NewDecoder()
	done := d.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\ndata: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n"))
	assert.False(t, done)
	assert.Equal(t, "Hello", d.Transcript())
}

func TestDecoder_SSEDoneStopsConsumption(t *testing.T) {
	d := NewDecoder()
	done := d.Feed([]byte("data: {\"response\":\"before\"}\n\ndata: [DONE]\n\ndata: {\"response\":\"after\"}\n\n"))
	assert.True(t, done)
	assert.Equal(t, "before", d.Transcript())

	// Further chunks are ignored once the sentinel was seen.
	assert.True(t, d.Feed([]byte(`{"response":"late"}`)))
	assert.Equal(t, "before", d.Transcript())
}

func TestDecoder_SSEMalformedJSONLine(t *testing.T) {
	d := NewDecoder()
	done := d.Feed([]byte("data: not-json\n\ndata: [DONE]\n\n"))
	assert.True(t, done)
	assert.Equal(t, "not-json", d.Transcript())
}

func TestDecoder_SSEStringPayload(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("data: \"quoted text\"\n\n"))
	assert.Equal(t, "quoted text", d.Transcript())
}

func TestDecoder_SSEObjectWithoutTextField(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("data: {\"usage\":{\"total_tokens\":12}}\n\n"))
	assert.Equal(t, "", d.Transcript())
}

func TestDecoder_FieldPriority(t *testing.T) {
	d := NewDecoder()
	// delta.content wins over the flat fields on the same payload.
	d.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"delta\"}}],\"response\":\"flat\"}\n\n"))
	assert.Equal(t, "delta", d.Transcript())

	d = NewDecoder()
	d.Feed([]byte(`{"text":"txt","content":"cnt","response":"rsp"}`))
	assert.Equal(t, "rsp", d.Transcript())
}

func TestDecoder_RawTextChunk(t *testing.T) {
	d := NewDecoder()
	feedAll(t, d, "plain ", "text")
	assert.Equal(t, "plain text", d.Transcript())
}

func TestDecoder_BareScalarJSON(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
	}{
		{"number", "42"},
		{"boolean", "true"},
		{"null", "null"},
		{"array", `["a","b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			d.Feed([]byte(tt.chunk))
			assert.Equal(t, "", d.Transcript())
		})
	}
}

func TestDecoder_ObjectWithoutFieldKeepsRawChunk(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte(`{"status":"ok"}`))
	assert.Equal(t, `{"status":"ok"}`, d.Transcript())
}

func TestDecoder_EmptyChunk(t *testing.T) {
	d := NewDecoder()
	assert.False(t, d.Feed(nil))
	assert.False(t, d.Feed([]byte{}))
	assert.Equal(t, "", d.Transcript())
}

func TestDecoder_MultiByteBoundary(t *testing.T) {
	d := NewDecoder()
	raw := []byte("héllo wörld")
	// Split in the middle of the two-byte é sequence.
	d.Feed(raw[:2])
	d.Feed(raw[2:9])
	d.Feed(raw[9:])
	assert.Equal(t, "héllo wörld", d.Transcript())
}

func TestConsume_PushesFullTranscript(t *testing.T) {
	body := strings.NewReader(`{"output":"Hello"}`)

	var states []string
	var finals []bool
	transcript, err := Consume(body, func(tr string, final bool) {
		states = append(states, tr)
		finals = append(finals, final)
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello", transcript)
	require.NotEmpty(t, states)
	// Every push carries the accumulated transcript, and exactly the last
	// push is final.
	assert.Equal(t, "Hello", states[len(states)-1])
	for i, f := range finals {
		assert.Equal(t, i == len(finals)-1, f)
	}
}

func TestConsume_DoneSentinelFinalizesOnce(t *testing.T) {
	body := strings.NewReader("data: {\"response\":\"partial\"}\n\ndata: [DONE]\n\n")

	finalPushes := 0
	transcript, err := Consume(body, func(tr string, final bool) {
		if final {
			finalPushes++
			assert.Equal(t, "partial", tr)
		}
	})

	require.NoError(t, err)
	assert.Equal(t, "partial", transcript)
	assert.Equal(t, 1, finalPushes)
}

type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("connection reset")
}

func TestConsume_MidStreamErrorKeepsPartial(t *testing.T) {
	transcript, err := Consume(&failingReader{data: `{"output":"partial "}`}, func(string, bool) {})
	require.Error(t, err)
	assert.Equal(t, "partial ", transcript)
}

func TestConsume_EmptyBody(t *testing.T) {
	transcript, err := Consume(strings.NewReader(""), func(tr string, final bool) {
		assert.True(t, final)
		assert.Equal(t, "", tr)
	})
	require.NoError(t, err)
	assert.Equal(t, "", transcript)
}

var _ io.Reader = (*failingReader)(nil)
