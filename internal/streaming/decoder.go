// Package streaming reconstructs assistant text from a completion response
// body. The upstream endpoint is not consistent about its wire format: the
// same deployment has been observed emitting SSE frames, bare JSON objects,
// and raw text, sometimes switching shape between chunks. The decoder accepts
// all three and grows a single transcript.
package streaming

import (
	"encoding/json"
	"io"
	"strings"
	"unicode/utf8"
)

// doneSentinel is the SSE payload that marks the end of a stream.
const doneSentinel = "[DONE]"

// ssePrefix marks a chunk as SSE-framed when it appears anywhere in the text.
const ssePrefix = "data: "

// Decoder accumulates assistant text chunk by chunk. It is not safe for
// concurrent use; one decoder serves one response body.
type Decoder struct {
	transcript strings.Builder
	partial    []byte
	done       bool
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Transcript returns the full text accumulated so far.
func (d *Decoder) Transcript() string {
	return d.transcript.String()
}

// Done reports whether the [DONE] sentinel has been seen.
func (d *Decoder) Done() bool {
	return d.done
}

// Feed consumes one raw chunk of the response body and reports whether the
// [DONE] sentinel was hit. Once the sentinel is seen, further chunks are
// ignored. Multi-byte sequences split across chunk boundaries are buffered
// until the rest arrives.
func (d *Decoder) Feed(chunk []byte) bool {
	if d.done {
		return true
	}

	text := d.decodeText(chunk)
	if text == "" {
		return false
	}

	if strings.Contains(text, ssePrefix) {
		d.feedSSE(text)
		return d.done
	}

	d.feedPlain(text)
	return false
}

// feedSSE treats the whole chunk as newline-delimited SSE framing.
func (d *Decoder) feedSSE(text string) {
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, ssePrefix) {
			continue
		}
		payload := strings.TrimPrefix(line, ssePrefix)
		if strings.TrimSpace(payload) == doneSentinel {
			d.done = true
			return
		}

		var value interface{}
		if err := json.Unmarshal([]byte(payload), &value); err != nil {
			// Not JSON at all: the payload itself is the text.
			d.transcript.WriteString(payload)
			continue
		}
		if s, ok := extractText(value, sseExtractors); ok {
			d.transcript.WriteString(s)
		}
	}
}

// feedPlain treats the whole chunk as a single JSON value, falling back to
// raw text when it does not parse or carries no recognized field.
func (d *Decoder) feedPlain(text string) {
	var value interface{}
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		d.transcript.WriteString(text)
		return
	}

	switch value.(type) {
	case map[string]interface{}:
		if s, ok := extractText(value, plainExtractors); ok {
			d.transcript.WriteString(s)
			return
		}
		// Valid JSON object without a recognized text field: keep the
		// raw chunk rather than dropping it.
		d.transcript.WriteString(text)
	case string:
		d.transcript.WriteString(value.(string))
	default:
		// Bare numbers, booleans, nulls and arrays carry no text.
	}
}

// decodeText folds the chunk into any buffered partial sequence and returns
// the longest prefix that ends on a rune boundary; the incomplete tail is
// held back for the next chunk.
func (d *Decoder) decodeText(chunk []byte) string {
	b := chunk
	if len(d.partial) > 0 {
		b = append(d.partial, chunk...)
		d.partial = nil
	}
	if len(b) == 0 {
		return ""
	}

	cut := len(b)
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				cut = i
			}
			break
		}
	}
	if cut < len(b) {
		d.partial = append([]byte(nil), b[cut:]...)
	}
	return string(b[:cut])
}

// extractor pulls assistant text out of one decoded JSON value. Extractors
// are tried in order; the first non-empty result wins.
type extractor func(value interface{}) (string, bool)

var (
	sseExtractors = []extractor{
		rawString,
		choicesDeltaContent,
		field("response"),
		field("output"),
		field("text"),
		field("content"),
	}

	// Whole-chunk JSON never uses OpenAI delta framing.
	plainExtractors = []extractor{
		rawString,
		field("response"),
		field("output"),
		field("text"),
		field("content"),
	}
)

func extractText(value interface{}, extractors []extractor) (string, bool) {
	for _, extract := range extractors {
		if s, ok := extract(value); ok {
			return s, true
		}
	}
	return "", false
}

// rawString accepts a payload that is itself a plain JSON string.
func rawString(value interface{}) (string, bool) {
	s, ok := value.(string)
	return s, ok && s != ""
}

// field reads a top-level string field from a JSON object.
func field(name string) extractor {
	return func(value interface{}) (string, bool) {
		obj, ok := value.(map[string]interface{})
		if !ok {
			return "", false
		}
		s, ok := obj[name].(string)
		return s, ok && s != ""
	}
}

// choicesDeltaContent reads choices[0].delta.content from an OpenAI-style
// stream chunk.
func choicesDeltaContent(value interface{}) (string, bool) {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return "", false
	}
	choices, ok := obj["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return "", false
	}
	first, ok := choices[0].(map[string]interface{})
	if !ok {
		return "", false
	}
	delta, ok := first["delta"].(map[string]interface{})
	if !ok {
		return "", false
	}
	s, ok := delta["content"].(string)
	return s, ok && s != ""
}

// Consume reads the response body to completion, invoking push with the full
// transcript accumulated so far after every chunk. The final push carries
// final=true and fires exactly once, on the [DONE] sentinel or on natural
// end of input. The returned transcript is whatever had accumulated when the
// stream ended, even on error.
func Consume(r io.Reader, push func(transcript string, final bool)) (string, error) {
	d := NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if d.Feed(buf[:n]) {
				push(d.Transcript(), true)
				return d.Transcript(), nil
			}
			push(d.Transcript(), false)
		}
		if err == io.EOF {
			push(d.Transcript(), true)
			return d.Transcript(), nil
		}
		if err != nil {
			return d.Transcript(), err
		}
	}
}
