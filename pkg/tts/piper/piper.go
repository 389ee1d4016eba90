// Package piper implements the tts.Engine interface against a Piper Wyoming
// protocol server.
//
// Piper is a fast, local neural text-to-speech system; the linuxserver/piper
// container exposes the Wyoming protocol on TCP port 10200.
//
// Wyoming protocol format (per event):
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)
//
// A synthesize request is answered with audio-start, audio-chunk*, audio-stop
// (or error). The engine wraps the received PCM in a WAV container and writes
// it to the configured sink.
package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fintora/voxassist/pkg/tts"
)

// defaultVoices maps ISO-639-1 language codes to Piper voice model names.
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"es": "es_ES-mls_10246-low",
}

const dialTimeout = 10 * time.Second

// Engine synthesises utterances through a Piper Wyoming server. One utterance
// is in flight at a time; Enqueue while another utterance is active reports
// tts.ErrInterrupted for the previous one.
type Engine struct {
	addr string
	sink io.Writer

	mu              sync.Mutex
	voices          map[string]string // language code -> model name
	cancel          context.CancelFunc
	onVoicesChanged func()
}

var _ tts.Engine = (*Engine)(nil)

// Option configures an [Engine].
type Option func(*Engine)

// WithSink sets the writer that receives each utterance's WAV audio.
// The default discards audio.
func WithSink(w io.Writer) Option {
	return func(e *Engine) {
		if w != nil {
			e.sink = w
		}
	}
}

// WithVoices overrides the per-language voice models.
func WithVoices(voices map[string]string) Option {
	return func(e *Engine) {
		for code, model := range voices {
			e.voices[code] = model
		}
	}
}

// New creates an engine that synthesises through the Wyoming server at addr
// (host:port, with an optional tcp:// or http:// prefix).
func New(addr string, opts ...Option) *Engine {
	addr = strings.TrimPrefix(addr, "tcp://")
	addr = strings.TrimPrefix(addr, "http://")

	e := &Engine{
		addr:   addr,
		sink:   io.Discard,
		voices: make(map[string]string, len(defaultVoices)),
	}
	for code, model := range defaultVoices {
		e.voices[code] = model
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ping checks that the Wyoming server is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", e.addr)
	if err != nil {
		return fmt.Errorf("piper: ping %s: %w", e.addr, err)
	}
	return conn.Close()
}

// Enqueue starts synthesising u in a background goroutine. Any in-flight
// utterance is cancelled first.
func (e *Engine) Enqueue(u tts.Utterance) {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.mu.Unlock()

	go e.run(ctx, u)
}

// Cancel stops the in-flight utterance, if any. Its Error callback fires with
// tts.ErrInterrupted.
func (e *Engine) Cancel() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Pause is a no-op: Wyoming synthesis is a single request/response exchange,
// so there is no playback stream to pause. The caller gates dispatch instead.
func (e *Engine) Pause() {}

// Resume is a no-op, matching [Engine.Pause].
func (e *Engine) Resume() {}

// Voices reports one synthetic voice per configured language model.
func (e *Engine) Voices() []tts.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]tts.Voice, 0, len(e.voices))
	for code, model := range e.voices {
		out = append(out, tts.Voice{
			Name:         model,
			Locale:       modelLocale(model, code),
			LocalService: true,
			Default:      code == "en",
		})
	}
	return out
}

// SetVoices replaces the per-language voice models and notifies the
// voices-changed listener.
func (e *Engine) SetVoices(voices map[string]string) {
	e.mu.Lock()
	e.voices = make(map[string]string, len(voices))
	for code, model := range voices {
		e.voices[code] = model
	}
	cb := e.onVoicesChanged
	e.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// OnVoicesChanged registers the callback invoked after [Engine.SetVoices].
func (e *Engine) OnVoicesChanged(fn func()) {
	e.mu.Lock()
	e.onVoicesChanged = fn
	e.mu.Unlock()
}

// run performs a full synthesize exchange for one utterance.
func (e *Engine) run(ctx context.Context, u tts.Utterance) {
	wav, err := e.synthesize(ctx, u)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			err = tts.ErrInterrupted
		} else {
			slog.Warn("piper: synthesis failed", "utterance", u.ID, "err", err)
		}
		if u.Events.Error != nil {
			u.Events.Error(err)
		}
		return
	}

	if u.Events.Start != nil {
		u.Events.Start()
	}
	if _, err := e.sink.Write(wav); err != nil {
		slog.Warn("piper: sink write failed", "utterance", u.ID, "err", err)
		if u.Events.Error != nil {
			u.Events.Error(fmt.Errorf("piper: write audio: %w", err))
		}
		return
	}
	if u.Events.End != nil {
		u.Events.End()
	}
}

// synthesize connects to the server, sends the synthesize event, and collects
// the audio response into a WAV byte slice.
func (e *Engine) synthesize(ctx context.Context, u tts.Utterance) ([]byte, error) {
	voice := e.voiceModel(u)

	slog.Debug("piper: synthesize", "utterance", u.ID, "text_length", len(u.Text), "voice", voice, "addr", e.addr)

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", e.addr)
	if err != nil {
		return nil, fmt.Errorf("piper: connect: %w", err)
	}
	defer conn.Close()

	// Unblock conn reads when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	req := event{
		Type: "synthesize",
		Data: map[string]any{
			"text": u.Text,
			"voice": map[string]any{
				"name": voice,
			},
		},
	}
	if err := writeEvent(conn, req, nil); err != nil {
		return nil, fmt.Errorf("piper: send synthesize: %w", err)
	}

	var (
		pcm        bytes.Buffer
		sampleRate = 22050
		channels   = 1
		width      = 2
	)
	br := bufio.NewReader(conn)

	for {
		evt, payload, err := readEvent(br)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("piper: read event: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			if v, ok := evt.Data["rate"].(float64); ok {
				sampleRate = int(v)
			}
			if v, ok := evt.Data["channels"].(float64); ok {
				channels = int(v)
			}
			if v, ok := evt.Data["width"].(float64); ok {
				width = int(v)
			}

		case "audio-chunk":
			pcm.Write(payload)

		case "audio-stop":
			slog.Debug("piper: audio complete", "utterance", u.ID, "pcm_bytes", pcm.Len())
			return pcmToWAV(pcm.Bytes(), sampleRate, channels, width), nil

		case "error":
			msg := "unknown error"
			if v, ok := evt.Data["text"].(string); ok {
				msg = v
			}
			return nil, fmt.Errorf("piper: server error: %s", msg)

		default:
			slog.Debug("piper: ignoring event", "type", evt.Type)
		}
	}
}

// voiceModel picks the model for an utterance: explicit voice name, then the
// language mapping, then English.
func (e *Engine) voiceModel(u tts.Utterance) string {
	if u.Voice != nil && u.Voice.Name != "" {
		return u.Voice.Name
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	code := u.Lang
	if i := strings.IndexByte(code, '-'); i > 0 {
		code = code[:i]
	}
	if model, ok := e.voices[code]; ok {
		return model
	}
	return e.voices["en"]
}

// modelLocale derives a BCP 47 locale from a Piper model name such as
// "en_US-lessac-medium". Falls back to the bare language code.
func modelLocale(model, code string) string {
	if i := strings.IndexByte(model, '-'); i > 0 {
		return strings.ReplaceAll(model[:i], "_", "-")
	}
	return code
}

// --- Wyoming protocol framing ---

type event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// writeEvent frames and sends one Wyoming event.
func writeEvent(w io.Writer, evt event, payload []byte) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d\n", len(body), len(payload))
	buf.Write(body)
	buf.WriteByte('\n')
	buf.Write(payload)

	_, err = w.Write(buf.Bytes())
	return err
}

// readEvent reads one framed Wyoming event.
func readEvent(r *bufio.Reader) (*event, []byte, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	header = strings.TrimSuffix(header, "\n")

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("invalid header %q", header)
	}
	jsonLen, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, nil, fmt.Errorf("parse json length: %w", err)
	}
	payloadLen, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, nil, fmt.Errorf("parse payload length: %w", err)
	}

	body := make([]byte, jsonLen+1) // +1 for the trailing newline
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, fmt.Errorf("read json: %w", err)
	}
	body = body[:jsonLen]

	var evt event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, nil, fmt.Errorf("unmarshal event: %w", err)
	}

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("read payload: %w", err)
		}
	}
	return &evt, payload, nil
}

// pcmToWAV wraps raw PCM samples in a minimal WAV container.
func pcmToWAV(pcm []byte, sampleRate, channels, bytesPerSample int) []byte {
	dataLen := len(pcm)

	buf := &bytes.Buffer{}
	buf.Grow(44 + dataLen)

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*bytesPerSample))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels*bytesPerSample))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bytesPerSample*8))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(pcm)

	return buf.Bytes()
}
