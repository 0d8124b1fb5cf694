package media

import (
	"bytes"
	"strings"
	"sync"

	"memory-beads-be/pkg/apperr"
)

// DefaultPreference is the encoding order tried when a recording starts.
var DefaultPreference = []string{
	"audio/webm;codecs=opus",
	"audio/webm",
	"audio/mp4",
	"audio/ogg",
	"audio/aac",
}

const DefaultMaxRecordingBytes = 25 << 20

var audioExtensions = map[string]string{
	"audio/webm": ".webm",
	"audio/mp4":  ".m4a",
	"audio/ogg":  ".ogg",
	"audio/aac":  ".aac",
}

// Recording is a finished capture.
type Recording struct {
	Handle   string `json:"handle"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

type session struct {
	mimeType string
	buf      bytes.Buffer
}

// Recorder owns one capture device per owner. A device is held from Start
// until Stop or Abort, whichever comes first, and a second Start while it is
// held is refused.
type Recorder struct {
	store    *DiskStore
	maxBytes int64

	mu       sync.Mutex
	sessions map[string]*session
}

func NewRecorder(store *DiskStore, maxBytes int64) *Recorder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRecordingBytes
	}
	return &Recorder{
		store:    store,
		maxBytes: maxBytes,
		sessions: make(map[string]*session),
	}
}

// Negotiate picks the first preferred encoding the client can produce. An
// empty client list means "anything".
func Negotiate(accepted []string) (string, bool) {
	if len(accepted) == 0 {
		return DefaultPreference[0], true
	}
	for _, preferred := range DefaultPreference {
		for _, a := range accepted {
			if strings.EqualFold(strings.ReplaceAll(a, " ", ""), preferred) {
				return preferred, true
			}
		}
	}
	return "", false
}

// Start claims the owner's device and returns the negotiated encoding.
func (r *Recorder) Start(owner string, accepted []string) (string, error) {
	mimeType, ok := Negotiate(accepted)
	if !ok {
		return "", apperr.DeviceAccess("no supported audio encoding").
			WithDetails(map[string]interface{}{"accepted": accepted})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.sessions[owner]; busy {
		return "", apperr.DeviceAccess("recording device is busy")
	}
	r.sessions[owner] = &session{mimeType: mimeType}
	return mimeType, nil
}

// Write appends a chunk to the owner's recording. Exceeding the size limit
// aborts the session and releases the device.
func (r *Recorder) Write(owner string, chunk []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[owner]
	if !ok {
		return apperr.DeviceAccess("no recording in progress")
	}
	if int64(s.buf.Len()+len(chunk)) > r.maxBytes {
		delete(r.sessions, owner)
		return apperr.UserInput("recording exceeds %d bytes", r.maxBytes)
	}
	s.buf.Write(chunk)
	return nil
}

// Stop releases the device and stores the recording. actualMimeType is the
// encoding the client reports it really used; it wins over the negotiated one
// because browsers may silently ignore the requested type.
func (r *Recorder) Stop(owner, actualMimeType string) (Recording, error) {
	r.mu.Lock()
	s, ok := r.sessions[owner]
	delete(r.sessions, owner)
	r.mu.Unlock()

	if !ok {
		return Recording{}, apperr.DeviceAccess("no recording in progress")
	}

	mimeType := s.mimeType
	if actualMimeType != "" {
		mimeType = actualMimeType
	}
	ext, ok := audioExtensions[baseType(mimeType)]
	if !ok {
		return Recording{}, apperr.DeviceAccess("unsupported audio encoding %q", mimeType)
	}
	if s.buf.Len() == 0 {
		return Recording{}, apperr.UserInput("recording is empty")
	}

	handle, err := r.store.Save("audio", ext, s.buf.Bytes())
	if err != nil {
		return Recording{}, err
	}
	return Recording{Handle: handle, MimeType: mimeType, Size: int64(s.buf.Len())}, nil
}

// Abort releases the owner's device without storing anything. It reports
// whether a session was open.
func (r *Recorder) Abort(owner string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[owner]
	delete(r.sessions, owner)
	return ok
}

func (r *Recorder) Active(owner string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[owner]
	return ok
}

// AbortAll releases every device, used on shutdown.
func (r *Recorder) AbortAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.sessions)
	r.sessions = make(map[string]*session)
	return n
}

func baseType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
