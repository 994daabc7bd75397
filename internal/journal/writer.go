// Package journal records the calls a host makes into a session and the
// interaction state after every frame, and replays recorded calls.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"blastview/internal/session"
)

const (
	// Version of the bundle layout.
	Version = 1

	CallsFile    = "calls.jsonl.sz"
	FramesFile   = "frames.bin.zst"
	ManifestFile = "manifest.json"
)

var nameCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Manifest describes a journal bundle.
type Manifest struct {
	Version    int    `json:"version"`
	CreatedAt  string `json:"created_at"`
	Seed       uint64 `json:"seed"`
	CallsPath  string `json:"calls_path"`
	FramesPath string `json:"frames_path"`
	Calls      int    `json:"calls"`
	Frames     int    `json:"frames"`
}

// Writer is a session.Recorder that streams to a bundle directory. Write
// errors are sticky and reported by Err and Close.
type Writer struct {
	mu          sync.Mutex
	dir         string
	manifest    Manifest
	callFile    *os.File
	callStream  *snappy.Writer
	frameFile   *os.File
	frameStream *zstd.Encoder
	err         error
	closed      bool
}

// NewWriter creates root/<name>-<timestamp> and opens the compressed streams.
func NewWriter(root, name string, seed uint64, clock func() time.Time) (*Writer, error) {
	if root == "" {
		return nil, errors.New("journal: root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}
	cleaned := nameCleaner.ReplaceAllString(name, "")
	if cleaned == "" {
		cleaned = "session"
	}
	created := clock().UTC()
	dir := filepath.Join(root, fmt.Sprintf("%s-%s", cleaned, created.Format("20060102T150405.000Z")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	callFile, err := os.Create(filepath.Join(dir, CallsFile))
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	frameFile, err := os.Create(filepath.Join(dir, FramesFile))
	if err != nil {
		callFile.Close()
		return nil, fmt.Errorf("journal: %w", err)
	}
	frameStream, err := zstd.NewWriter(frameFile)
	if err != nil {
		callFile.Close()
		frameFile.Close()
		return nil, fmt.Errorf("journal: %w", err)
	}

	w := &Writer{
		dir: dir,
		manifest: Manifest{
			Version:    Version,
			CreatedAt:  created.Format(time.RFC3339Nano),
			Seed:       seed,
			CallsPath:  CallsFile,
			FramesPath: FramesFile,
		},
		callFile:    callFile,
		callStream:  snappy.NewBufferedWriter(callFile),
		frameFile:   frameFile,
		frameStream: frameStream,
	}
	if err := w.writeManifest(); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// Directory is the bundle directory.
func (w *Writer) Directory() string { return w.dir }

// Record appends one call line to the call log.
func (w *Writer) Record(c session.Call) {
	line, err := json.Marshal(c)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.err != nil {
		return
	}
	if err != nil {
		w.err = err
		return
	}
	line = append(line, '\n')
	if _, err := w.callStream.Write(line); err != nil {
		w.err = fmt.Errorf("journal: write call: %w", err)
		return
	}
	w.manifest.Calls++
}

// Frame appends a length-prefixed snapshot to the frame stream.
func (w *Writer) Frame(f session.FrameSnapshot) {
	payload, err := json.Marshal(f)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.err != nil {
		return
	}
	if err != nil {
		w.err = err
		return
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.frameStream.Write(header[:]); err != nil {
		w.err = fmt.Errorf("journal: write frame: %w", err)
		return
	}
	if _, err := w.frameStream.Write(payload); err != nil {
		w.err = fmt.Errorf("journal: write frame: %w", err)
		return
	}
	w.manifest.Frames++
}

// Err is the first write error, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close flushes the streams and rewrites the manifest with final counts.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return w.err
	}
	w.closed = true

	errs := []error{w.err}
	errs = append(errs,
		w.callStream.Close(),
		w.callFile.Close(),
		w.frameStream.Close(),
		w.frameFile.Close(),
		w.writeManifest(),
	)
	return errors.Join(errs...)
}

func (w *Writer) writeManifest() error {
	data, err := json.MarshalIndent(w.manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(w.dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("journal: write manifest: %w", err)
	}
	return nil
}
