package journal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"blastview/internal/session"
)

// Bundle is a loaded journal.
type Bundle struct {
	Manifest Manifest
	Calls    []session.Call
	Frames   []session.FrameSnapshot
}

// Load reads the bundle in dir.
func Load(dir string) (Bundle, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Bundle{}, fmt.Errorf("journal: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b.Manifest); err != nil {
		return Bundle{}, fmt.Errorf("journal: manifest: %w", err)
	}
	if b.Manifest.Version != Version {
		return Bundle{}, fmt.Errorf("journal: unsupported manifest version %d", b.Manifest.Version)
	}
	if b.Calls, err = loadCalls(filepath.Join(dir, b.Manifest.CallsPath)); err != nil {
		return Bundle{}, err
	}
	if b.Frames, err = loadFrames(filepath.Join(dir, b.Manifest.FramesPath)); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

func loadCalls(path string) ([]session.Call, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(snappy.NewReader(file))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var calls []session.Call
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var c session.Call
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return nil, fmt.Errorf("journal: call %d: %w", len(calls), err)
		}
		calls = append(calls, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("journal: calls: %w", err)
	}
	return calls, nil
}

func loadFrames(path string) ([]session.FrameSnapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	defer file.Close()

	reader, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	defer reader.Close()
	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("journal: frames: %w", err)
	}

	var frames []session.FrameSnapshot
	for offset := 0; offset < len(payload); {
		if offset+4 > len(payload) {
			return nil, fmt.Errorf("journal: frame %d header truncated", len(frames))
		}
		size := int(binary.LittleEndian.Uint32(payload[offset:]))
		offset += 4
		if offset+size > len(payload) {
			return nil, fmt.Errorf("journal: frame %d payload truncated", len(frames))
		}
		var f session.FrameSnapshot
		if err := json.Unmarshal(payload[offset:offset+size], &f); err != nil {
			return nil, fmt.Errorf("journal: frame %d: %w", len(frames), err)
		}
		offset += size
		frames = append(frames, f)
	}
	return frames, nil
}
