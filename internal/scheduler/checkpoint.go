package scheduler

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/cdstlab/optimizer/internal/allocation"
	"github.com/cdstlab/optimizer/internal/objectives"
	"github.com/cdstlab/optimizer/internal/solver"
)

// CheckpointStore is the pluggable durable-storage seam: put/get by
// scenario ID. A durable backend (object storage, a KV database) can
// satisfy this without the Scheduler changing.
type CheckpointStore interface {
	Put(scenarioID string, blob []byte) error
	Get(scenarioID string) ([]byte, bool, error)
}

// InMemoryCheckpointStore is the in-process implementation used for tests
// and single-node operation.
type InMemoryCheckpointStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewInMemoryCheckpointStore() *InMemoryCheckpointStore {
	return &InMemoryCheckpointStore{blobs: make(map[string][]byte)}
}

func (s *InMemoryCheckpointStore) Put(scenarioID string, blob []byte) error {
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.mu.Lock()
	s.blobs[scenarioID] = cp
	s.mu.Unlock()
	return nil
}

func (s *InMemoryCheckpointStore) Get(scenarioID string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[scenarioID]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, true, nil
}

// FileCheckpointStore persists one blob file per scenario under a base
// directory, giving a real process-restart resume path for the CLI
// without requiring an external durable-storage dependency.
type FileCheckpointStore struct {
	dir string
}

// NewFileCheckpointStore returns a FileCheckpointStore rooted at dir,
// creating it if necessary.
func NewFileCheckpointStore(dir string) (*FileCheckpointStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint store: create %s: %w", dir, err)
	}
	return &FileCheckpointStore{dir: dir}, nil
}

func (s *FileCheckpointStore) path(scenarioID string) string {
	return filepath.Join(s.dir, scenarioID+".ckpt")
}

// Put writes blob atomically: a temp file is written then renamed over the
// final path, so a crash mid-write never leaves a half-written checkpoint
// behind for Get to trip over.
func (s *FileCheckpointStore) Put(scenarioID string, blob []byte) error {
	final := s.path(scenarioID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return fmt.Errorf("checkpoint store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("checkpoint store: rename %s: %w", tmp, err)
	}
	return nil
}

// Get reads the scenario's checkpoint blob, returning ok=false if none
// exists.
func (s *FileCheckpointStore) Get(scenarioID string) ([]byte, bool, error) {
	blob, err := os.ReadFile(s.path(scenarioID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("checkpoint store: read %s: %w", s.path(scenarioID), err)
	}
	return blob, true, nil
}

var checkpointMagic = [4]byte{'C', 'D', 'S', 'T'}

const checkpointVersion byte = 1

var errBadCheckpoint = errors.New("malformed checkpoint blob")

// checkpointPayload is what survives a restart for one scenario: the
// generation counter, the RNG seed the run was (re)started from, and the
// full population with its already-computed objectives.
type checkpointPayload struct {
	Generation int64
	RNGSeed    int64
	Population []individualRecord
}

type individualRecord struct {
	X         []int32
	F         objectives.Vector
	Penalty   float64
	Composite float64
	Rank      int32
	Crowding  float64
}

// encodeCheckpoint serializes generation/rngSeed/population into the blob
// layout: magic bytes, version, scenario_id, generation, rng seed, then a
// zstd-compressed population section.
func encodeCheckpoint(scenarioID string, generation int, rngSeed int64, population []*solver.Individual) ([]byte, error) {
	payload := checkpointPayload{
		Generation: int64(generation),
		RNGSeed:    rngSeed,
		Population: make([]individualRecord, len(population)),
	}
	for i, ind := range population {
		payload.Population[i] = individualRecord{
			X:         ind.Alloc.X,
			F:         ind.F,
			Penalty:   ind.Penalty,
			Composite: ind.Composite,
			Rank:      int32(ind.Rank),
			Crowding:  ind.Crowding,
		}
	}

	var raw bytes.Buffer
	if err := writePopulation(&raw, payload); err != nil {
		return nil, err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: create zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(raw.Bytes(), nil)
	enc.Close()

	var out bytes.Buffer
	out.Write(checkpointMagic[:])
	out.WriteByte(checkpointVersion)
	writeString(&out, scenarioID)
	binary.Write(&out, binary.LittleEndian, payload.Generation)
	binary.Write(&out, binary.LittleEndian, payload.RNGSeed)
	binary.Write(&out, binary.LittleEndian, uint32(len(compressed)))
	out.Write(compressed)
	return out.Bytes(), nil
}

// decodeCheckpoint reverses encodeCheckpoint, reconstructing a population
// of Individuals over fresh allocations sized nAreas×nLabs×nTests. A stored
// allocation whose size does not match those dimensions makes the blob
// unreadable (errBadCheckpoint).
func decodeCheckpoint(blob []byte, nAreas, nLabs, nTests int) (scenarioID string, generation int, rngSeed int64, population []*solver.Individual, err error) {
	r := bytes.NewReader(blob)
	var magic [4]byte
	if _, err = io.ReadFull(r, magic[:]); err != nil {
		return "", 0, 0, nil, fmt.Errorf("checkpoint: %w: %v", errBadCheckpoint, err)
	}
	if magic != checkpointMagic {
		return "", 0, 0, nil, fmt.Errorf("checkpoint: %w: bad magic", errBadCheckpoint)
	}
	version, err := r.ReadByte()
	if err != nil || version != checkpointVersion {
		return "", 0, 0, nil, fmt.Errorf("checkpoint: %w: unsupported version", errBadCheckpoint)
	}
	scenarioID, err = readString(r)
	if err != nil {
		return "", 0, 0, nil, fmt.Errorf("checkpoint: %w: %v", errBadCheckpoint, err)
	}
	var gen64, seed int64
	if err = binary.Read(r, binary.LittleEndian, &gen64); err != nil {
		return "", 0, 0, nil, fmt.Errorf("checkpoint: %w: %v", errBadCheckpoint, err)
	}
	if err = binary.Read(r, binary.LittleEndian, &seed); err != nil {
		return "", 0, 0, nil, fmt.Errorf("checkpoint: %w: %v", errBadCheckpoint, err)
	}
	var compressedLen uint32
	if err = binary.Read(r, binary.LittleEndian, &compressedLen); err != nil {
		return "", 0, 0, nil, fmt.Errorf("checkpoint: %w: %v", errBadCheckpoint, err)
	}
	compressed := make([]byte, compressedLen)
	if _, err = io.ReadFull(r, compressed); err != nil {
		return "", 0, 0, nil, fmt.Errorf("checkpoint: %w: %v", errBadCheckpoint, err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return "", 0, 0, nil, fmt.Errorf("checkpoint: create zstd decoder: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return "", 0, 0, nil, fmt.Errorf("checkpoint: %w: %v", errBadCheckpoint, err)
	}

	payload, err := readPopulation(bytes.NewReader(raw))
	if err != nil {
		return "", 0, 0, nil, fmt.Errorf("checkpoint: %w: %v", errBadCheckpoint, err)
	}

	population = make([]*solver.Individual, len(payload.Population))
	for i, rec := range payload.Population {
		if len(rec.X) != nAreas*nLabs*nTests {
			return "", 0, 0, nil, fmt.Errorf("checkpoint: %w: allocation size mismatch", errBadCheckpoint)
		}
		al := &allocation.Allocation{NAreas: nAreas, NLabs: nLabs, NTests: nTests, X: rec.X}
		ind := solver.NewIndividual(al)
		ind.MarkEvaluated(rec.F, rec.Penalty, rec.Composite)
		ind.Rank = int(rec.Rank)
		ind.Crowding = rec.Crowding
		population[i] = ind
	}
	return scenarioID, int(payload.Generation), payload.RNGSeed, population, nil
}

func writeString(w *bytes.Buffer, s string) {
	binary.Write(w, binary.LittleEndian, uint32(len(s)))
	w.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writePopulation(w *bytes.Buffer, payload checkpointPayload) error {
	binary.Write(w, binary.LittleEndian, payload.Generation)
	binary.Write(w, binary.LittleEndian, payload.RNGSeed)
	binary.Write(w, binary.LittleEndian, uint32(len(payload.Population)))
	for _, rec := range payload.Population {
		binary.Write(w, binary.LittleEndian, uint32(len(rec.X)))
		binary.Write(w, binary.LittleEndian, rec.X)
		binary.Write(w, binary.LittleEndian, rec.F)
		binary.Write(w, binary.LittleEndian, rec.Penalty)
		binary.Write(w, binary.LittleEndian, rec.Composite)
		binary.Write(w, binary.LittleEndian, rec.Rank)
		binary.Write(w, binary.LittleEndian, rec.Crowding)
	}
	return nil
}

func readPopulation(r *bytes.Reader) (checkpointPayload, error) {
	var payload checkpointPayload
	if err := binary.Read(r, binary.LittleEndian, &payload.Generation); err != nil {
		return payload, err
	}
	if err := binary.Read(r, binary.LittleEndian, &payload.RNGSeed); err != nil {
		return payload, err
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return payload, err
	}
	payload.Population = make([]individualRecord, n)
	for i := range payload.Population {
		var xn uint32
		if err := binary.Read(r, binary.LittleEndian, &xn); err != nil {
			return payload, err
		}
		rec := individualRecord{X: make([]int32, xn)}
		if err := binary.Read(r, binary.LittleEndian, rec.X); err != nil {
			return payload, err
		}
		if err := binary.Read(r, binary.LittleEndian, &rec.F); err != nil {
			return payload, err
		}
		if err := binary.Read(r, binary.LittleEndian, &rec.Penalty); err != nil {
			return payload, err
		}
		if err := binary.Read(r, binary.LittleEndian, &rec.Composite); err != nil {
			return payload, err
		}
		if err := binary.Read(r, binary.LittleEndian, &rec.Rank); err != nil {
			return payload, err
		}
		if err := binary.Read(r, binary.LittleEndian, &rec.Crowding); err != nil {
			return payload, err
		}
		payload.Population[i] = rec
	}
	return payload, nil
}
