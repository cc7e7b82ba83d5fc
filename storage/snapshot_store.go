package storage

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/intcode/common"
	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/log"
	"github.com/colorfulnotion/intcode/vmerrors"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	snapshotPrefix = "snap/"
	programPrefix  = "prog/"
)

// SnapshotStore keeps named machine snapshots, CBOR encoded.
type SnapshotStore struct {
	ps *PersistenceStore
}

// SnapshotInfo summarizes a stored snapshot without its memory.
type SnapshotInfo struct {
	Name        string
	PC          int64
	Steps       uint64
	State       intcode.State
	MemoryLen   int
	ProgramHash common.Hash
}

func NewSnapshotStore(ps *PersistenceStore) *SnapshotStore {
	return &SnapshotStore{ps: ps}
}

func snapshotKey(name string) []byte {
	return []byte(snapshotPrefix + name)
}

func (s *SnapshotStore) Save(name string, snap intcode.Snapshot) error {
	if name == "" {
		return fmt.Errorf("Save: empty snapshot name")
	}
	data, err := intcode.MarshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("Save %s: %w", name, err)
	}
	if err := s.ps.Put(snapshotKey(name), data); err != nil {
		return fmt.Errorf("Save %s: %w", name, err)
	}
	log.Debug(log.StorageMonitoring, "snapshot saved", "name", name, "pc", snap.PC, "bytes", len(data))
	return nil
}

func (s *SnapshotStore) Load(name string) (intcode.Snapshot, error) {
	data, ok, err := s.ps.Get(snapshotKey(name))
	if err != nil {
		return intcode.Snapshot{}, fmt.Errorf("Load %s: %w", name, err)
	}
	if !ok {
		return intcode.Snapshot{}, fmt.Errorf("Load %s: %w", name, vmerrors.ErrSnapshotNotFound)
	}
	return intcode.UnmarshalSnapshot(data)
}

// List returns every stored snapshot ordered by name.
func (s *SnapshotStore) List() ([]SnapshotInfo, error) {
	kvs, err := s.ps.GetWithPrefix([]byte(snapshotPrefix))
	if err != nil {
		return nil, err
	}
	infos := make([]SnapshotInfo, 0, len(kvs))
	for _, kv := range kvs {
		name := strings.TrimPrefix(string(kv[0]), snapshotPrefix)
		snap, err := intcode.UnmarshalSnapshot(kv[1])
		if err != nil {
			return nil, fmt.Errorf("List %s: %w", name, err)
		}
		infos = append(infos, SnapshotInfo{
			Name:        name,
			PC:          snap.PC,
			Steps:       snap.Steps,
			State:       snap.State,
			MemoryLen:   len(snap.Memory),
			ProgramHash: snap.ProgramHash,
		})
	}
	return infos, nil
}

func (s *SnapshotStore) Delete(name string) error {
	ok, err := s.ps.Has(snapshotKey(name))
	if err != nil {
		return fmt.Errorf("Delete %s: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("Delete %s: %w", name, vmerrors.ErrSnapshotNotFound)
	}
	return s.ps.Delete(snapshotKey(name))
}

// SaveWithProgram stores the snapshot and the program image it came from in one batch.
func (s *SnapshotStore) SaveWithProgram(name string, snap intcode.Snapshot, prog intcode.Program) error {
	if name == "" {
		return fmt.Errorf("Save: empty snapshot name")
	}
	data, err := intcode.MarshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("Save %s: %w", name, err)
	}
	return s.ps.Write(func(b *leveldb.Batch) {
		b.Put(snapshotKey(name), data)
		b.Put(programKey(prog.Hash()), []byte(prog.String()))
	})
}
