package storage

import (
	"fmt"

	"github.com/colorfulnotion/intcode/common"
	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/log"
)

// ProgramStore is a content-addressed store of program images keyed by their Blake2b hash.
type ProgramStore struct {
	ps *PersistenceStore
}

func NewProgramStore(ps *PersistenceStore) *ProgramStore {
	return &ProgramStore{ps: ps}
}

func programKey(h common.Hash) []byte {
	return []byte(programPrefix + h.Hex())
}

func (s *ProgramStore) Put(prog intcode.Program) (common.Hash, error) {
	h := prog.Hash()
	if err := s.ps.Put(programKey(h), []byte(prog.String())); err != nil {
		return common.Hash{}, fmt.Errorf("ProgramStore.Put: %w", err)
	}
	log.Debug(log.StorageMonitoring, "program stored", "hash", h.String_short(), "words", len(prog))
	return h, nil
}

func (s *ProgramStore) Get(h common.Hash) (intcode.Program, bool, error) {
	data, ok, err := s.ps.Get(programKey(h))
	if err != nil || !ok {
		return nil, ok, err
	}
	prog, err := intcode.ParseProgram(string(data))
	if err != nil {
		return nil, false, fmt.Errorf("ProgramStore.Get %s: %w", h.String_short(), err)
	}
	return prog, true, nil
}

func (s *ProgramStore) Hashes() ([]common.Hash, error) {
	kvs, err := s.ps.GetWithPrefix([]byte(programPrefix))
	if err != nil {
		return nil, err
	}
	out := make([]common.Hash, 0, len(kvs))
	for _, kv := range kvs {
		out = append(out, common.HexToHash(string(kv[0][len(programPrefix):])))
	}
	return out, nil
}
