// Package gnsync applies a stream of guardian node list diffs to a single list and persists the
// applied diffs together with a snapshot of the latest list.
package gnsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/ratelimit"

	"github.com/guardiannet/gnlist-engine/pkg/codec"
	"github.com/guardiannet/gnlist-engine/pkg/config"
	"github.com/guardiannet/gnlist-engine/pkg/crypto"
	"github.com/guardiannet/gnlist-engine/pkg/db"
	"github.com/guardiannet/gnlist-engine/pkg/gnlist"
	"github.com/guardiannet/gnlist-engine/pkg/log"
)

type diffStore interface {
	LastSequence() (uint64, bool, error)
	Save(sequence uint64, diff, snapshot *gnlist.Diff) error
	Snapshot() (*gnlist.Diff, error)
}

// Syncer owns a list and serializes every apply on it.
type Syncer struct {
	mutex            *sync.Mutex
	list             *gnlist.List
	store            diffStore
	logger           log.Logger
	limiter          ratelimit.Limiter
	strictContinuity bool
	nextSequence     uint64
}

func NewSyncer(database *db.DB, cfg *config.Config, logger log.Logger) *Syncer {
	limiter := ratelimit.NewUnlimited()
	if cfg.ApplyRateLimit > 0 {
		limiter = ratelimit.New(cfg.ApplyRateLimit)
	}
	return &Syncer{
		mutex:            new(sync.Mutex),
		list:             gnlist.NewList(),
		store:            NewStore(database),
		logger:           logger,
		limiter:          limiter,
		strictContinuity: cfg.StrictContinuity,
	}
}

// Init restores the list from the stored snapshot. Without a snapshot the list stays empty.
func (s *Syncer) Init() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	lastSequence, exist, err := s.store.LastSequence()
	if err != nil {
		return err
	}
	if !exist {
		s.logger.Info("No stored snapshot, starting from an empty list")
		return nil
	}
	snapshot, err := s.store.Snapshot()
	if err != nil {
		return err
	}
	list, err := gnlist.NewListFromDiff(snapshot)
	if err != nil {
		return fmt.Errorf("restoring list from snapshot: %w", err)
	}
	s.list = list
	s.nextSequence = lastSequence + 1
	s.logger.Infof("Restored list at block %s with %d entries", list.BlockHash(), list.Size())
	return nil
}

// Apply checks continuity when enabled, applies the diff and persists the result.
func (s *Syncer) Apply(diff *gnlist.Diff) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.apply(diff)
}

// ApplyBytes decodes the wire encoding of a diff and applies it.
func (s *Syncer) ApplyBytes(data []byte) error {
	diff, err := gnlist.DecodeDiff(data)
	if err != nil {
		return err
	}
	return s.Apply(diff)
}

func (s *Syncer) apply(diff *gnlist.Diff) error {
	if diff == nil {
		return fmt.Errorf("%w: diff is missing", codec.ErrInvalidData)
	}
	if s.strictContinuity && !crypto.IsNullHash(s.list.BlockHash()) && diff.BaseBlockHash != s.list.BlockHash() {
		return fmt.Errorf("%w: diff from %s cannot be applied to list at %s", ErrDiscontinuous, diff.BaseBlockHash, s.list.BlockHash())
	}
	if err := verifyCommitment(diff); err != nil {
		return err
	}
	staged := s.list.Clone()
	if err := staged.ApplyDiff(diff); err != nil {
		return err
	}
	snapshot, err := staged.ToDiff()
	if err != nil {
		return err
	}
	if err := s.store.Save(s.nextSequence, diff, snapshot); err != nil {
		return fmt.Errorf("saving diff for block %s: %w", diff.BlockHash, err)
	}
	s.list = staged
	s.nextSequence++
	s.logger.Debugf("Applied diff from %s to %s with %d deleted and %d upserted", diff.BaseBlockHash, diff.BlockHash, len(diff.DeletedKeys), len(diff.Upserts))
	return nil
}

// verifyCommitment checks that the diff can be stored and decoded again: the coinbase must be a
// valid coinbase special transaction which commits to the claimed root.
func verifyCommitment(diff *gnlist.Diff) error {
	if diff.CoinbaseTx == nil || diff.CoinbaseProof == nil {
		return fmt.Errorf("%w: diff for block %s has no coinbase transaction or merkle tree", codec.ErrInvalidData, diff.BlockHash)
	}
	if err := diff.CoinbaseTx.Validate(); err != nil {
		return fmt.Errorf("%w: invalid coinbase transaction for block %s: %s", codec.ErrInvalidData, diff.BlockHash, err)
	}
	root, err := diff.CoinbaseTx.MerkleRootGNList()
	if err != nil {
		return err
	}
	if root != diff.ClaimedRoot {
		return fmt.Errorf("%w: claimed root %s differs from coinbase root %s for block %s", gnlist.ErrVerification, diff.ClaimedRoot, root, diff.BlockHash)
	}
	return nil
}

// Run applies payloads until the channel is closed or ctx is done. Payloads which cannot be decoded,
// verified or chained are logged and skipped. A storage failure stops the loop.
func (s *Syncer) Run(ctx context.Context, payloads <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-payloads:
			if !ok {
				return nil
			}
			s.limiter.Take()
			err := s.ApplyBytes(payload)
			if err == nil {
				continue
			}
			if errors.Is(err, gnlist.ErrFormat) || errors.Is(err, gnlist.ErrVerification) || errors.Is(err, ErrDiscontinuous) {
				s.logger.Errorf("Skipping diff with %v", err)
				continue
			}
			return err
		}
	}
}

// BlockHash returns the block hash of the list.
func (s *Syncer) BlockHash() chainhash.Hash {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.list.BlockHash()
}

// RegistryRoot returns the merkle root of the list.
func (s *Syncer) RegistryRoot() chainhash.Hash {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.list.RegistryRoot()
}

// ValidEntries returns the valid entries of the list.
func (s *Syncer) ValidEntries() []*gnlist.Entry {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	entries := s.list.ValidEntries()
	for i, entry := range entries {
		entries[i] = entry.Copy()
	}
	return entries
}

// Size returns the number of entries of the list.
func (s *Syncer) Size() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.list.Size()
}

// Snapshot returns a diff which builds the current list from scratch.
func (s *Syncer) Snapshot() (*gnlist.Diff, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.list.ToDiff()
}
