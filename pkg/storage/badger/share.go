package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
)

// GetShare implements storage.MetadataStore.
func (s *BadgerMetadataStore) GetShare(ctx context.Context, id string) (*storage.Share, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var share *storage.Share
	err := s.db.View(func(txn *badger.Txn) error {
		sh, err := getShareTxn(txn, id)
		if err != nil {
			return err
		}
		share = sh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return share, nil
}

// PutShare implements storage.MetadataStore.
func (s *BadgerMetadataStore) PutShare(ctx context.Context, share *storage.Share) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		return putShareTxn(txn, share)
	})
}

// DeactivateShare implements storage.MetadataStore.
//
// Idempotent: deactivating an already-inactive share rewrites the same
// state. There is no way to set the flag back.
func (s *BadgerMetadataStore) DeactivateShare(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		share, err := getShareTxn(txn, id)
		if err != nil {
			return err
		}
		if !share.IsActive {
			return nil
		}
		share.IsActive = false
		return putShareTxn(txn, share)
	})
}

// RecordShareAccess implements storage.MetadataStore.
//
// The limit check and the increment run inside one transaction. Badger's
// SSI detects two transactions racing the same share key and aborts one
// with ErrConflict, which s.update retries, so at most MaxAccess
// increments can ever commit.
func (s *BadgerMetadataStore) RecordShareAccess(ctx context.Context, id string, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int
	err := s.update(func(txn *badger.Txn) error {
		share, err := getShareTxn(txn, id)
		if err != nil {
			return err
		}

		if share.AtAccessLimit() {
			count = share.AccessCount
			return &storage.StoreError{
				Code:    storage.ErrAccessLimitReached,
				Message: "share has reached its access limit",
			}
		}

		share.AccessCount++
		accessedAt := now
		share.LastAccessedAt = &accessedAt
		count = share.AccessCount
		return putShareTxn(txn, share)
	})
	if err != nil {
		return count, err
	}
	return count, nil
}

func getShareTxn(txn *badger.Txn, id string) (*storage.Share, error) {
	item, err := txn.Get(keyShare(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.NotFound("share not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share record: %w", err)
	}

	var share *storage.Share
	err = item.Value(func(val []byte) error {
		sh, err := decodeShare(val)
		if err != nil {
			return err
		}
		share = sh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return share, nil
}

func putShareTxn(txn *badger.Txn, share *storage.Share) error {
	data, err := encodeShare(share)
	if err != nil {
		return err
	}
	if err := txn.Set(keyShare(share.ID), data); err != nil {
		return fmt.Errorf("failed to write share record: %w", err)
	}
	return nil
}
