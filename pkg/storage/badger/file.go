package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
)

// GetFile implements storage.MetadataStore.
func (s *BadgerMetadataStore) GetFile(ctx context.Context, id string) (*storage.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var file *storage.File
	err := s.db.View(func(txn *badger.Txn) error {
		f, err := getFileTxn(txn, id)
		if err != nil {
			return err
		}
		file = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// PutFile implements storage.MetadataStore.
//
// The owner index entry is written in the same transaction as the record,
// so a listing never observes a file without its index entry or vice versa.
func (s *BadgerMetadataStore) PutFile(ctx context.Context, file *storage.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		// Drop a stale index entry when overwriting an existing record.
		if old, err := getFileTxn(txn, file.ID); err == nil {
			if err := txn.Delete(keyOwnerIndex(old.OwnerID, old.CreatedAt, old.ID)); err != nil {
				return fmt.Errorf("failed to delete stale owner index entry: %w", err)
			}
		} else if storage.CodeOf(err) != storage.ErrNotFound {
			return err
		}

		data, err := encodeFile(file)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(file.ID), data); err != nil {
			return fmt.Errorf("failed to write file record: %w", err)
		}

		if file.Status == storage.FileStatusActive {
			if err := txn.Set(keyOwnerIndex(file.OwnerID, file.CreatedAt, file.ID), []byte(file.ID)); err != nil {
				return fmt.Errorf("failed to write owner index entry: %w", err)
			}
		}
		return nil
	})
}

// UpdateFile implements storage.MetadataStore.
func (s *BadgerMetadataStore) UpdateFile(ctx context.Context, id string, update storage.FileUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		file, err := getFileTxn(txn, id)
		if err != nil {
			return err
		}

		file.ShareCount += update.ShareCountDelta
		if update.LastSharedAt != nil {
			file.LastSharedAt = update.LastSharedAt
		}
		if update.LastModifiedAt != nil {
			file.LastModifiedAt = *update.LastModifiedAt
		}

		return putFileTxn(txn, file)
	})
}

// SetFileStatus implements storage.MetadataStore.
//
// Transitioning a file out of the active state removes its owner index
// entry: soft-deleted files must never show up in listings, and the
// transition is one-way.
func (s *BadgerMetadataStore) SetFileStatus(ctx context.Context, id string, status storage.FileStatus, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		file, err := getFileTxn(txn, id)
		if err != nil {
			return err
		}

		file.Status = status
		file.LastModifiedAt = now
		if status == storage.FileStatusDeleted {
			deletedAt := now
			file.DeletedAt = &deletedAt
			if err := txn.Delete(keyOwnerIndex(file.OwnerID, file.CreatedAt, file.ID)); err != nil {
				return fmt.Errorf("failed to delete owner index entry: %w", err)
			}
		}

		return putFileTxn(txn, file)
	})
}

// DeleteFile implements storage.MetadataStore.
func (s *BadgerMetadataStore) DeleteFile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		file, err := getFileTxn(txn, id)
		if err != nil {
			return err
		}

		if err := txn.Delete(keyOwnerIndex(file.OwnerID, file.CreatedAt, file.ID)); err != nil {
			return fmt.Errorf("failed to delete owner index entry: %w", err)
		}
		if err := txn.Delete(keyFile(id)); err != nil {
			return fmt.Errorf("failed to delete file record: %w", err)
		}
		return nil
	})
}

// ListFilesByOwner implements storage.MetadataStore.
//
// The owner index stores creation timestamps inverted, so a plain
// ascending prefix scan yields newest files first and the cursor maps
// directly onto a seek key.
func (s *BadgerMetadataStore) ListFilesByOwner(ctx context.Context, ownerID string, limit int, cursor string) ([]*storage.File, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	var seekAfter []byte
	if cursor != "" {
		createdAt, fileID, err := storage.DecodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		seekAfter = keyOwnerIndex(ownerID, createdAt, fileID)
	}

	var files []*storage.File
	next := ""

	err := s.db.View(func(txn *badger.Txn) error {
		prefix := keyOwnerIndexPrefix(ownerID)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		if seekAfter != nil {
			it.Seek(seekAfter)
			// The seek key is the cursor position itself; skip it.
			if it.ValidForPrefix(prefix) && bytes.Equal(it.Item().Key(), seekAfter) {
				it.Next()
			}
		} else {
			it.Rewind()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(files) == limit {
				next = storage.EncodeCursor(files[len(files)-1])
				return nil
			}

			var fileID string
			if err := it.Item().Value(func(val []byte) error {
				fileID = string(val)
				return nil
			}); err != nil {
				return err
			}

			file, err := getFileTxn(txn, fileID)
			if err != nil {
				if storage.CodeOf(err) == storage.ErrNotFound {
					// Index entry outlived its record; benign.
					continue
				}
				return err
			}
			if file.Status != storage.FileStatusActive {
				continue
			}
			files = append(files, file)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return files, next, nil
}

func getFileTxn(txn *badger.Txn, id string) (*storage.File, error) {
	item, err := txn.Get(keyFile(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.NotFound("file not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file record: %w", err)
	}

	var file *storage.File
	err = item.Value(func(val []byte) error {
		f, err := decodeFile(val)
		if err != nil {
			return err
		}
		file = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

func putFileTxn(txn *badger.Txn, file *storage.File) error {
	data, err := encodeFile(file)
	if err != nil {
		return err
	}
	if err := txn.Set(keyFile(file.ID), data); err != nil {
		return fmt.Errorf("failed to write file record: %w", err)
	}
	return nil
}
