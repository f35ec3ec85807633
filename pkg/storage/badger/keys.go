package badger

import (
	"fmt"
	"math"
	"time"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so prefixed keys organize the record
// types into namespaces and make range scans cheap:
//
// Data Type        Prefix  Key Format                                Value
// =========================================================================
// File records     "f:"    f:<fileID>                                File (JSON)
// Share records    "s:"    s:<shareID>                               Share (JSON)
// Owner index      "o:"    o:<ownerID>:<invertedCreatedAt>:<fileID>  fileID (bytes)
//
// The owner index is the one secondary index this system needs: files by
// owner in newest-first order. The creation timestamp is stored inverted
// (math.MaxInt64 - unixNanos, zero-padded) so that a plain ascending
// prefix scan over "o:<ownerID>:" yields newest entries first, and a
// pagination cursor maps directly onto a scan start key.

func keyFile(id string) []byte {
	return []byte("f:" + id)
}

func keyShare(id string) []byte {
	return []byte("s:" + id)
}

func keyOwnerIndex(ownerID string, createdAt time.Time, fileID string) []byte {
	return []byte(fmt.Sprintf("o:%s:%020d:%s", ownerID, invertNanos(createdAt), fileID))
}

func keyOwnerIndexPrefix(ownerID string) []byte {
	return []byte("o:" + ownerID + ":")
}

func invertNanos(t time.Time) uint64 {
	return uint64(math.MaxInt64 - t.UnixNano())
}
