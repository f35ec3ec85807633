package badger

import (
	"encoding/json"
	"fmt"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
)

// Records are serialized as JSON. Metadata records are small and written
// far less often than they are read, so the simplicity and debuggability
// of JSON outweighs the size advantage of a binary encoding.

func encodeFile(f *storage.File) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file record: %w", err)
	}
	return data, nil
}

func decodeFile(data []byte) (*storage.File, error) {
	var f storage.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode file record: %w", err)
	}
	return &f, nil
}

func encodeShare(sh *storage.Share) ([]byte, error) {
	data, err := json.Marshal(sh)
	if err != nil {
		return nil, fmt.Errorf("failed to encode share record: %w", err)
	}
	return data, nil
}

func decodeShare(data []byte) (*storage.Share, error) {
	var sh storage.Share
	if err := json.Unmarshal(data, &sh); err != nil {
		return nil, fmt.Errorf("failed to decode share record: %w", err)
	}
	return &sh, nil
}
