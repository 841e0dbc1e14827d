package replsync

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/zeebo/blake3"
)

const checkpointIDPrefix = "cp-"

// CheckpointID derives a stable checkpoint identifier from the local
// database's UUID, the remote endpoint and any replication parameters that
// change what gets replicated (filters, channels, document IDs). Sessions that
// differ in any of them get different checkpoints.
func CheckpointID(localUUID, remoteURL string, params ...string) string {
	h := blake3.New()
	var lenbuf [binary.MaxVarintLen64]byte
	for _, part := range append([]string{localUUID, remoteURL}, params...) {
		n := binary.PutUvarint(lenbuf[:], uint64(len(part)))
		_, _ = h.Write(lenbuf[:n])
		_, _ = h.Write([]byte(part))
	}
	sum := h.Sum(nil)
	return checkpointIDPrefix + base64.RawURLEncoding.EncodeToString(sum[:20])
}
