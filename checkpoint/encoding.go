package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/Jeffail/gabs/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/viant/syncpoint/marker"
	"github.com/viant/syncpoint/seqset"
)

// Document keys.
const (
	KeyTime           = "time"
	KeyLocal          = "local"
	KeyLocalCompleted = "localCompleted"
	KeyRemote         = "remote"
)

// EncodeConfig controls Serialize.
type EncodeConfig struct {
	// WriteTimestamp adds the current time, in seconds, under "time".
	// Disable it where output must be deterministic.
	WriteTimestamp bool

	// Clock supplies the timestamp. Defaults to the real clock.
	Clock clockwork.Clock
}

// DefaultEncodeConfig writes timestamps using the real clock.
func DefaultEncodeConfig() EncodeConfig {
	return EncodeConfig{
		WriteTimestamp: true,
		Clock:          clockwork.NewRealClock(),
	}
}

// Serialize encodes the checkpoint as a JSON document. Ranges are written
// under "localCompleted" as flat (first, length) pairs only when there is more
// than one; a single contiguous run is fully described by "local".
func (c *Checkpoint) Serialize(cfg EncodeConfig) ([]byte, error) {
	doc := gabs.New()
	if cfg.WriteTimestamp {
		clock := cfg.Clock
		if clock == nil {
			clock = clockwork.NewRealClock()
		}
		if _, err := doc.Set(clock.Now().Unix(), KeyTime); err != nil {
			return nil, fmt.Errorf("set %s: %w", KeyTime, err)
		}
	}
	if minSeq := c.LocalMinSequence(); minSeq > 0 {
		if _, err := doc.Set(uint64(minSeq), KeyLocal); err != nil {
			return nil, fmt.Errorf("set %s: %w", KeyLocal, err)
		}
	}
	if c.completed.RangesCount() > 1 {
		pairs := make([]uint64, 0, 2*c.completed.RangesCount())
		for r := range c.completed.All() {
			pairs = append(pairs, uint64(r.First), r.Len())
		}
		if _, err := doc.Set(pairs, KeyLocalCompleted); err != nil {
			return nil, fmt.Errorf("set %s: %w", KeyLocalCompleted, err)
		}
	}
	if !c.remote.IsEmpty() {
		if _, err := doc.Set(c.remote.Value(), KeyRemote); err != nil {
			return nil, fmt.Errorf("set %s: %w", KeyRemote, err)
		}
	}
	return doc.Bytes(), nil
}

// Deserialize replaces the checkpoint state with the contents of a serialized
// document. Empty input is an absent document; malformed input is logged and
// also treated as absent.
func (c *Checkpoint) Deserialize(data []byte) {
	var root *gabs.Container
	if len(bytes.TrimSpace(data)) > 0 {
		var err error
		root, err = parseDocument(data)
		if err != nil {
			c.logger.Error("unparseable checkpoint", zap.ByteString("json", data), zap.Error(err))
			root = nil
		}
	}
	c.ReadDoc(root)
}

func parseDocument(data []byte) (*gabs.Container, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	root, err := gabs.ParseJSONDecoder(dec)
	if err != nil {
		return nil, err
	}
	if _, ok := root.Data().(map[string]any); !ok {
		return nil, fmt.Errorf("checkpoint document is %T, not an object", root.Data())
	}
	return root, nil
}

// ReadDoc replaces the checkpoint state with the contents of an already
// parsed document. A nil root resets to an empty checkpoint.
func (c *Checkpoint) ReadDoc(root *gabs.Container) {
	c.ResetLocal()
	c.remote = marker.Marker{}
	if root == nil {
		return
	}

	c.remote = marker.FromValue(root.Search(KeyRemote).Data())

	if pairs, ok := root.Search(KeyLocalCompleted).Data().([]any); ok {
		c.readCompletedPairs(pairs)
		return
	}
	// Legacy form: a single contiguous run ending at "local".
	local, _ := asUnsigned(root.Search(KeyLocal).Data())
	c.completed.Add(0, seqset.Sequence(addClamped(local, 1)))
}

func (c *Checkpoint) readCompletedPairs(pairs []any) {
	if len(pairs)%2 != 0 {
		c.logger.Warn("ignoring trailing value in odd-length completed ranges",
			zap.Int("length", len(pairs)))
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		first, okFirst := asUnsigned(pairs[i])
		length, okLength := asUnsigned(pairs[i+1])
		if !okFirst || !okLength {
			c.logger.Warn("skipping non-numeric completed range",
				zap.Any("first", pairs[i]), zap.Any("length", pairs[i+1]))
			continue
		}
		if length == 0 {
			c.logger.Warn("skipping empty completed range", zap.Uint64("first", first))
			continue
		}
		c.completed.Add(seqset.Sequence(first), seqset.Sequence(addClamped(first, length)))
	}
}

// asUnsigned converts a decoded JSON number into a sequence value. Anything
// that is not a non-negative integer converts to 0 and reports false.
func asUnsigned(v any) (uint64, bool) {
	switch n := v.(type) {
	case json.Number:
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, true
		}
	case float64:
		if n >= 0 && n <= math.MaxInt64 && n == math.Trunc(n) {
			return uint64(n), true
		}
	}
	return 0, false
}

func addClamped(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
