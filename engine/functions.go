package engine

import (
	"database/sql/driver"
	"fmt"
	"math"

	sqlite "modernc.org/sqlite"

	"github.com/viant/syncpoint/checkpoint"
)

// RegisterCheckpointFunctions registers ckpt_local, ckpt_pending,
// ckpt_completed and ckpt_remote with the driver so they are available on new
// connections opened after this call. Each takes a serialized checkpoint body
// and returns NULL for a NULL argument.
// Note: existing open connections will not see new functions.
func RegisterCheckpointFunctions() error {
	// Idempotent registration; driver rejects duplicates but we ignore errors silently here.
	_ = sqlite.RegisterDeterministicScalarFunction("ckpt_local", 1, ckptLocalImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("ckpt_pending", 1, ckptPendingImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("ckpt_completed", 1, ckptCompletedImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("ckpt_remote", 1, ckptRemoteImpl)
	return nil
}

func asCheckpoint(name string, args []driver.Value) (*checkpoint.Checkpoint, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: expected 1 argument, got %d", name, len(args))
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case []byte:
		return checkpoint.Parse(v), nil
	case string:
		return checkpoint.Parse([]byte(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T; want BLOB or TEXT", name, v)
	}
}

// toInteger fails for values SQLite cannot hold in a signed INTEGER.
func toInteger(name string, v uint64) (driver.Value, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("%s: %d overflows INTEGER", name, v)
	}
	return int64(v), nil
}

func ckptLocalImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	c, err := asCheckpoint("ckpt_local", args)
	if err != nil || c == nil {
		return nil, err
	}
	return toInteger("ckpt_local", uint64(c.LocalMinSequence()))
}

func ckptPendingImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	c, err := asCheckpoint("ckpt_pending", args)
	if err != nil || c == nil {
		return nil, err
	}
	return toInteger("ckpt_pending", c.PendingSequenceCount())
}

func ckptCompletedImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	c, err := asCheckpoint("ckpt_completed", args)
	if err != nil || c == nil {
		return nil, err
	}
	return c.Completed().String(), nil
}

func ckptRemoteImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	c, err := asCheckpoint("ckpt_remote", args)
	if err != nil || c == nil {
		return nil, err
	}
	if c.Remote().IsEmpty() {
		return nil, nil
	}
	return c.Remote().String(), nil
}
