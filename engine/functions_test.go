package engine

import (
	"database/sql"
	"math"
	"testing"
)

func TestRegisterCheckpointFunctionsAndUse(t *testing.T) {
	// Register globally before first connection so functions are available.
	if err := RegisterCheckpointFunctions(); err != nil {
		t.Fatalf("RegisterCheckpointFunctions failed: %v", err)
	}
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	// Registering twice is harmless.
	if err := RegisterCheckpointFunctions(); err != nil {
		t.Fatalf("RegisterCheckpointFunctions failed: %v", err)
	}

	sparse := `{"localCompleted":[0,4,9,3],"local":3,"remote":"tok"}`

	var local int64
	if err := db.QueryRow(`SELECT ckpt_local(?)`, sparse).Scan(&local); err != nil {
		t.Fatalf("ckpt_local query failed: %v", err)
	}
	if local != 3 {
		t.Fatalf("ckpt_local = %d, want 3", local)
	}

	var pending int64
	if err := db.QueryRow(`SELECT ckpt_pending(?)`, []byte(sparse)).Scan(&pending); err != nil {
		t.Fatalf("ckpt_pending query failed: %v", err)
	}
	if pending != 5 {
		t.Fatalf("ckpt_pending = %d, want 5", pending)
	}

	var completed string
	if err := db.QueryRow(`SELECT ckpt_completed(?)`, sparse).Scan(&completed); err != nil {
		t.Fatalf("ckpt_completed query failed: %v", err)
	}
	if completed != "[0-3, 9-11]" {
		t.Fatalf("ckpt_completed = %q, want [0-3, 9-11]", completed)
	}

	var remote sql.NullString
	if err := db.QueryRow(`SELECT ckpt_remote(?)`, sparse).Scan(&remote); err != nil {
		t.Fatalf("ckpt_remote query failed: %v", err)
	}
	if !remote.Valid || remote.String != `"tok"` {
		t.Fatalf("ckpt_remote = %v, want \"tok\"", remote)
	}

	if err := db.QueryRow(`SELECT ckpt_remote(?)`, `{"local":1}`).Scan(&remote); err != nil {
		t.Fatalf("ckpt_remote query failed: %v", err)
	}
	if remote.Valid {
		t.Fatalf("ckpt_remote without remote = %v, want NULL", remote)
	}

	var nullLocal sql.NullInt64
	if err := db.QueryRow(`SELECT ckpt_local(NULL)`).Scan(&nullLocal); err != nil {
		t.Fatalf("ckpt_local(NULL) query failed: %v", err)
	}
	if nullLocal.Valid {
		t.Fatalf("ckpt_local(NULL) = %v, want NULL", nullLocal)
	}
}

func TestCheckpointFunctionsRejectIntegerOverflow(t *testing.T) {
	if err := RegisterCheckpointFunctions(); err != nil {
		t.Fatalf("RegisterCheckpointFunctions failed: %v", err)
	}
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	var v int64
	if err := db.QueryRow(`SELECT ckpt_local(?)`, `{"local":18446744073709551614}`).Scan(&v); err == nil {
		t.Fatalf("ckpt_local above MaxInt64 = %d, want error", v)
	}
	if err := db.QueryRow(`SELECT ckpt_pending(?)`, `{"localCompleted":[0,1,18446744073709551614,1]}`).Scan(&v); err == nil {
		t.Fatalf("ckpt_pending above MaxInt64 = %d, want error", v)
	}
	if err := db.QueryRow(`SELECT ckpt_local(?)`, `{"local":9223372036854775807}`).Scan(&v); err != nil {
		t.Fatalf("ckpt_local at MaxInt64 failed: %v", err)
	}
	if v != math.MaxInt64 {
		t.Fatalf("ckpt_local = %d, want MaxInt64", v)
	}
}
