package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/viant/syncpoint/checkpoint"
	"github.com/viant/syncpoint/ckptadmin"
	"github.com/viant/syncpoint/config"
	"github.com/viant/syncpoint/engine"
	"github.com/viant/syncpoint/replsync"
	"github.com/viant/syncpoint/store"
)

var idCmd = &cobra.Command{
	Use:   "id <local-uuid> <remote-url> [param...]",
	Short: "derive the checkpoint id of a replication",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), replsync.CheckpointID(args[0], args[1], args[2:]...))
		return err
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list checkpoints in the local store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()
		local, closeDB, err := openLocal(cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		return runList(cmd.Context(), cmd.OutOrStdout(), local, time.Now())
	},
}

var showCmd = &cobra.Command{
	Use:   "show <checkpoint-id>",
	Short: "print a checkpoint from the local store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()
		local, closeDB, err := openLocal(cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		return runShow(cmd.Context(), cmd.OutOrStdout(), local, args[0], logger)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "check a serialized checkpoint against the document schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout(), afero.NewOsFs(), args[0])
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <checkpoint-id>",
	Short: "reconcile the local checkpoint with the peer copy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()
		local, closeDB, err := openLocal(cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		peer, closePeer, err := openPeer(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closePeer()
		if peer == nil {
			return errors.New("no peer store configured: set redis.addr, minio.endpoint or file_dir")
		}
		rcfg := replsync.DefaultConfig()
		rcfg.CheckpointID = args[0]
		rcfg.WriteTimestamps = cfg.WriteTimestamps
		session, err := replsync.NewSession(rcfg, local,
			replsync.WithPeer(peer),
			replsync.WithLogger(logger.Named("replsync")),
		)
		if err != nil {
			return err
		}
		return runReconcile(cmd.Context(), cmd.OutOrStdout(), session, save)
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin <checkpoint-id>...",
	Short: "describe checkpoints through the ckpt_admin virtual table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()
		return runAdmin(cmd.Context(), cmd.OutOrStdout(), cfg.SQLitePath, args)
	},
}

func openLocal(cfg *config.Config) (*store.SQLiteStore, func(), error) {
	db, err := engine.OpenWithPragmas(cfg.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.SQLitePath, err)
	}
	st, err := store.NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return st, func() { _ = db.Close() }, nil
}

// openPeer returns the configured peer store and a function releasing it, or
// a nil store when none is set.
func openPeer(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch {
	case cfg.Redis.Addr != "":
		st, err := store.DialRedis(ctx, cfg.Redis.Addr, store.WithKeyPrefix(cfg.Redis.KeyPrefix))
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case cfg.Minio.Endpoint != "":
		st, err := store.NewMinioStore(ctx, store.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Secure:    cfg.Minio.Secure,
		})
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	case cfg.FileDir != "":
		st, err := store.NewFileStore(afero.NewOsFs(), cfg.FileDir)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	}
	return nil, func() {}, nil
}

// runAdmin must own the first connection opened after ckptadmin.Register,
// so it opens its own database handle instead of using openLocal.
func runAdmin(ctx context.Context, w io.Writer, path string, ids []string) error {
	db, err := engine.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()
	if err := ckptadmin.Register(db); err != nil {
		return err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := ckptadmin.Attach(ctx, conn); err != nil {
		return err
	}
	if _, err := store.NewSQLiteStore(db); err != nil {
		return err
	}
	for _, id := range ids {
		op, err := ckptadmin.Status(ctx, conn, id)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", id, op); err != nil {
			return err
		}
	}
	return nil
}

func runList(ctx context.Context, w io.Writer, local *store.SQLiteStore, now time.Time) error {
	ids, err := local.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		ts, err := local.UpdatedAt(ctx, id)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", id, humanize.RelTime(time.Unix(ts, 0), now, "ago", "from now")); err != nil {
			return err
		}
	}
	return nil
}

func runShow(ctx context.Context, w io.Writer, local store.Store, id string, logger *zap.Logger) error {
	body, err := local.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("checkpoint %s: %w", id, err)
	}
	cp := checkpoint.Parse(body, checkpoint.WithLogger(logger))
	_, err = fmt.Fprintf(w, "%s\n%s\npending: %s sequences\n",
		id, ckptadmin.Describe(cp), humanize.Comma(int64(cp.PendingSequenceCount())))
	return err
}

func runValidate(w io.Writer, fs afero.Fs, path string) error {
	body, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}
	if err := checkpoint.Validate(body); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	_, err = fmt.Fprintf(w, "%s: ok (%s)\n", path, humanize.Bytes(uint64(len(body))))
	return err
}

func runReconcile(ctx context.Context, w io.Writer, session *replsync.Session, save bool) error {
	matched, err := session.Open(ctx)
	if err != nil {
		return err
	}
	st := session.Status()
	result := "matched"
	if !matched {
		result = "diverged"
	}
	if _, err := fmt.Fprintf(w, "%s: %s local=%d completed=%s remote=%q pending=%s\n",
		st.CheckpointID, result, st.LocalMinSequence, st.Completed, st.Remote,
		humanize.Comma(int64(st.PendingCount))); err != nil {
		return err
	}
	if !save || !session.Dirty() {
		return nil
	}
	if err := session.Save(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, "saved")
	return err
}
