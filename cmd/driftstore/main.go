// Command driftstore opens a repository described by a config file and runs
// storage or versioning operations against it. Intended for inspection and
// smoke-testing; the adapter in pkg/storage is the real surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/driftstore/driftstore/internal/backend"
	"github.com/driftstore/driftstore/internal/config"
	"github.com/driftstore/driftstore/internal/metrics"
	"github.com/driftstore/driftstore/internal/objstore"
	"github.com/driftstore/driftstore/pkg/storage"
	"github.com/driftstore/driftstore/pkg/types"
)

var version = "0.1.0-dev"

const usage = `usage: driftstore [-config file] <command> [args]

commands:
  list [prefix]          list keys, optionally under a prefix
  dir [prefix]           list one hierarchy level under a prefix
  get <key>              print an object's bytes to stdout
  set <key> [value]      write an object (value from args or stdin)
  rm <key>               erase an object
  rm-prefix <prefix>     erase every object under a prefix
  size [prefix]          total byte size, optionally under a prefix
  status                 current branch, snapshot, and dirtiness
  log                    snapshot history of the current version
  commit <message>       commit staged changes
  checkout <ref>         check out branch:<n>, tag:<n>, or snapshot:<id>
  branch <name>          create a branch at the current snapshot
  tag <name> <snapshot>  tag a snapshot
  version                print the driftstore version
`

func main() {
	cfgPath := flag.String("config", os.Getenv("DRIFTSTORE_CONFIG"), "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	initLogging(cfg.Logging.Level)

	ctx := context.Background()
	if err := run(ctx, cfg, args[0], args[1:]); err != nil {
		slog.Error("command failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

func initLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func openAdapter(ctx context.Context, cfg *config.Configuration) (*storage.Adapter, *metrics.Collector, error) {
	var (
		objects objstore.ObjectStore
		err     error
	)
	switch cfg.Repository.Storage {
	case "s3":
		objects, err = objstore.NewS3(ctx, cfg.Repository.S3, slog.Default())
		if err != nil {
			return nil, nil, err
		}
	default:
		objects = objstore.NewMemory()
	}

	opts := []backend.Option{backend.WithLogger(slog.Default())}
	if cfg.Repository.Branch != "" {
		opts = append(opts, backend.WithBranch(cfg.Repository.Branch))
	}
	store, err := backend.Open(ctx, objects, opts...)
	if err != nil {
		return nil, nil, err
	}

	var collector *metrics.Collector
	adapterOpts := []storage.Option{}
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(metrics.Config{
			Namespace: cfg.Metrics.Namespace,
			Port:      cfg.Metrics.Port,
			Path:      cfg.Metrics.Path,
		})
		if err := collector.Start(); err != nil {
			return nil, nil, err
		}
		adapterOpts = append(adapterOpts, storage.WithMetrics(collector))
	}

	return storage.New(store, adapterOpts...), collector, nil
}

func run(ctx context.Context, cfg *config.Configuration, command string, args []string) error {
	if command == "version" {
		fmt.Println("driftstore", version)
		return nil
	}

	adapter, collector, err := openAdapter(ctx, cfg)
	if err != nil {
		return err
	}
	if collector != nil {
		defer collector.Stop(ctx)
	}

	switch command {
	case "list":
		return cmdList(ctx, adapter, args)
	case "dir":
		return cmdDir(ctx, adapter, args)
	case "get":
		return cmdGet(ctx, adapter, args)
	case "set":
		return cmdSet(ctx, adapter, args)
	case "rm":
		return cmdRm(ctx, adapter, args)
	case "rm-prefix":
		return cmdRmPrefix(ctx, adapter, args)
	case "size":
		return cmdSize(ctx, adapter, args)
	case "status":
		return cmdStatus(ctx, adapter)
	case "log":
		return cmdLog(ctx, cfg)
	case "commit":
		return cmdCommit(ctx, adapter, args)
	case "checkout":
		return cmdCheckout(ctx, adapter, args)
	case "branch":
		return cmdBranch(ctx, adapter, args)
	case "tag":
		return cmdTag(ctx, adapter, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func argPrefix(args []string) (storage.Prefix, error) {
	if len(args) == 0 {
		return storage.RootPrefix(), nil
	}
	return storage.ParsePrefix(args[0])
}

func cmdList(ctx context.Context, adapter *storage.Adapter, args []string) error {
	prefix, err := argPrefix(args)
	if err != nil {
		return err
	}
	keys, err := adapter.ListPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

func cmdDir(ctx context.Context, adapter *storage.Adapter, args []string) error {
	prefix, err := argPrefix(args)
	if err != nil {
		return err
	}
	keys, children, err := adapter.ListDir(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	for _, child := range children {
		fmt.Println(child)
	}
	return nil
}

func cmdGet(ctx context.Context, adapter *storage.Adapter, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("get requires exactly one key")
	}
	key, err := storage.ParseKey(args[0])
	if err != nil {
		return err
	}
	data, found, err := adapter.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("key %q does not exist in the current version", key)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func cmdSet(ctx context.Context, adapter *storage.Adapter, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("set requires a key")
	}
	key, err := storage.ParseKey(args[0])
	if err != nil {
		return err
	}
	var value []byte
	if len(args) > 1 {
		value = []byte(strings.Join(args[1:], " "))
	} else {
		value, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading value from stdin: %w", err)
		}
	}
	return adapter.Set(ctx, key, value)
}

func cmdRm(ctx context.Context, adapter *storage.Adapter, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("rm requires exactly one key")
	}
	key, err := storage.ParseKey(args[0])
	if err != nil {
		return err
	}
	return adapter.Erase(ctx, key)
}

func cmdRmPrefix(ctx context.Context, adapter *storage.Adapter, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("rm-prefix requires exactly one prefix")
	}
	prefix, err := storage.ParsePrefix(args[0])
	if err != nil {
		return err
	}
	return adapter.ErasePrefix(ctx, prefix)
}

func cmdSize(ctx context.Context, adapter *storage.Adapter, args []string) error {
	prefix, err := argPrefix(args)
	if err != nil {
		return err
	}
	total, err := adapter.SizePrefix(ctx, prefix)
	if err != nil {
		return err
	}
	fmt.Println(total)
	return nil
}

func cmdStatus(ctx context.Context, adapter *storage.Adapter) error {
	branch, err := adapter.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	id, err := adapter.SnapshotID(ctx)
	if err != nil {
		return err
	}
	dirty, err := adapter.HasUncommittedChanges(ctx)
	if err != nil {
		return err
	}
	if branch == "" {
		fmt.Printf("detached at snapshot %s\n", id)
	} else {
		fmt.Printf("on branch %s at snapshot %s\n", branch, id)
	}
	if dirty {
		fmt.Println("uncommitted changes present")
	}
	return nil
}

// cmdLog reaches past the adapter: snapshot history is a backend affordance,
// not part of the storage surface.
func cmdLog(ctx context.Context, cfg *config.Configuration) error {
	if cfg.Repository.Storage == "memory" {
		return fmt.Errorf("log of an in-memory repository is always empty")
	}
	objects, err := objstore.NewS3(ctx, cfg.Repository.S3, slog.Default())
	if err != nil {
		return err
	}
	opts := []backend.Option{backend.WithLogger(slog.Default())}
	if cfg.Repository.Branch != "" {
		opts = append(opts, backend.WithBranch(cfg.Repository.Branch))
	}
	store, err := backend.Open(ctx, objects, opts...)
	if err != nil {
		return err
	}
	history, err := store.Log(ctx)
	if err != nil {
		return err
	}
	for _, info := range history {
		fmt.Printf("%s  %s  %s\n", info.ID, info.Committed.Format("2006-01-02 15:04:05"), info.Message)
	}
	return nil
}

func cmdCommit(ctx context.Context, adapter *storage.Adapter, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("commit requires a message")
	}
	id, err := adapter.Commit(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func cmdCheckout(ctx context.Context, adapter *storage.Adapter, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("checkout requires a ref (branch:<name>, tag:<name>, or snapshot:<id>)")
	}
	ref, err := parseRef(args[0])
	if err != nil {
		return err
	}
	return adapter.Checkout(ctx, ref)
}

func parseRef(s string) (types.VersionRef, error) {
	switch {
	case strings.HasPrefix(s, "branch:"):
		return types.BranchRef(strings.TrimPrefix(s, "branch:")), nil
	case strings.HasPrefix(s, "tag:"):
		return types.TagRef(strings.TrimPrefix(s, "tag:")), nil
	case strings.HasPrefix(s, "snapshot:"):
		return types.SnapshotRef(types.SnapshotID(strings.TrimPrefix(s, "snapshot:"))), nil
	default:
		return types.VersionRef{}, fmt.Errorf("ref %q must start with branch:, tag:, or snapshot:", s)
	}
}

func cmdBranch(ctx context.Context, adapter *storage.Adapter, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("branch requires a name")
	}
	return adapter.NewBranch(ctx, args[0])
}

func cmdTag(ctx context.Context, adapter *storage.Adapter, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("tag requires a name and a snapshot id")
	}
	return adapter.Tag(ctx, args[0], types.SnapshotID(args[1]))
}
