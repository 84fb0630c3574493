package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/marmos91/nfsinspect/internal/logger"
	"github.com/marmos91/nfsinspect/pkg/config"
	"github.com/marmos91/nfsinspect/pkg/filestore"
	"github.com/spf13/cobra"
)

var chunksOut string

var chunksCmd = &cobra.Command{
	Use:   "chunks",
	Short: "Inspect payloads saved by decode",
	Long: `Inspect the READ and WRITE payloads saved in the configured file store.

Chunk keys have the form <handle>/<offset>.<read|write>, as printed by
"nfsinspect chunks list".`,
}

var chunksListCmd = &cobra.Command{
	Use:   "list [handle]",
	Short: "List stored chunks, optionally for one file handle",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChunksList,
}

var chunksGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Write a chunk's payload to stdout or a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunksGet,
}

var chunksDeleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Delete a stored chunk",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunksDelete,
}

func init() {
	chunksGetCmd.Flags().StringVar(&chunksOut, "out", "", "write the payload to this file instead of stdout")

	chunksCmd.AddCommand(chunksListCmd)
	chunksCmd.AddCommand(chunksGetCmd)
	chunksCmd.AddCommand(chunksDeleteCmd)
}

type chunkRow struct {
	Key    string `json:"key" yaml:"key"`
	Handle string `json:"handle" yaml:"handle"`
	Offset uint64 `json:"offset" yaml:"offset"`
	Source string `json:"source" yaml:"source"`
	Size   int    `json:"size" yaml:"size"`
}

type chunkList []chunkRow

func (l chunkList) Headers() []string {
	return []string{"Key", "Handle", "Offset", "Source", "Size"}
}

func (l chunkList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		rows = append(rows, []string{c.Key, c.Handle, strconv.FormatUint(c.Offset, 10), c.Source, humanize.IBytes(uint64(c.Size))})
	}
	return rows
}

// openStore opens the configured file store. The caller closes it.
func openStore(ctx context.Context) (*config.Config, filestore.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	// Chunk management never exposes metrics.
	cfg.Metrics.Enabled = false
	m := config.InitializeMetrics(cfg, nil)

	store, err := config.CreateFileStore(ctx, &cfg.FileStore, m.FileStoreMetrics)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file store: %w", err)
	}
	if store == nil {
		return nil, nil, errors.New("no file store configured (filestore.type is \"none\")")
	}
	return cfg, store, nil
}

func closeStore(store filestore.Store) {
	if err := store.Close(); err != nil {
		logger.Warn("Failed to close file store: %v", err)
	}
}

func runChunksList(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore(store)

	printer, err := newPrinter(cmd, cfg)
	if err != nil {
		return err
	}

	handle := ""
	if len(args) == 1 {
		handle = args[0]
	}
	infos, err := store.List(cmd.Context(), handle)
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}

	list := make(chunkList, 0, len(infos))
	for _, info := range infos {
		list = append(list, chunkRow{
			Key:    info.Key.String(),
			Handle: info.Handle,
			Offset: info.Offset,
			Source: string(info.Source),
			Size:   info.Size,
		})
	}
	return printer.Print(list)
}

func runChunksGet(cmd *cobra.Command, args []string) error {
	key, err := filestore.ParseKey(args[0])
	if err != nil {
		return err
	}

	_, store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore(store)

	chunk, err := store.Get(cmd.Context(), key)
	if err != nil {
		return fmt.Errorf("failed to get chunk %s: %w", key, err)
	}
	if chunk.Truncated {
		logger.Warn("Chunk %s is truncated (xid=0x%x)", key, chunk.XID)
	}

	if chunksOut == "" {
		_, err = cmd.OutOrStdout().Write(chunk.Data)
		return err
	}
	if err := os.WriteFile(chunksOut, chunk.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", chunksOut, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s\n", humanize.IBytes(uint64(len(chunk.Data))), chunksOut)
	return nil
}

func runChunksDelete(cmd *cobra.Command, args []string) error {
	key, err := filestore.ParseKey(args[0])
	if err != nil {
		return err
	}

	_, store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore(store)

	if err := store.Delete(cmd.Context(), key); err != nil {
		return fmt.Errorf("failed to delete chunk %s: %w", key, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", key)
	return nil
}
