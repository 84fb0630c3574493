package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"

	"github.com/marmos91/nfsinspect/internal/cli/output"
	"github.com/marmos91/nfsinspect/internal/logger"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/stream"
	"github.com/marmos91/nfsinspect/pkg/config"
	"github.com/spf13/cobra"
)

var (
	decodeToServer string
	decodeToClient string
	decodeErrors   bool
	decodeServe    bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode captured NFS-over-TCP byte streams",
	Long: `Decode the two directions of a captured NFS-over-TCP connection.

Each file holds the raw TCP payload of one direction, as written by
"tcpflow" or Wireshark's "Follow TCP Stream > Save as raw". Either file may
be omitted. Chunks of both files are fed alternately, so replies are paired
with the calls sent before them.

When a file store is configured, READ and WRITE payloads are saved and can
be inspected with "nfsinspect chunks".

Examples:
  nfsinspect decode --to-server client.raw --to-client server.raw
  nfsinspect decode --to-server client.raw -o json
  nfsinspect decode --to-server c.raw --to-client s.raw --serve`,
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVar(&decodeToServer, "to-server", "", "raw client-to-server stream")
	decodeCmd.Flags().StringVar(&decodeToClient, "to-client", "", "raw server-to-client stream")
	decodeCmd.Flags().BoolVar(&decodeErrors, "errors-only", false, "only print records that failed to decode")
	decodeCmd.Flags().BoolVar(&decodeServe, "serve", false, "keep the metrics endpoint up after decoding until interrupted")
}

// eventRow is the printable form of one stream event.
type eventRow struct {
	Direction string `json:"direction" yaml:"direction"`
	Kind      string `json:"kind" yaml:"kind"`
	XID       string `json:"xid" yaml:"xid"`
	Procedure string `json:"procedure" yaml:"procedure"`
	Status    string `json:"status" yaml:"status"`
	Mode      string `json:"mode" yaml:"mode"`
	Caller    string `json:"caller,omitempty" yaml:"caller,omitempty"`
	Detail    string `json:"detail" yaml:"detail"`
}

func newEventRow(ev *stream.Event) eventRow {
	row := eventRow{
		Direction: ev.Direction.String(),
		Kind:      ev.Kind.String(),
		XID:       fmt.Sprintf("0x%08x", ev.XID),
		Status:    stream.StatusOf(ev.Err),
		Mode:      ev.Mode.String(),
		Detail:    stream.Describe(ev),
	}
	if ev.Kind != stream.EventStreamError {
		row.Procedure = types.ProcedureName(ev.Procedure)
	} else {
		row.XID = ""
		row.Mode = ""
	}
	if c := ev.Caller; c != nil && c.UID != nil && c.GID != nil {
		row.Caller = fmt.Sprintf("%d:%d", *c.UID, *c.GID)
	}
	return row
}

type eventList []eventRow

func (l eventList) Headers() []string {
	return []string{"Dir", "Kind", "XID", "Proc", "Status", "Mode", "Caller", "Detail"}
}

func (l eventList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{e.Direction, e.Kind, e.XID, e.Procedure, e.Status, e.Mode, e.Caller, e.Detail})
	}
	return rows
}

// decodeResult is what json and yaml output carry.
type decodeResult struct {
	Events eventList    `json:"events" yaml:"events"`
	Stats  stream.Stats `json:"stats" yaml:"stats"`
}

func statsPairs(s stream.Stats) [][2]string {
	f := func(v uint64) string { return strconv.FormatUint(v, 10) }
	return [][2]string{
		{"Records", f(s.Records)},
		{"Calls", f(s.Calls)},
		{"Replies", f(s.Replies)},
		{"Decoded", f(s.Decoded)},
		{"Errors", f(s.Errors)},
		{"Desyncs", f(s.Desyncs)},
		{"Oversized", f(s.Oversized)},
		{"Unmatched replies", f(s.Unmatched)},
		{"Rejected replies", f(s.Rejected)},
		{"Evicted calls", f(s.Evicted)},
	}
}

func runDecode(cmd *cobra.Command, args []string) error {
	if decodeToServer == "" && decodeToClient == "" {
		return errors.New("at least one of --to-server or --to-client is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	printer, err := newPrinter(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Totals for /stats, refreshed after every read round.
	var snapshot atomic.Pointer[stream.Stats]
	snapshot.Store(&stream.Stats{})
	metricsResult := config.InitializeMetrics(cfg, func() any { return snapshot.Load() })
	if metricsResult.Server != nil {
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	store, err := config.CreateFileStore(ctx, &cfg.FileStore, metricsResult.FileStoreMetrics)
	if err != nil {
		return fmt.Errorf("failed to create file store: %w", err)
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close file store: %v", err)
			}
		}()
	}

	var events eventList
	var handler stream.Handler = func(ev *stream.Event) {
		if decodeErrors && ev.Err == nil {
			return
		}
		events = append(events, newEventRow(ev))
	}
	if store != nil {
		handler = stream.PayloadSink(ctx, store, int(cfg.FileStore.ChunkSize), handler)
	}

	session, err := stream.NewSession(stream.Config{
		MaxRecordSize:   uint32(cfg.Stream.MaxRecordSize),
		MaxFragmentSize: uint32(cfg.Stream.MaxFragmentSize),
		PendingCalls:    cfg.Stream.PendingCalls,
		Metrics:         metricsResult.DecodeMetrics,
	}, handler)
	if err != nil {
		return err
	}

	if err := feedFiles(ctx, session, int(cfg.Stream.ReadSize), &snapshot); err != nil {
		return err
	}
	stats := session.Close()
	snapshot.Store(&stats)

	logger.Info("Decoded %d records (%d errors, %d desyncs)", stats.Records, stats.Errors, stats.Desyncs)

	if printer.Format() == output.FormatTable {
		if err := printer.Print(events); err != nil {
			return err
		}
		printer.Printf("\n")
		if err := output.SimpleTable(cmd.OutOrStdout(), statsPairs(stats)); err != nil {
			return err
		}
	} else if err := printer.Print(decodeResult{Events: events, Stats: stats}); err != nil {
		return err
	}

	if decodeServe && metricsResult.Server != nil {
		logger.Info("Serving metrics on port %d, press Ctrl+C to exit", metricsResult.Server.Port())
		<-ctx.Done()
	}
	return nil
}

// feedFiles reads both capture files in readSize chunks, alternating
// between directions until both are exhausted.
func feedFiles(ctx context.Context, session *stream.Session, readSize int, snapshot *atomic.Pointer[stream.Stats]) error {
	type source struct {
		dir  stream.Direction
		file *os.File
	}

	var sources []*source
	for _, s := range []struct {
		dir  stream.Direction
		path string
	}{
		{stream.ToServer, decodeToServer},
		{stream.ToClient, decodeToClient},
	} {
		if s.path == "" {
			continue
		}
		f, err := os.Open(s.path)
		if err != nil {
			return fmt.Errorf("failed to open %s stream: %w", s.dir, err)
		}
		defer func() { _ = f.Close() }()
		sources = append(sources, &source{dir: s.dir, file: f})
	}

	buf := make([]byte, readSize)
	for len(sources) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		active := sources[:0]
		for _, src := range sources {
			n, err := src.file.Read(buf)
			if n > 0 {
				session.Feed(src.dir, buf[:n])
			}
			switch {
			case errors.Is(err, io.EOF):
				logger.Debug("Reached end of %s stream", src.dir)
				continue
			case err != nil:
				return fmt.Errorf("failed to read %s stream: %w", src.dir, err)
			}
			active = append(active, src)
		}
		sources = active

		stats := session.Stats()
		snapshot.Store(&stats)
	}
	return nil
}
