package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/google/gopacket/pcap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vahor/dofuscap/internal/archive"
	"github.com/vahor/dofuscap/internal/capture"
	"github.com/vahor/dofuscap/internal/chat"
	"github.com/vahor/dofuscap/internal/config"
	"github.com/vahor/dofuscap/internal/decode"
	"github.com/vahor/dofuscap/internal/schema"
	"github.com/vahor/dofuscap/internal/subscribe"
)

// pipelineOptions configures what runPipeline does with every decoded
// message beyond chat routing: capture has no dump output, replay
// defaults to printing one JSON line per message.
type pipelineOptions struct {
	chatViewsPath string
	dumpFormat    string // "", "json", or "text"
	archivePath   string
}

func newCaptureCmd() *cobra.Command {
	var (
		iface      string
		port       uint16
		schemaPath string
		opts       pipelineOptions
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture live traffic on an interface and decode it",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			if cmd.Flags().Changed("iface") {
				cfg.Interface = iface
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("schema") {
				cfg.SchemaPath = schemaPath
			}

			handle, err := capture.OpenLive(cfg.Interface, cfg.Port)
			if err != nil {
				return err
			}
			defer handle.Close()

			return runPipeline(cmd.Context(), log, cfg, opts, handle)
		},
	}

	cmd.Flags().StringVar(&iface, "iface", "", "capture interface (overrides config)")
	cmd.Flags().Uint16Var(&port, "port", 0, "TCP port to filter on (overrides config)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to the schema catalog (overrides config)")
	cmd.Flags().StringVar(&opts.chatViewsPath, "chat-views", "", "path to a persisted chat tab layout")
	cmd.Flags().StringVar(&opts.archivePath, "archive", "", "write every decoded message to this CBOR archive file")

	return cmd
}

func newReplayCmd() *cobra.Command {
	var (
		schemaPath string
		opts       pipelineOptions
	)

	cmd := &cobra.Command{
		Use:   "replay <pcap-file>",
		Short: "Replay a capture file through the same decode pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			if cmd.Flags().Changed("schema") {
				cfg.SchemaPath = schemaPath
			}

			handle, err := capture.OpenFile(args[0])
			if err != nil {
				return err
			}
			defer handle.Close()

			return runPipeline(cmd.Context(), log, cfg, opts, handle)
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to the schema catalog (overrides config)")
	cmd.Flags().StringVar(&opts.chatViewsPath, "chat-views", "", "path to a persisted chat tab layout")
	cmd.Flags().StringVar(&opts.dumpFormat, "format", "json", "decoded message output format on stdout: json, text, or none")
	cmd.Flags().StringVar(&opts.archivePath, "archive", "", "write every decoded message to this CBOR archive file")

	return cmd
}

func bootstrap() (*zap.Logger, *config.Config, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return log, cfg, nil
}

// runPipeline wires the schema registry, decoder, subscription registry,
// chat feature, metrics, and capture loop together and runs it until ctx
// is canceled, SIGINT/SIGTERM arrives, or handle is exhausted.
func runPipeline(ctx context.Context, log *zap.Logger, cfg *config.Config, opts pipelineOptions, handle *pcap.Handle) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := schema.Load(cfg.SchemaPath, log)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	if err := reg.Watch(); err != nil {
		log.Warn("schema hot-reload disabled", zap.Error(err))
	}
	defer reg.Close()

	dec := decode.New(reg, log)
	subs := subscribe.New(log)

	metricsReg := prometheus.NewRegistry()
	metrics := capture.NewMetrics(metricsReg)

	loop := capture.New(subs, dec, log)
	loop.Metrics = metrics

	history, err := chat.OpenHistory(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open chat history: %w", err)
	}
	defer history.Close()

	broadcaster := chat.NewBroadcaster(log)
	feature := chat.New(subs, reg, func(tabID string, ev chat.Event) {
		broadcaster.Broadcast(tabID, ev)
		if err := history.Append(tabID, ev); err != nil {
			log.Warn("failed to persist chat event", zap.String("tab", tabID), zap.Error(err))
		}
	})

	if opts.chatViewsPath != "" {
		views, err := chat.LoadViewsConfig(opts.chatViewsPath)
		if err != nil {
			return fmt.Errorf("load chat views: %w", err)
		}
		views.Apply(feature)
	}

	var archiver *archive.Archiver
	if opts.archivePath != "" {
		archiver, err = archive.Open(opts.archivePath)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer archiver.Close()
	}

	if opts.dumpFormat != "" && opts.dumpFormat != "none" || archiver != nil {
		subscribeDumpAll(subs, reg, func(msg *decode.Message) {
			if archiver != nil {
				if err := archiver.Write(toArchiveRecord(msg)); err != nil {
					log.Warn("failed to archive message", zap.Error(err))
				}
			}
			dumpMessage(opts.dumpFormat, msg)
		})
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/tabs/", func(w http.ResponseWriter, r *http.Request) {
		tabID := strings.TrimPrefix(r.URL.Path, "/tabs/")
		if tabID == "" {
			http.NotFound(w, r)
			return
		}
		broadcaster.ServeHTTP(tabID)(w, r)
	})

	wsAddr := fmt.Sprintf("127.0.0.1:%d", cfg.WSPort)
	httpServer := &http.Server{Addr: wsAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("chat/metrics http server failed", zap.Error(err))
		}
	}()
	defer httpServer.Close()

	log.Info("capture starting", zap.String("interface", cfg.Interface), zap.Uint16("port", cfg.Port))
	start := time.Now()
	runErr := loop.Run(ctx, handle)

	log.Info("capture stopped",
		zap.String("duration", humanize.RelTime(start, time.Now(), "", "")),
		zap.String("bytes_seen", humanize.Bytes(loop.Profiles.TotalBytes())),
		zap.Int("distinct_sources", loop.Profiles.Size()),
	)
	return runErr
}

// subscribeDumpAll subscribes sink to every class currently known to reg,
// so replay's stdout/archive output covers whatever the catalog defines
// rather than a hardcoded list of ids.
func subscribeDumpAll(subs *subscribe.Registry, reg *schema.Registry, sink func(*decode.Message)) {
	for _, c := range reg.Classes() {
		subs.Subscribe(c.ID, "dump", func(raw any) {
			if msg, ok := raw.(*decode.Message); ok {
				sink(msg)
			}
		})
	}
}

func dumpMessage(format string, msg *decode.Message) {
	switch format {
	case "text":
		spew.Fdump(os.Stdout, msg)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		_ = enc.Encode(toArchiveRecord(msg))
	}
}

func toArchiveRecord(msg *decode.Message) archive.Record {
	attrs := make(map[string]any, len(msg.Attributes))
	for _, a := range msg.Attributes {
		attrs[a.Name] = a.Value
	}
	return archive.Record{ID: msg.ID, Name: msg.Name, Attributes: attrs}
}
