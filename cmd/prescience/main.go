// prescience - prediction-market intelligence service.
//
// Subcommands map onto the scheduler cadences: tier2 (broad scan),
// scan (deep scan), publish (signal emission), scorecard (snapshot
// rebuild) and serve (HTTP ingress).
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/0xLaVaN/prescience/internal/config"
	"github.com/0xLaVaN/prescience/internal/gamma"
	"github.com/0xLaVaN/prescience/internal/gate"
	"github.com/0xLaVaN/prescience/internal/publisher"
	"github.com/0xLaVaN/prescience/internal/scanner"
	"github.com/0xLaVaN/prescience/internal/scorecard"
	"github.com/0xLaVaN/prescience/internal/server"
	"github.com/0xLaVaN/prescience/internal/store"
	"github.com/0xLaVaN/prescience/internal/types"
)

const listingLimit = 200

var dryRun bool

func main() {
	godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	root := &cobra.Command{
		Use:           "prescience",
		Short:         "Prediction-market intelligence service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&dryRun, "dry", false, "no side effects: skip emission and log appends")

	root.AddCommand(serveCmd(), tier2Cmd(), scanCmd(), publishCmd(), scorecardCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("Fatal")
		os.Exit(1)
	}
}

// app bundles the wired pipeline for one invocation.
type app struct {
	cfg     *config.Config
	client  *gamma.Client
	files   *store.Files
	archive *store.Archive
	broad   *scanner.BroadScanner
	deep    *scanner.DeepScanner
	gate    *gate.Gate
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dryRun {
		cfg.DryRun = true
	}

	files, err := store.NewFiles(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	archive, err := store.NewArchive(cfg.ArchivePath)
	if err != nil {
		return nil, err
	}

	client := gamma.NewClient(cfg.GammaAPIURL, cfg.DataAPIURL)
	return &app{
		cfg:     cfg,
		client:  client,
		files:   files,
		archive: archive,
		broad:   scanner.NewBroadScanner(client, cfg.Thresholds.Tier2, true),
		deep:    scanner.NewDeepScanner(client, cfg.Thresholds.Tier1),
		gate:    gate.New(cfg.Thresholds.Gate),
	}, nil
}

// deepScan runs the tier-2 promotion pass and the tier-1 analysis over
// the promoted or sufficiently active markets.
func (a *app) deepScan(ctx context.Context) ([]types.MarketSnapshot, error) {
	markets, err := a.client.ListActiveMarkets(ctx, listingLimit)
	if err != nil {
		return nil, err
	}

	result, _, _, err := a.broad.Scan(ctx, listingLimit)
	if err != nil {
		return nil, err
	}
	a.archive.RecordScanRun("tier2", result.MarketsProcessed, len(result.Index), topSlug(result), topScore(result))

	promoted := make(map[string]bool)
	for _, e := range result.Index {
		if e.PromoteToTier1 {
			promoted[e.ConditionID] = true
		}
	}

	candidates := make([]types.Market, 0, 25)
	for _, m := range markets {
		if len(candidates) >= 25 {
			break
		}
		if promoted[m.ConditionID] || m.Volume24hr >= 1000 {
			candidates = append(candidates, m)
		}
	}

	snapshots := a.deep.Scan(ctx, candidates)
	if len(snapshots) > 0 {
		a.archive.RecordScanRun("tier1", len(candidates), len(snapshots), snapshots[0].Slug, snapshots[0].ThreatScore)
	}
	return snapshots, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP ingress",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			handlers := server.NewHandlers(a.client, a.broad, a.deep, a.files)
			return server.New(a.cfg.HTTPAddr, handlers, a.cfg.AdminToken).ListenAndServe()
		},
	}
}

func tier2Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tier2",
		Short: "Run the broad anomaly sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			result, _, _, err := a.broad.Scan(cmd.Context(), listingLimit)
			if err != nil {
				return err
			}
			a.archive.RecordScanRun("tier2", result.MarketsProcessed, len(result.Index), topSlug(result), topScore(result))
			return printJSON(result)
		},
	}
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run the deep scan over promoted markets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			snapshots, err := a.deepScan(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(snapshots)
		},
	}
}

func publishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Gate the latest deep scan and emit signals",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}

			snapshots, err := a.deepScan(cmd.Context())
			if err != nil {
				return err
			}

			now := time.Now()
			var candidates []publisher.Candidate
			for i := range snapshots {
				call := a.gate.Score(&snapshots[i], now)
				if a.gate.Publishable(call) {
					candidates = append(candidates, publisher.Candidate{Snapshot: snapshots[i], Call: call})
				}
			}

			var emitter publisher.Emitter
			if !a.cfg.DryRun {
				emitter, err = publisher.NewTelegramEmitter(a.cfg.TelegramToken, a.cfg.TelegramChatID)
				if err != nil {
					return err
				}
			}

			pub := publisher.New(a.files, a.archive, emitter, a.cfg.Thresholds.Publisher, a.cfg.Channel, a.cfg.DryRun)
			result, err := pub.Publish(candidates, now)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func scorecardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scorecard",
		Short: "Rebuild the scorecard snapshot from the persisted records",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}

			sc := scorecard.Aggregate(a.files.ReadPostLog(), a.files.ReadReceipts(), a.files.ReadLiveProofs(), time.Now())
			if !a.cfg.DryRun {
				if err := a.files.WriteScorecard(sc); err != nil {
					return err
				}
			}
			return printJSON(sc)
		},
	}
}

func topSlug(r *scanner.Tier2Result) string {
	if len(r.Index) == 0 {
		return ""
	}
	return r.Index[0].Slug
}

func topScore(r *scanner.Tier2Result) float64 {
	if len(r.Index) == 0 {
		return 0
	}
	return r.Index[0].AnomalyScore
}

func printJSON(value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}
