package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/rs/zerolog"

	"github.com/rtr46/hoverdict/capture"
	"github.com/rtr46/hoverdict/config"
	"github.com/rtr46/hoverdict/dictionary"
	"github.com/rtr46/hoverdict/inputmonitor"
	"github.com/rtr46/hoverdict/logger"
	"github.com/rtr46/hoverdict/lookup"
	"github.com/rtr46/hoverdict/model"
	"github.com/rtr46/hoverdict/ocr"
	"github.com/rtr46/hoverdict/pipeline"
	"github.com/rtr46/hoverdict/popup"
)

func main() {
	artifactFlag := flag.String("artifact", "", "Path to a precompiled dictionary artifact (skips -jmdict/-rules/-priority)")
	jmdictFlag := flag.String("jmdict", "", "Comma-separated JMdict JSON shard paths (seq/k_ele/r_ele/sense entries)")
	rulesFlag := flag.String("rules", "", "Path to the deconjugation rule JSON file")
	priorityFlag := flag.String("priority", "", "Path to the priority JSON file")
	kanjidicFlag := flag.String("kanjidic2", "", "Path to a kanjidic2 XML file (optional)")
	saveArtifactFlag := flag.String("save-artifact", "", "If building from source, also save the compiled artifact here")
	logDirFlag := flag.String("log-dir", "logs", "Directory for diagnostic JSON dumps (build report, last lookup)")

	endpointFlag := flag.String("ocr-endpoint", "", "Remote OCR endpoint URL (empty disables OCR)")
	screenFlag := flag.Int("screen", 0, "Screen index to capture when -region is not set")
	regionFlag := flag.String("region", "", "Explicit capture region as x,y,w,h (overrides -screen)")
	hotkeyFlag := flag.String("hotkey", string(config.HotkeyShift), "Manual-scan hotkey: shift, ctrl, or alt")
	autoScanFlag := flag.Bool("auto-scan", false, "Continuously re-scan instead of waiting for the hotkey")
	autoScanIntervalFlag := flag.Float64("auto-scan-interval", 1.0, "Minimum seconds between auto-scans")
	maxLookupFlag := flag.Int("max-lookup-length", 25, "Maximum characters fed to a single lookup")

	verboseFlag := flag.Bool("verbose", false, "Enable debug-level logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verboseFlag {
		level = zerolog.DebugLevel
	}
	logger.Init(level)

	if err := logger.InitLogs(*logDirFlag); err != nil {
		color.Redln(" *** failed to prepare log directory ***")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	color.Greenln(" hoverdict — screen-hover Japanese dictionary")

	artifact, err := loadArtifact(*artifactFlag, *jmdictFlag, *rulesFlag, *priorityFlag, *kanjidicFlag, *saveArtifactFlag, *logDirFlag)
	if err != nil {
		color.Redln(" *** failed to load dictionary artifact, every lookup will return no results ***")
		fmt.Fprintln(os.Stderr, err)
		artifact = &dictionary.Artifact{}
	}

	cfg := config.Default()
	cfg.Hotkey = config.Hotkey(*hotkeyFlag)
	cfg.AutoScanMode = *autoScanFlag
	cfg.AutoScanIntervalSecs = *autoScanIntervalFlag
	cfg.MaxLookupLength = *maxLookupFlag
	cfg.OCREndpoint = *endpointFlag
	if *regionFlag != "" {
		cfg.ScanRegion = "region"
	} else {
		cfg.ScanRegion = strconv.Itoa(*screenFlag)
	}
	store := config.NewStore(cfg)

	lock := capture.NewScreenLock()
	capturer := capture.NewCapturer(lock)
	if rect, ok := parseRegion(*regionFlag); ok {
		capturer.SetScanRegion(rect)
	} else {
		capturer.SetScanScreen(*screenFlag)
	}

	var provider ocr.Provider
	if *endpointFlag != "" {
		provider = ocr.NewRemoteProvider(*endpointFlag)
	} else {
		color.Redln(" *** no -ocr-endpoint given, OCR stage will report no results ***")
		provider = noopProvider{}
	}

	lookupEngine := lookup.NewEngine(artifact)
	input := inputmonitor.NewTickerMonitor(200*time.Millisecond, 0, 0)
	sink := popup.LoggingSink{}

	p := pipeline.New(store, capturer, provider, lookupEngine, input, sink)
	p.LogDir = *logDirFlag

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p.Start(ctx)
	color.Greenln(" hoverdict running, press Ctrl+C to stop")

	<-ctx.Done()
	p.Stop()
}

// loadArtifact prefers a precompiled artifact, falling back to building
// one from source paths and optionally saving the result for reuse.
func loadArtifact(artifactPath, jmdictCSV, rulePath, priorityPath, kanjidic2Path, saveTo, logDir string) (*dictionary.Artifact, error) {
	if artifactPath != "" {
		return dictionary.Load(artifactPath)
	}

	shards := splitNonEmpty(jmdictCSV)
	if len(shards) == 0 {
		return nil, fmt.Errorf("no dictionary source given: pass -artifact or -jmdict")
	}

	art, report, err := dictionary.Build(shards, rulePath, priorityPath, kanjidic2Path, logDir)
	if err != nil {
		return nil, err
	}
	fmt.Printf("built dictionary: %d entries, %d rules, %d priority keys, %d kanji (%v)\n",
		report.EntryCount, report.RuleCount, report.PriorityCount, report.KanjiCount, report.Duration)

	if saveTo != "" {
		if err := art.Save(saveTo); err != nil {
			return nil, fmt.Errorf("saving artifact to %s: %w", saveTo, err)
		}
		fmt.Printf("saved compiled artifact to %s\n", saveTo)
	}
	return art, nil
}

func splitNonEmpty(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			if i > start {
				out = append(out, csv[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// parseRegion parses "x,y,w,h" into an image.Rectangle. ok is false when
// s is empty or malformed, meaning the caller should fall back to a
// screen index instead.
func parseRegion(s string) (image.Rectangle, bool) {
	if s == "" {
		return image.Rectangle{}, false
	}
	parts := splitNonEmpty(s)
	if len(parts) != 4 {
		return image.Rectangle{}, false
	}
	vals := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return image.Rectangle{}, false
		}
		vals[i] = n
	}
	return image.Rect(vals[0], vals[1], vals[0]+vals[2], vals[1]+vals[3]), true
}

// noopProvider is used when no OCR endpoint is configured, so the
// pipeline still links and runs (hiding the popup on every trigger)
// rather than requiring a live OCR backend just to start.
type noopProvider struct{}

func (noopProvider) Scan(ctx context.Context, image []byte, width, height int) ([]model.Paragraph, bool) {
	return nil, false
}
