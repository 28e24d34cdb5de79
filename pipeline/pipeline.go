package pipeline

import (
	"context"
	"image"
	"sync/atomic"
	"time"

	"github.com/rtr46/hoverdict/capture"
	"github.com/rtr46/hoverdict/config"
	"github.com/rtr46/hoverdict/hitscan"
	"github.com/rtr46/hoverdict/inputmonitor"
	"github.com/rtr46/hoverdict/logger"
	"github.com/rtr46/hoverdict/lookup"
	"github.com/rtr46/hoverdict/model"
	"github.com/rtr46/hoverdict/ocr"
	"github.com/rtr46/hoverdict/popup"
)

// ocrState is the hit-scanner's "last-seen OCR result" (spec.md §4.6):
// produced fresh by the OCR worker, or replayed from the cache on a
// cursor-move trigger so a mouse move re-scans without re-running OCR.
type ocrState struct {
	paragraphs []model.Paragraph
	ok         bool
}

// cursorPos is the input monitor's latest reported pixel position.
type cursorPos struct {
	x, y int
}

// capturedFrame carries one captured image from the screen capturer to
// the OCR worker.
type capturedFrame struct {
	img *image.RGBA
}

// hitResult is the hit scanner's output: either a lookup suffix at a
// cursor position, or a miss (nothing under the cursor to look up).
type hitResult struct {
	hit    bool
	suffix string
	x, y   int
}

// Pipeline wires spec.md §2's five long-lived stages — input monitor,
// screen capturer, OCR worker, hit scanner, lookup engine — as five
// persistent goroutines, per spec.md §5's scheduling/suspension-point
// requirements: the input router reads the monitor's event channel, and
// each of the other four blocks on exactly one latest-value channel.
// Shutdown is cooperative via a shared running flag and Close on every
// channel (spec.md §5's "poison values").
type Pipeline struct {
	Config   *config.Store
	Capturer *capture.Capturer
	Provider ocr.Provider
	Lookup   *lookup.Engine
	Input    inputmonitor.Monitor
	Popup    popup.Sink

	// LogDir, when non-empty, is where the lookup stage dumps its last
	// served lookup string and result set via logger.LogJSON, for
	// offline inspection. Empty disables the dump.
	LogDir string

	running atomic.Bool

	screenshotTrig *LatestValue[struct{}]
	rawImageTrig   *LatestValue[capturedFrame]
	ocrDone        *LatestValue[struct{}]
	hitScanTrig    *LatestValue[ocrState]
	lookupTrig     *LatestValue[hitResult]

	cursor      atomic.Pointer[cursorPos]
	lastOCR     atomic.Pointer[ocrState]
	lastLookup  atomic.Pointer[string]
	lastResults atomic.Pointer[[]model.DictionaryEntryResult]
}

// New builds a Pipeline from its collaborators. Call Start to run it.
func New(cfg *config.Store, capturer *capture.Capturer, provider ocr.Provider, lookupEngine *lookup.Engine, input inputmonitor.Monitor, sink popup.Sink) *Pipeline {
	return &Pipeline{
		Config:         cfg,
		Capturer:       capturer,
		Provider:       provider,
		Lookup:         lookupEngine,
		Input:          input,
		Popup:          sink,
		screenshotTrig: NewLatestValue[struct{}](),
		rawImageTrig:   NewLatestValue[capturedFrame](),
		ocrDone:        NewLatestValue[struct{}](),
		hitScanTrig:    NewLatestValue[ocrState](),
		lookupTrig:     NewLatestValue[hitResult](),
	}
}

// Start launches the five worker goroutines — one per spec.md §2 stage
// — plus the input monitor itself. It returns immediately; call Stop
// (or cancel ctx) to shut down.
func (p *Pipeline) Start(ctx context.Context) {
	p.running.Store(true)

	inputEvents := make(chan inputmonitor.Event, 8)
	go p.Input.Run(ctx, inputEvents)

	go p.runInputRouter(ctx, inputEvents)
	go p.runCapturer(ctx)
	go p.runOCRWorker(ctx)
	go p.runHitScanner(ctx)
	go p.runLookupWorker(ctx)

	cfg := p.Config.Load()
	if cfg.AutoScanMode {
		p.screenshotTrig.Send(struct{}{})
	}
}

// Stop cooperatively shuts the pipeline down.
func (p *Pipeline) Stop() {
	p.running.Store(false)
	p.screenshotTrig.Close()
	p.rawImageTrig.Close()
	p.ocrDone.Close()
	p.hitScanTrig.Close()
	p.lookupTrig.Close()
}

func (p *Pipeline) isRunning() bool { return p.running.Load() }

// runInputRouter is the "input monitor" stage. It converts raw input
// events into the two trigger kinds spec.md §4.6 names: cursor movement
// enqueues a hit-scan trigger carrying the cached last-seen OCR result
// (no OCR re-run); hotkey press in manual mode enqueues a screenshot
// trigger.
func (p *Pipeline) runInputRouter(ctx context.Context, events <-chan inputmonitor.Event) {
	log := logger.Stage("input")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !p.isRunning() {
				continue
			}
			switch ev.Kind {
			case inputmonitor.CursorMove:
				p.cursor.Store(&cursorPos{x: ev.X, y: ev.Y})
				cached := p.lastOCR.Load()
				var state ocrState
				if cached != nil {
					state = *cached
				}
				p.hitScanTrig.Send(state)
			case inputmonitor.HotkeyPress:
				cfg := p.Config.Load()
				if !cfg.AutoScanMode {
					p.screenshotTrig.Send(struct{}{})
				}
			default:
				log.Warn().Int("kind", int(ev.Kind)).Msg("unknown input event kind")
			}
		}
	}
}

// runCapturer is the "screen capturer" stage: on trigger, it captures
// the configured region and hands the raw frame to the OCR worker,
// skipping bit-identical frames. In auto mode it blocks on ocrDone
// until the OCR worker finishes this frame before sleeping the
// configured interval and re-arming itself — spec.md §4.5 requires the
// capturer to "re-arm its trigger after each OCR completes", which a
// fixed timer cannot guarantee since OCR latency can exceed the
// interval. This is spec.md §5's named exception to "each worker blocks
// on exactly one channel": the capturer's re-arm path blocks on one
// additional event.
func (p *Pipeline) runCapturer(ctx context.Context) {
	log := logger.Stage("capture")
	for {
		_, ok := p.screenshotTrig.Recv()
		if !ok {
			return
		}
		if !p.isRunning() {
			continue
		}

		cfg := p.Config.Load()
		sentFrame := false

		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Msg("recovered from panic in capture stage")
				}
			}()

			img, changed, err := p.Capturer.Capture()
			if err != nil {
				log.Error().Err(err).Msg("capture failed")
				return
			}
			if !changed {
				log.Debug().Msg("frame unchanged, skipping OCR")
				return
			}

			p.rawImageTrig.Send(capturedFrame{img: img})
			sentFrame = true
		}()

		if !cfg.AutoScanMode {
			continue
		}

		if sentFrame {
			if _, ok := p.ocrDone.Recv(); !ok {
				return
			}
		}

		interval := time.Duration(cfg.AutoScanIntervalSecs * float64(time.Second))
		if !sleepCtx(ctx, interval) {
			return
		}
		if p.isRunning() {
			p.screenshotTrig.Send(struct{}{})
		}
	}
}

// sleepCtx sleeps for d, returning false early if ctx is canceled
// first. A non-positive d returns immediately (true).
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// runOCRWorker is the "OCR worker" stage: a single persistent goroutine
// blocking on one channel of raw frames, sending each to the pluggable
// Provider and publishing the normalized paragraph list to the hit
// scanner. Being persistent rather than spawned per capture means at
// most one Scan call is ever in flight.
func (p *Pipeline) runOCRWorker(ctx context.Context) {
	log := logger.Stage("ocr")
	for {
		frame, ok := p.rawImageTrig.Recv()
		if !ok {
			return
		}
		if !p.isRunning() {
			p.ocrDone.Send(struct{}{})
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Msg("recovered from panic in OCR stage")
				}
			}()

			bounds := frame.img.Bounds()
			paragraphs, ok := p.Provider.Scan(ctx, frame.img.Pix, bounds.Dx(), bounds.Dy())

			state := ocrState{paragraphs: paragraphs, ok: ok}
			p.lastOCR.Store(&state)
			p.hitScanTrig.Send(state)
		}()

		p.ocrDone.Send(struct{}{})
	}
}

// runHitScanner is the "hit scanner" stage: given the latest paragraph
// list and the current cursor position, it computes the lookup suffix
// (or a miss) and hands the result to the lookup engine stage.
func (p *Pipeline) runHitScanner(ctx context.Context) {
	log := logger.Stage("hitscan")
	for {
		state, ok := p.hitScanTrig.Recv()
		if !ok {
			return
		}
		if !p.isRunning() {
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Msg("recovered from panic in hit-scan stage")
				}
			}()
			p.lookupTrig.Send(p.doHitScan(state))
		}()
	}
}

// doHitScan is the hit scanner's pure computation, factored out of
// runHitScanner so tests can drive it directly without the channel
// plumbing.
func (p *Pipeline) doHitScan(state ocrState) hitResult {
	log := logger.Stage("hitscan")

	if !state.ok || len(state.paragraphs) == 0 {
		return hitResult{hit: false}
	}

	cur := p.cursor.Load()
	if cur == nil {
		return hitResult{hit: false}
	}

	rect, err := p.Capturer.Geometry()
	if err != nil {
		log.Error().Err(err).Msg("no capture geometry for hit scan")
		return hitResult{hit: false}
	}
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return hitResult{hit: false}
	}
	normX := float64(cur.x-rect.Min.X) / float64(w)
	normY := float64(cur.y-rect.Min.Y) / float64(h)

	result, hit := hitscan.Scan(state.paragraphs, normX, normY)
	if !hit {
		return hitResult{hit: false}
	}

	return hitResult{hit: true, suffix: result.Suffix, x: cur.x, y: cur.y}
}

// runLookupWorker is the "lookup engine" stage: it blocks on the hit
// scanner's output, searches the dictionary (applying spec.md §4.6's
// lookup short-circuit), and drives the popup sink.
func (p *Pipeline) runLookupWorker(ctx context.Context) {
	log := logger.Stage("lookup")
	for {
		res, ok := p.lookupTrig.Recv()
		if !ok {
			return
		}
		if !p.isRunning() {
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Msg("recovered from panic in lookup stage")
				}
			}()
			p.processHit(res)
		}()
	}
}

// processHit is the lookup stage's pure computation, factored out of
// runLookupWorker so tests can drive it directly without the channel
// plumbing.
func (p *Pipeline) processHit(res hitResult) {
	if !res.hit {
		p.Popup.Hide()
		return
	}

	cfg := p.Config.Load()
	results := p.lookup(res.suffix, cfg.MaxLookupLength)
	if len(results) == 0 {
		p.Popup.Hide()
		return
	}

	p.Popup.Show(results, res.x, res.y)
}

// lookup applies spec.md §4.6's lookup short-circuit: an identical
// lookup string to the last one served reuses the prior results
// without re-searching or re-sorting.
func (p *Pipeline) lookup(s string, maxLookupLength int) []model.DictionaryEntryResult {
	last := p.lastLookup.Load()
	if last != nil && *last == s {
		if cached := p.lastResults.Load(); cached != nil {
			return *cached
		}
	}

	results := p.Lookup.Lookup(s, maxLookupLength)
	p.lastLookup.Store(&s)
	p.lastResults.Store(&results)

	if p.LogDir != "" {
		dump := lastLookupDump{Query: s, Results: results}
		if err := logger.LogJSON(p.LogDir, "last-lookup", dump); err != nil {
			logger.Stage("lookup").Error().Err(err).Msg("failed to persist last lookup dump")
		}
	}

	return results
}

// lastLookupDump is the shape logger.LogJSON persists each time the
// lookup stage serves a fresh (non-cached) result.
type lastLookupDump struct {
	Query   string                        `json:"query"`
	Results []model.DictionaryEntryResult `json:"results"`
}
