// Package download fetches model files into the models directory with
// progress reporting and cooperative cancellation.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"eigend/internal/catalog"
	"eigend/internal/common/fsutil"
	"eigend/internal/events"
	"eigend/internal/metrics"
	"eigend/internal/state"
	"eigend/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultChunkSize    = 32 * 1024
	defaultProgressStep = 100 * 1024
)

// File is one artifact to fetch into the model directory.
type File = catalog.File

// Lookup resolves a catalog model id to its entry.
type Lookup interface {
	Lookup(id string) (catalog.Entry, error)
}

// Config holds Manager dependencies and tunables.
type Config struct {
	// Runtime is required; it tracks active downloads and progress.
	Runtime   *state.Runtime
	Publisher events.Publisher
	Logger    *zerolog.Logger
	// Catalog is required only by DownloadFromCatalog.
	Catalog Lookup
	// HTTPClient has no overall timeout by default; transfers can be long.
	HTTPClient *http.Client
	// ChunkSize is the read buffer size.
	ChunkSize int
	// ProgressStep is the byte interval between progress events within a file.
	ProgressStep uint64
}

// Manager runs downloads. Each Download call owns one model id until it
// returns; concurrent downloads of different models are independent.
type Manager struct {
	rt      *state.Runtime
	pub     events.Publisher
	log     zerolog.Logger
	catalog Lookup
	client  *http.Client
	chunk   int
	step    uint64
}

// New constructs a Manager from Config.
func New(cfg Config) *Manager {
	if cfg.Runtime == nil {
		panic("download: Config.Runtime is required")
	}
	m := &Manager{
		rt:      cfg.Runtime,
		pub:     events.Safe(cfg.Publisher),
		log:     zerolog.Nop(),
		catalog: cfg.Catalog,
		client:  cfg.HTTPClient,
		chunk:   cfg.ChunkSize,
		step:    cfg.ProgressStep,
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "download").Logger()
	}
	if m.client == nil {
		m.client = &http.Client{Timeout: 0}
	}
	if m.chunk <= 0 {
		m.chunk = defaultChunkSize
	}
	if m.step == 0 {
		m.step = defaultProgressStep
	}
	return m
}

// Download fetches files in order into <models_dir>/<modelID>. A duplicate
// call for a model already downloading fails before any side effect. On
// any failure, including cancellation, the model directory and tracking
// entries are removed.
func (m *Manager) Download(ctx context.Context, modelID string, files []File, totalBytes uint64) error {
	tok, err := m.register(modelID, totalBytes, len(files))
	if err != nil {
		return err
	}
	return m.transfer(ctx, tok, modelID, files, totalBytes)
}

// Start registers a catalog download and runs the transfer in the
// background. Unknown models and duplicates are reported synchronously;
// the outcome of the transfer is reported through events.
func (m *Manager) Start(ctx context.Context, modelID string) error {
	e, err := m.lookup(modelID)
	if err != nil {
		return err
	}
	files, total := e.Files.List(), e.Files.TotalBytes()
	tok, err := m.register(modelID, total, len(files))
	if err != nil {
		return err
	}
	go func() { _ = m.transfer(ctx, tok, modelID, files, total) }()
	return nil
}

func (m *Manager) register(modelID string, totalBytes uint64, files int) (*state.CancelToken, error) {
	if err := catalog.ValidateID(modelID); err != nil {
		return nil, err
	}
	tok, ok := m.rt.RegisterDownload(modelID)
	if !ok {
		return nil, alreadyDownloadingError{modelID: modelID}
	}
	m.log.Info().Str("event", "download_start").Str("model", modelID).Uint64("total_bytes", totalBytes).Int("files", files).Msg("download starting")
	return tok, nil
}

func (m *Manager) transfer(ctx context.Context, tok *state.CancelToken, modelID string, files []File, totalBytes uint64) error {
	dir := catalog.ModelDir(m.rt.ModelsDir(), modelID)
	err := m.fetchAll(ctx, tok, modelID, dir, files, totalBytes)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			m.log.Warn().Str("event", "download_cleanup_failed").Str("model", modelID).Err(rmErr).Msg("remove partial model dir")
		}
		m.rt.FinishDownload(modelID)
		cancelled := IsCancelled(err)
		m.log.Warn().Str("event", "download_failed").Str("model", modelID).Bool("cancelled", cancelled).Err(err).Msg("download failed")
		m.pub.Publish(events.Event{Name: events.DownloadError, Payload: types.DownloadErrorPayload{
			ModelID:   modelID,
			Error:     err.Error(),
			Cancelled: cancelled,
		}})
		return err
	}

	m.rt.FinishDownload(modelID)
	m.log.Info().Str("event", "download_complete").Str("model", modelID).Msg("download complete")
	m.pub.Publish(events.Event{Name: events.DownloadComplete, Payload: types.DownloadCompletePayload{ModelID: modelID}})
	return nil
}

// progress is the running byte count of one Download call.
type progress struct {
	modelID string
	total   uint64
	done    uint64
	start   time.Time
}

func (p *progress) percent() float32 {
	if p.total == 0 {
		return 0
	}
	return float32(float64(p.done) / float64(p.total) * 100)
}

func (p *progress) speed() uint64 {
	elapsed := time.Since(p.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return uint64(float64(p.done) / elapsed)
}

func (m *Manager) fetchAll(ctx context.Context, tok *state.CancelToken, modelID, dir string, files []File, totalBytes uint64) error {
	for _, f := range files {
		if f.Filename == "" || filepath.Base(f.Filename) != f.Filename {
			return fmt.Errorf("invalid file name %q", f.Filename)
		}
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	p := &progress{modelID: modelID, total: totalBytes, start: time.Now()}
	for _, f := range files {
		if cancelled(ctx, tok) {
			return cancelledError{modelID: modelID}
		}
		if err := m.fetchFile(ctx, tok, p, dir, f); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) fetchFile(ctx context.Context, tok *state.CancelToken, p *progress, dir string, f File) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return fmt.Errorf("start download %s: %w", f.Filename, err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		if cancelled(ctx, tok) {
			return cancelledError{modelID: p.modelID}
		}
		return fmt.Errorf("start download %s: %w", f.Filename, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpStatusError{filename: f.Filename, status: resp.StatusCode}
	}

	out, err := os.Create(filepath.Join(dir, f.Filename))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	m.log.Debug().Str("event", "download_file").Str("model", p.modelID).Str("file", f.Filename).Msg("fetching file")
	buf := make([]byte, m.chunk)
	var fileDone uint64
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if cancelled(ctx, tok) {
				return cancelledError{modelID: p.modelID}
			}
			if _, err := out.Write(buf[:n]); err != nil {
				return fmt.Errorf("write %s: %w", f.Filename, err)
			}
			fileDone += uint64(n)
			p.done += uint64(n)
			metrics.DownloadBytesTotal.Add(float64(n))
			m.rt.SetProgress(p.modelID, p.percent())
			// Emit once per crossed step boundary within this file.
			if fileDone%m.step < uint64(n) {
				m.pub.Publish(events.Event{Name: events.DownloadProgress, Payload: types.DownloadProgressPayload{
					ModelID:         p.modelID,
					DownloadedBytes: p.done,
					TotalBytes:      p.total,
					Percent:         p.percent(),
					SpeedBps:        p.speed(),
				}})
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if cancelled(ctx, tok) {
				return cancelledError{modelID: p.modelID}
			}
			return fmt.Errorf("read %s: %w", f.Filename, rerr)
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("write %s: %w", f.Filename, err)
	}
	return nil
}

func cancelled(ctx context.Context, tok *state.CancelToken) bool {
	return tok.Cancelled() || ctx.Err() != nil
}

// DownloadFromCatalog downloads the files listed for modelID in the catalog.
func (m *Manager) DownloadFromCatalog(ctx context.Context, modelID string) error {
	e, err := m.lookup(modelID)
	if err != nil {
		return err
	}
	return m.Download(ctx, modelID, e.Files.List(), e.Files.TotalBytes())
}

func (m *Manager) lookup(modelID string) (catalog.Entry, error) {
	if m.catalog == nil {
		return catalog.Entry{}, errors.New("download: no catalog configured")
	}
	return m.catalog.Lookup(modelID)
}

// Cancel requests cancellation of an in-flight download. It returns false
// when modelID is not downloading.
func (m *Manager) Cancel(modelID string) bool {
	ok := m.rt.CancelDownload(modelID)
	if ok {
		m.log.Info().Str("event", "download_cancel").Str("model", modelID).Msg("cancel requested")
	}
	return ok
}

// Progress returns the percent complete of an in-flight download.
func (m *Manager) Progress(modelID string) (float32, bool) {
	return m.rt.Progress(modelID)
}

// Active lists model ids with an in-flight download.
func (m *Manager) Active() []string {
	return m.rt.ActiveDownloads()
}
