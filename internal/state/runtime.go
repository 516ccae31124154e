// Package state holds the process-wide runtime state shared by the server
// lifecycle manager, the download manager and the chat orchestrator.
//
// Each field group has its own lock and every lock is held only for a read or
// a swap, never across I/O or a call into another subsystem.
package state

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"eigend/internal/settings"
)

// ProcessHandle is the running inference server as seen by the runtime.
type ProcessHandle interface {
	Pid() int
	// Terminate stops the process and waits for it to exit.
	Terminate() error
}

// ModelRef identifies the model the inference server is (or was last asked
// to be) serving.
type ModelRef struct {
	ID         string
	Path       string
	MmprojPath string
}

// Runtime is the shared state. The zero value is not usable; call New.
type Runtime struct {
	serverAddr string
	modelsDir  string

	ready atomic.Bool

	procMu sync.Mutex
	proc   ProcessHandle

	modelMu  sync.RWMutex
	model    ModelRef
	hasModel bool

	turnMu sync.Mutex
	turns  map[string]*CancelToken

	dlMu      sync.Mutex
	downloads map[string]*CancelToken
	progress  map[string]float32

	settingsMu sync.RWMutex
	settings   settings.AppSettings
}

// New constructs a Runtime for a server reachable at serverAddr
// (e.g. http://127.0.0.1:8080) and models stored under modelsDir.
func New(serverAddr, modelsDir string, s settings.AppSettings) *Runtime {
	return &Runtime{
		serverAddr: serverAddr,
		modelsDir:  modelsDir,
		turns:      make(map[string]*CancelToken),
		downloads:  make(map[string]*CancelToken),
		progress:   make(map[string]float32),
		settings:   s.Clone(),
	}
}

// ServerAddress is the base URL of the inference server.
func (r *Runtime) ServerAddress() string { return r.serverAddr }

// ModelsDir is the root directory holding one subdirectory per model.
func (r *Runtime) ModelsDir() string { return r.modelsDir }

// Ready reports whether the inference server passed its health probe and
// has not been stopped since.
func (r *Runtime) Ready() bool { return r.ready.Load() }

// SetReady flips the readiness flag.
func (r *Runtime) SetReady(v bool) { r.ready.Store(v) }

// SwapProcess installs p as the current process and returns the previous one.
func (r *Runtime) SwapProcess(p ProcessHandle) ProcessHandle {
	r.procMu.Lock()
	defer r.procMu.Unlock()
	old := r.proc
	r.proc = p
	return old
}

// Process returns the current process handle, or nil.
func (r *Runtime) Process() ProcessHandle {
	r.procMu.Lock()
	defer r.procMu.Unlock()
	return r.proc
}

// SetCurrentModel records the model most recently requested.
func (r *Runtime) SetCurrentModel(m ModelRef) {
	r.modelMu.Lock()
	r.model = m
	r.hasModel = true
	r.modelMu.Unlock()
}

// CurrentModel returns the model most recently requested, if any.
func (r *Runtime) CurrentModel() (ModelRef, bool) {
	r.modelMu.RLock()
	defer r.modelMu.RUnlock()
	return r.model, r.hasModel
}

// BeginTurn registers a fresh cancel token for chatID, replacing any token a
// previous turn left behind.
func (r *Runtime) BeginTurn(chatID string) *CancelToken {
	tok := NewCancelToken()
	r.turnMu.Lock()
	r.turns[chatID] = tok
	r.turnMu.Unlock()
	return tok
}

// EndTurn unregisters tok if it is still the token for chatID.
func (r *Runtime) EndTurn(chatID string, tok *CancelToken) {
	r.turnMu.Lock()
	if r.turns[chatID] == tok {
		delete(r.turns, chatID)
	}
	r.turnMu.Unlock()
}

// CancelTurn cancels the in-flight turn of chatID and reports whether one
// was registered.
func (r *Runtime) CancelTurn(chatID string) bool {
	r.turnMu.Lock()
	tok, ok := r.turns[chatID]
	r.turnMu.Unlock()
	if ok {
		tok.Cancel()
	}
	return ok
}

// CancelAllTurns cancels every in-flight turn and returns how many there were.
func (r *Runtime) CancelAllTurns() int {
	r.turnMu.Lock()
	toks := slices.Collect(maps.Values(r.turns))
	r.turnMu.Unlock()
	for _, t := range toks {
		t.Cancel()
	}
	return len(toks)
}

// ActiveTurns returns the chat ids with a turn in flight.
func (r *Runtime) ActiveTurns() []string {
	r.turnMu.Lock()
	defer r.turnMu.Unlock()
	return slices.Sorted(maps.Keys(r.turns))
}

// RegisterDownload creates the cancel token for modelID and resets its
// progress to zero. It returns false when a download is already registered.
func (r *Runtime) RegisterDownload(modelID string) (*CancelToken, bool) {
	r.dlMu.Lock()
	defer r.dlMu.Unlock()
	if _, ok := r.downloads[modelID]; ok {
		return nil, false
	}
	tok := NewCancelToken()
	r.downloads[modelID] = tok
	r.progress[modelID] = 0
	return tok, true
}

// SetProgress records the download percentage for modelID.
func (r *Runtime) SetProgress(modelID string, percent float32) {
	r.dlMu.Lock()
	if _, ok := r.downloads[modelID]; ok {
		r.progress[modelID] = percent
	}
	r.dlMu.Unlock()
}

// Progress returns the download percentage for modelID while it is registered.
func (r *Runtime) Progress(modelID string) (float32, bool) {
	r.dlMu.Lock()
	defer r.dlMu.Unlock()
	p, ok := r.progress[modelID]
	return p, ok
}

// CancelDownload sets the cancel flag of modelID's download, if any.
func (r *Runtime) CancelDownload(modelID string) bool {
	r.dlMu.Lock()
	tok, ok := r.downloads[modelID]
	r.dlMu.Unlock()
	if ok {
		tok.Cancel()
	}
	return ok
}

// FinishDownload removes the token and progress entry of modelID.
func (r *Runtime) FinishDownload(modelID string) {
	r.dlMu.Lock()
	delete(r.downloads, modelID)
	delete(r.progress, modelID)
	r.dlMu.Unlock()
}

// Downloading reports whether modelID has a download registered.
func (r *Runtime) Downloading(modelID string) bool {
	r.dlMu.Lock()
	defer r.dlMu.Unlock()
	_, ok := r.downloads[modelID]
	return ok
}

// ActiveDownloads returns the model ids with a download registered.
func (r *Runtime) ActiveDownloads() []string {
	r.dlMu.Lock()
	defer r.dlMu.Unlock()
	return slices.Sorted(maps.Keys(r.downloads))
}

// Settings returns a copy of the current settings.
func (r *Runtime) Settings() settings.AppSettings {
	r.settingsMu.RLock()
	defer r.settingsMu.RUnlock()
	return r.settings.Clone()
}

// SetSettings replaces the in-memory settings.
func (r *Runtime) SetSettings(s settings.AppSettings) {
	r.settingsMu.Lock()
	r.settings = s.Clone()
	r.settingsMu.Unlock()
}
