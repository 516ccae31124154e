package manager

import (
	"os"
	"os/exec"
)

// SanityReport describes runtime checks for external dependencies.
type SanityReport struct {
	LlamaFound bool   `json:"llama_found"`
	LlamaPath  string `json:"llama_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SanityCheck validates that the llama-server binary is resolvable.
// It does not mutate state and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	path, err := exec.LookPath(m.llamaBin)
	if err != nil {
		return SanityReport{LlamaPath: m.llamaBin, Error: err.Error()}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return SanityReport{LlamaPath: path, Error: err.Error()}
	}
	if fi.IsDir() {
		return SanityReport{LlamaPath: path, Error: "llama path is a directory"}
	}
	return SanityReport{LlamaFound: true, LlamaPath: path}
}
