package manager

import (
	"time"

	"eigend/pkg/types"
)

// Status builds the lifecycle part of the /status response.
func (m *Manager) Status() types.StatusResponse {
	snap := m.Snapshot()
	now := time.Now()
	return types.StatusResponse{
		State:          string(snap.Phase),
		Ready:          m.rt.Ready(),
		ModelID:        snap.Model.ID,
		PID:            snap.PID,
		ServerAddress:  m.rt.ServerAddress(),
		LastError:      snap.Err,
		Downloads:      m.rt.ActiveDownloads(),
		UptimeSeconds:  int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
}
