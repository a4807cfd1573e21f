package session

import (
	"fmt"
	"time"
)

// Snapshot is a point-in-time copy of a session for rendering layers.
type Snapshot struct {
	Call           CallData
	Phase          Phase
	ElapsedSeconds int
	Muted          bool
	VideoEnabled   bool
	EndReason      EndReason
	CreatedAt      time.Time
	ConnectedAt    time.Time
	EndedAt        time.Time
}

// FormattedDuration renders ElapsedSeconds as MM:SS.
func (s Snapshot) FormattedDuration() string {
	return FormatDuration(s.ElapsedSeconds)
}

// FormatDuration renders seconds as zero-padded MM:SS. Minutes are not
// capped, so an hour-long call shows as "60:00".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
