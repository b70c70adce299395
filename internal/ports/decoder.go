package ports

import (
	"context"

	"github.com/seaward-labs/echoline/internal/domain"
)

// Decoder turns one acquisition file into a RawUnit.
//
// Implementations read the instrument's native format, apply calibration,
// and fill the unit's sample grid, sample clock, range grid and raw
// telemetry arrays. Continuity fields are left zero; the classifier owns
// them.
type Decoder interface {
	// Decode reads the file at path and extracts the configured frequency
	// channel. Returns domain.ErrChannelNotFound (wrapped) when the channel
	// is absent, domain.ErrCalibration when calibration input is malformed.
	Decode(ctx context.Context, path string) (*domain.RawUnit, error)

	// Channels reports the frequency channels (kHz) the decoder can ever
	// produce, when known ahead of decoding. An empty slice means unknown.
	// Used for the fatal pre-loop check that the configured channel can
	// exist at all.
	Channels() []int
}
