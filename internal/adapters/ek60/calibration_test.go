package ek60

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaward-labs/echoline/internal/domain"
)

func TestLoadCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[channel.120]
gain          = 26.81
sa_correction = -0.52

[channel.38]
gain = 25.92
`), 0o644))

	cal, err := LoadCalibration(path)
	require.NoError(t, err)

	cc := cal.ForChannel(120)
	require.NotNil(t, cc)
	require.NotNil(t, cc.Gain)
	assert.Equal(t, 26.81, *cc.Gain)
	require.NotNil(t, cc.SaCorrection)
	assert.Equal(t, -0.52, *cc.SaCorrection)
	assert.Nil(t, cc.Absorption, "unset fields stay nil")

	assert.Nil(t, cal.ForChannel(200))
	assert.Nil(t, (*Calibration)(nil).ForChannel(120))
}

func TestLoadCalibrationErrors(t *testing.T) {
	_, err := LoadCalibration(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCalibration))

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("channel = ["), 0o644))
	_, err = LoadCalibration(bad)
	assert.True(t, errors.Is(err, domain.ErrCalibration))

	empty := filepath.Join(t.TempDir(), "empty.toml")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing"), 0o644))
	_, err = LoadCalibration(empty)
	assert.True(t, errors.Is(err, domain.ErrCalibration))
}
