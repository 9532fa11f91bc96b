package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
link: gpio
brightness: 0.4
playlist:
  enabled: true
  clips:
    - animation: Wave
      duration_s: 5
      brightness:
        - {t: 0, v: 0}
        - {t: 1, v: 1, ease: smooth}
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpio", c.Link)
	assert.Equal(t, 0.4, c.Brightness)
	assert.Equal(t, 60, c.RefreshHz)
	assert.Equal(t, 0.1, c.MaxDeltaS)
	require.Len(t, c.Playlist.Clips, 1)
	assert.Equal(t, "Wave", c.Playlist.Clips[0].Animation)
	assert.Equal(t, 5.0, c.Playlist.Clips[0].DurationS)
	assert.Equal(t, "smooth", c.Playlist.Clips[0].Brightness[1].Ease)
	assert.True(t, c.Playlist.Loop)
	assert.True(t, c.Realtime, "sim link keeps wire timing unless turned off")
}

func TestLoadCanDisableRealtime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.yaml")
	require.NoError(t, os.WriteFile(path, []byte("realtime: false\n"), 0644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.False(t, c.Realtime)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"link":       "link: serial\n",
		"brightness": "brightness: 2\n",
		"refresh":    "refresh_hz: 0\n",
		"syntax":     "fps: [\n",
	} {
		path := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.yaml")
	c := Default()
	c.Brightness = 0.25
	c.Strip.Enabled = true
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
