package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FlagsOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, runCmd.ParseFlags([]string{
		"--chunk-size", "12",
		"--endpoint", "http://study.example",
		"--headphone-check=false",
	}))

	cfg, err := loadConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Dissimilarity.ChunkSize)
	assert.Equal(t, "http://study.example", cfg.Server.Endpoint)
	assert.False(t, cfg.Sections.HeadphoneCheck)
	assert.True(t, cfg.Sections.Welcome)
}

func TestLoadConfig_RejectsInvalidOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, specCmd.ParseFlags([]string{"--audio", "stimuli"}))
	cfg, err := loadConfig(specCmd)
	require.NoError(t, err)
	assert.Equal(t, "stimuli", cfg.Audio.Dir)

	require.NoError(t, runCmd.ParseFlags([]string{"--chunk-size=-1"}))
	_, err = loadConfig(runCmd)
	assert.Error(t, err)
}
