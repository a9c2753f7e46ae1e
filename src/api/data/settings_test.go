package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSettingUint64(t *testing.T) {
	settingsMu.Lock()
	settingsCache = map[string]string{
		"bootstrap_poll_id": "7",
		"not-a-number":      "seven",
	}
	settingsMu.Unlock()

	assert.Equal(t, uint64(7), GetSettingUint64("bootstrap_poll_id", 1))
	assert.Equal(t, uint64(1), GetSettingUint64("not-a-number", 1))
	assert.Equal(t, uint64(1), GetSettingUint64("missing", 1))
}
