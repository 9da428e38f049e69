package process

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelf(t *testing.T) {
	usage, err := Self()
	require.NoError(t, err)

	assert.Equal(t, os.Getpid(), usage.PID)
	assert.Positive(t, usage.RSS)
	assert.Contains(t, usage.String(), "RSS=")
	t.Logf("资源占用: %s", usage)
}

func TestByPIDUnknown(t *testing.T) {
	_, err := ByPID(-1)
	assert.Error(t, err)
}
