package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	for _, version := range []string{"0.1.0", "1.2.3-rc.1", "dev"} {
		t.Run(version, func(t *testing.T) {
			out, _, err := runCommand(t, NewVersionCommand(version), "")
			require.NoError(t, err)
			assert.Equal(t, "druidql v"+version+"\nTyped native query client for Apache Druid\n", out)
		})
	}

	cmd := NewVersionCommand("test")
	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
}
