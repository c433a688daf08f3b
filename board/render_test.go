package board

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_RenderShowsStartingPosition(t *testing.T) {
	s := Start()
	out := s.Render()
	assert.True(t, strings.Contains(out, "w"))
	assert.True(t, strings.Contains(out, "b"))
	assert.Equal(t, 9, strings.Count(out, "\n"))
}
