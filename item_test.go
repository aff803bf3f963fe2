package pollpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem(t *testing.T) {
	a := NewItem("report", 42)
	b := NewItem("report", 42)

	require.NotNil(t, a)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID, "generated IDs are unique per item")
	assert.Equal(t, "report", a.Name)
	assert.Equal(t, 42, a.Payload)
}

func TestWithID(t *testing.T) {
	assert.Nil(t, withID[int](nil))

	item := &Item[int]{ID: "fixed", Name: "n"}
	assert.Equal(t, "fixed", withID(item).ID, "existing identity is preserved")

	anon := &Item[int]{Name: "n"}
	assert.NotEmpty(t, withID(anon).ID)
}
