package themes

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()
	assert.Equal(t, []string{"dark", "light", "ocean", "pastel", "sunset"}, c.Names())

	dark, err := c.Get("dark")
	require.NoError(t, err)
	assert.Equal(t, "dark", dark.Name)
	assert.Equal(t, "#121212", dark.BgColor)
	assert.True(t, dark.Animation)

	_, err = c.Get("neon")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestCatalogReturnsCopies(t *testing.T) {
	c := Builtin()

	light, err := c.Get("light")
	require.NoError(t, err)
	light.BgColor = "#000000"

	all := c.All()
	all["light"].NameColor = "red"

	again, _ := c.Get("light")
	assert.Equal(t, "#ffffff", again.BgColor)
	assert.Equal(t, "#111111", again.NameColor)
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte("mono:\n  bgColor: \"#000\"\n"))
	require.NoError(t, err)
	mono, err := c.Get("mono")
	require.NoError(t, err)
	assert.Equal(t, "mono", mono.Name, "name defaults to the map key")

	_, err = Parse([]byte("x:\n  buttonStyle: wobbly\n"))
	assert.ErrorContains(t, err, "bad button style")

	_, err = Parse([]byte("::: not yaml"))
	assert.Error(t, err)
}
