package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDefinition = `
name: testmeter
dialogues:
  - q: "*IDN?"
    r: "Acme, TM-1, 0001, 1.0"
properties:
  - name: volt
    default: "0"
    getter: "VOLT?"
    setter: "VOLT %s"
    min: -10
    max: 10
  - name: mode
    default: "0"
    getter: "MODE?"
    setter: "MODE %s"
`

func loadTestBackend(t *testing.T) *Backend {
	t.Helper()
	def, err := Parse([]byte(testDefinition))
	require.NoError(t, err)
	return NewBackend(def)
}

func TestParse(t *testing.T) {
	def, err := Parse([]byte(testDefinition))
	require.NoError(t, err)
	assert.Equal(t, "testmeter", def.Name)
	assert.Len(t, def.Dialogues, 1)
	assert.Len(t, def.Properties, 2)

	require.NotNil(t, def.Properties[0].Min)
	assert.Equal(t, -10.0, *def.Properties[0].Min)
	assert.Nil(t, def.Properties[1].Min)
}

func TestParseRejectsBadDefinitions(t *testing.T) {
	t.Run("MissingGetter", func(t *testing.T) {
		_, err := Parse([]byte("properties:\n  - name: volt\n"))
		assert.ErrorIs(t, err, ErrBadDefinition)
	})

	t.Run("SetterWithoutCapture", func(t *testing.T) {
		_, err := Parse([]byte("properties:\n  - name: volt\n    getter: \"VOLT?\"\n    setter: \"VOLT ON\"\n"))
		assert.ErrorIs(t, err, ErrBadDefinition)
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		_, err := Parse([]byte("properties: [unclosed"))
		assert.Error(t, err)
	})
}

func TestBackendDialogues(t *testing.T) {
	backend := loadTestBackend(t)

	resp, err := backend.Ask("*IDN?")
	require.NoError(t, err)
	assert.Equal(t, "Acme, TM-1, 0001, 1.0", resp)
}

func TestBackendProperties(t *testing.T) {
	backend := loadTestBackend(t)

	t.Run("DefaultValue", func(t *testing.T) {
		resp, err := backend.Ask("VOLT?")
		require.NoError(t, err)
		assert.Equal(t, "0", resp)
	})

	t.Run("WriteThenRead", func(t *testing.T) {
		require.NoError(t, backend.Write("VOLT 2.5"))
		resp, err := backend.Ask("VOLT?")
		require.NoError(t, err)
		assert.Equal(t, "2.5", resp)

		value, ok := backend.Value("volt")
		require.True(t, ok)
		assert.Equal(t, "2.5", value)
	})

	t.Run("LimitsEnforced", func(t *testing.T) {
		assert.ErrorIs(t, backend.Write("VOLT 99"), ErrOutOfLimits)
		assert.ErrorIs(t, backend.Write("VOLT -99"), ErrOutOfLimits)
		assert.ErrorIs(t, backend.Write("VOLT abc"), ErrOutOfLimits)
	})

	t.Run("UnboundedProperty", func(t *testing.T) {
		require.NoError(t, backend.Write("MODE 1"))
		resp, err := backend.Ask("MODE?")
		require.NoError(t, err)
		assert.Equal(t, "1", resp)
	})
}

func TestBackendUnknownCommands(t *testing.T) {
	backend := loadTestBackend(t)

	_, err := backend.Ask("CURR?")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	assert.ErrorIs(t, backend.Write("CURR 1"), ErrUnknownCommand)
}

func TestMatchSetter(t *testing.T) {
	cases := []struct {
		template, cmd string
		value         string
		ok            bool
	}{
		{"VOLT %s", "VOLT 1.5", "1.5", true},
		{"VOLT %s", "VOLT -3", "-3", true},
		{"smua.source.levelv = %s", "smua.source.levelv = 2", "2", true},
		{"VOLT %s", "CURR 1.5", "", false},
		{"VOLT %s", "VOLT ", "", false},
		{"VOLT %s", "VOLT 1 2", "", false},
	}
	for _, c := range cases {
		value, ok := matchSetter(c.template, c.cmd)
		assert.Equal(t, c.ok, ok, "template %q cmd %q", c.template, c.cmd)
		if c.ok {
			assert.Equal(t, c.value, value)
		}
	}
}
