package directory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	dir := New(map[string]string{"m1": "ContosoRack", "m2": "NordicFrost"})

	brand, err := dir.Lookup("m1")
	require.NoError(t, err)
	assert.Equal(t, "ContosoRack", brand)

	_, err = dir.Lookup("ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownMachine)
}

func TestNewCopiesInput(t *testing.T) {
	src := map[string]string{"m1": "ContosoRack"}
	dir := New(src)
	src["m1"] = "mutated"

	brand, err := dir.Lookup("m1")
	require.NoError(t, err)
	assert.Equal(t, "ContosoRack", brand)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machines.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"m1":"ContosoRack","m9":"ApexThermal"}`), 0o644))

	dir, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, dir.Len())
	assert.Equal(t, []string{"m1", "m9"}, dir.MachineIDs())
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}
