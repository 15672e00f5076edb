package capconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcornwell/cherimips/config/capconfig"
)

func TestZeroValuePolicyDefaults(t *testing.T) {
	var p capconfig.Policy
	require.Equal(t, "compressed128", p.EncodingOrDefault())
	require.False(t, p.UnalignedAccess)
	require.False(t, p.DiagnoseTypeMismatch)
	require.False(t, p.UnrepresentableDebuggerDrop)
}

func TestLoadParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")
	contents := "encoding = \"uncompressed256\"\nunaligned_access = true\ndiagnose_type_mismatch = true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	p, err := capconfig.Load(path)
	require.NoError(t, err)
	require.Equal(t, "uncompressed256", p.EncodingOrDefault())
	require.True(t, p.UnalignedAccess)
	require.True(t, p.DiagnoseTypeMismatch)
	require.False(t, p.UnrepresentableDebuggerDrop)
}

func TestLoadOptionalMissingFileReturnsDefault(t *testing.T) {
	p, err := capconfig.LoadOptional(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.Equal(t, capconfig.Policy{}, p)
}

func TestLoadMalformedFileWraps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := capconfig.Load(path)
	require.Error(t, err)
}
