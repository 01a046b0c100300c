package crawl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadSeeds(t *testing.T) {
	input := `
# portfolio companies
acme.com
https://www.globex.com/careers

  beta.io
`
	seeds, err := ReadSeeds(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []string{"acme.com", "https://www.globex.com/careers", "beta.io"}, seeds)
}

func TestReadSeedsEmpty(t *testing.T) {
	seeds, err := ReadSeeds(strings.NewReader("# only comments\n\n"))
	require.NoError(t, err)
	require.Empty(t, seeds)
}

func TestReadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.txt")
	require.NoError(t, os.WriteFile(path, []byte("acme.com\nbeta.io\n"), 0o600))

	seeds, err := ReadSeedFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"acme.com", "beta.io"}, seeds)
}

func TestReadSeedFileMissing(t *testing.T) {
	_, err := ReadSeedFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
