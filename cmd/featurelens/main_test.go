package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// writeConfig points the log file into a temp dir so tests leave nothing behind
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := "[log]\nfile = " + `"` + filepath.ToSlash(filepath.Join(dir, "featurelens.log")) + `"` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSearchCommandScansRegions(t *testing.T) {
	cfgFile := writeConfig(t)

	out, err := execute(t, "search", "brca",
		"--config", cfgFile, "--session", "testdata/session.yaml",
		"--assembly", "GRCh38", "--track", "gencode.gff3")
	require.NoError(t, err)

	assert.Contains(t, out, `2 result(s) for "brca"`)
	assert.Contains(t, out, "via range")
	assert.Contains(t, out, "BRCA2")
	assert.Contains(t, out, "chr13:1000000-2000000")
	assert.Contains(t, out, "BRCA1")
}

func TestSearchCommandUsesTextIndex(t *testing.T) {
	cfgFile := writeConfig(t)

	out, err := execute(t, "search", "tp5",
		"--config", cfgFile, "--session", "testdata/session.yaml",
		"--assembly", "hg38", "--track", "refseq.gff3.gz")
	require.NoError(t, err)

	assert.Contains(t, out, "via index")
	assert.Contains(t, out, "TP53")
	assert.Contains(t, out, "chr17:2499995-2520005")
}

func TestShortQueriesAreRejected(t *testing.T) {
	cfgFile := writeConfig(t)

	for _, sub := range []string{"search", "content"} {
		t.Run(sub, func(t *testing.T) {
			_, err := execute(t, sub, " ab ",
				"--config", cfgFile, "--session", "testdata/session.yaml",
				"--assembly", "hg38", "--track", "gencode.gff3")
			require.Error(t, err)
			assert.ErrorIs(t, err, errShortQuery)
		})
	}
}

func TestContentCommand(t *testing.T) {
	cfgFile := writeConfig(t)

	out, err := execute(t, "content", "brca1",
		"--config", cfgFile, "--session", "testdata/session.yaml",
		"--assembly", "hg38", "--track", "gencode.gff3", "--mode", "image")
	require.NoError(t, err)

	assert.Contains(t, out, "Feature Content - gene:BRCA1")
	assert.Contains(t, out, "brca1_structure.png,brca1_domains.png,brca1_exon1.png")
	assert.Contains(t, out, "structure,structure,exons")
	assert.Contains(t, out, "diagram,diagram,unknown")
}

func TestContentCommandTextMode(t *testing.T) {
	cfgFile := writeConfig(t)

	out, err := execute(t, "content", "brca1",
		"--config", cfgFile, "--session", "testdata/session.yaml",
		"--assembly", "hg38", "--track", "gencode.gff3", "--mode", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "docs/brca1.md,docs/brca1_exon1.md")
	assert.Contains(t, out, "no description,First exon")
}

func TestContentCommandWithoutMatch(t *testing.T) {
	cfgFile := writeConfig(t)

	_, err := execute(t, "content", "zzz9",
		"--config", cfgFile, "--session", "testdata/session.yaml",
		"--assembly", "hg38", "--track", "gencode.gff3", "--mode", "image")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching features")
}

func TestTracksCommand(t *testing.T) {
	cfgFile := writeConfig(t)

	out, err := execute(t, "tracks", "--config", cfgFile, "--session", "testdata/session.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "Human (GRCh38)")
	assert.Contains(t, out, "gencode.gff3")
	assert.Contains(t, out, "refseq.gff3.gz")
	assert.NotContains(t, out, "alignments.bam")
}

func TestConfigInitWritesFile(t *testing.T) {
	cfgFile := writeConfig(t)

	out, err := execute(t, "config", "init", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+cfgFile)

	data, err := os.ReadFile(cfgFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_results = 5")
}
