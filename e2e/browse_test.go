//go:build e2e && unix

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBrowseToContent(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	_, err := tf.CreateTestWorkspace()
	require.NoError(t, err)
	require.NoError(t, tf.StartApp())

	require.True(t, tf.Ready(), "Should render the assembly pane")
	require.True(t, tf.SeePlain("Human (GRCh38)"), "Should list the assembly")

	require.NoError(t, tf.Enter())
	require.True(t, tf.SeePlain("GENCODE genes"), "Should list compatible tracks")

	require.NoError(t, tf.Enter())
	require.NoError(t, tf.Type("brca"))
	require.NoError(t, tf.WaitForE(func(s string) bool {
		return strings.Contains(ansiRe.ReplaceAllString(s, ""), "1 feature found")
	}, 5*time.Second, "search did not finish"))

	require.NoError(t, tf.Enter())
	require.NoError(t, tf.Enter())
	require.True(t, tf.SeePlain("Feature Content - gene:BRCA1"), "Should title the content pane")
	require.True(t, tf.SeePlain("brca1_structure.png"), "Should show the feature image")

	tf.Reset()
	require.NoError(t, tf.SendKeys(KeyMode))
	require.True(t, tf.SeePlain("docs/brca1.md"), "Should switch to markdown content")
}

func TestShortTermDoesNotSearch(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	_, err := tf.CreateTestWorkspace()
	require.NoError(t, err)
	require.NoError(t, tf.StartApp())
	require.True(t, tf.Ready())

	require.NoError(t, tf.Enter())
	require.True(t, tf.SeePlain("GENCODE genes"))
	require.NoError(t, tf.Enter())
	require.NoError(t, tf.Type("br"))

	time.Sleep(300 * time.Millisecond)
	require.NotContains(t, tf.SnapshotPlain(), "feature found")
	require.NotContains(t, tf.SnapshotPlain(), "No matching features")
}
