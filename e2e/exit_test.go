//go:build e2e && unix

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplicationExit(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	_, err := tf.CreateTestWorkspace()
	require.NoError(t, err)
	require.NoError(t, tf.StartApp())
	require.True(t, tf.Ready(), "Should render the first frame")

	done := make(chan error, 1)
	go func() {
		done <- tf.cmd.Wait()
	}()

	require.NoError(t, tf.Quit())

	select {
	case exitErr := <-done:
		require.NoError(t, exitErr, "q should exit cleanly")
	case <-time.After(3 * time.Second):
		tf.SendCtrlC()
		t.Fatal("application did not exit on q")
	}
	tf.cmd = nil
}

func TestCtrlCExitsFromSearchBox(t *testing.T) {
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

	done := make(chan error, 1)
	go func() {
		done <- tf.cmd.Wait()
	}()

	// q is text inside the search box
	require.NoError(t, tf.Type("q"))
	select {
	case <-done:
		t.Fatal("q in the search box must not quit")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, tf.SendCtrlC())
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("application did not exit on ctrl+c")
	}
	tf.cmd = nil
}
