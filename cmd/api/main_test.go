package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/formcollector/api/internal/server"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingCommand(err error) *cobra.Command {
	cmd := &cobra.Command{
		Use:  "fail",
		RunE: func(*cobra.Command, []string) error { return err },
	}
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true
	return cmd
}

func fakeBackend(t *testing.T, closeErr error) *int {
	t.Helper()
	closed := 0
	backend = server.Backend{Close: func(context.Context) error {
		closed++
		return closeErr
	}}
	t.Cleanup(func() { backend = server.Backend{} })
	return &closed
}

func TestExecuteClosesStoreWhenCommandFails(t *testing.T) {
	closed := fakeBackend(t, nil)
	boom := errors.New("sweep failed")

	err := execute(failingCommand(boom))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, *closed)

	require.NoError(t, closeRuntime())
	assert.Equal(t, 1, *closed, "store must be closed only once")
}

func TestExecuteReportsCloseError(t *testing.T) {
	closeErr := errors.New("disconnect timeout")
	closed := fakeBackend(t, closeErr)

	err := execute(failingCommand(nil))

	assert.ErrorIs(t, err, closeErr)
	assert.Equal(t, 1, *closed)
}

func TestExecuteWithoutStore(t *testing.T) {
	backend = server.Backend{}
	assert.NoError(t, execute(failingCommand(nil)))
}
