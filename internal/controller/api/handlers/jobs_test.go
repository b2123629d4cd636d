package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venkmine/proxx/internal/core/coordinator"
)

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	return se.GetStatus()
}

func TestCommandResultAccepted(t *testing.T) {
	out, err := commandResult("pause", nil)
	require.NoError(t, err)
	assert.True(t, out.Body.Success)
	assert.Equal(t, "pause accepted", out.Body.Message)
}

func TestCommandResultStillQueued(t *testing.T) {
	cmdErr := &coordinator.OperationError{JobID: "spec-1", Op: "pause", Err: coordinator.ErrStillQueued}
	out, err := commandResult("pause", cmdErr)
	assert.Nil(t, out)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}

func TestCommandResultUnknownJob(t *testing.T) {
	cmdErr := &coordinator.OperationError{JobID: "nope", Op: "cancel", Err: coordinator.ErrUnknownJob}
	out, err := commandResult("cancel", cmdErr)
	assert.Nil(t, out)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestCommandResultEngineFailure(t *testing.T) {
	cmdErr := &coordinator.OperationError{JobID: "j1", Op: "start", Err: errors.New("rpc timeout")}
	out, err := commandResult("start", cmdErr)
	assert.Nil(t, out)
	assert.Equal(t, http.StatusBadGateway, statusOf(t, err))
}
