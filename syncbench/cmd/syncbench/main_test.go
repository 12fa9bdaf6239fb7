package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/yaml.v2"

	"gitlab.com/slon/qsync/syncbench"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRootCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", "../../testdata/scenarios.yaml", "--format", "yaml", "--log-level", "error"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))

	var reports []syncbench.Report
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &reports))
	require.Len(t, reports, 4)
	for _, r := range reports {
		require.True(t, r.OK(), "%s: %v", r.Scenario, r.Violations)
	}
}

func TestRootCmd_RequiresConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	require.Error(t, cmd.Execute())
}

func TestRootCmd_BadLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", "../../testdata/scenarios.yaml", "--log-level", "loud"})
	require.Error(t, cmd.Execute())
}
