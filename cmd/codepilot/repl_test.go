package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codepilot/codepilot/internal/session"
)

func TestTruncateForDisplayLeavesShortStringsUntouched(t *testing.T) {
	require.Equal(t, "short", truncateForDisplay("short"))
}

func TestTruncateForDisplayCapsLongStrings(t *testing.T) {
	long := strings.Repeat("a", 500)
	out := truncateForDisplay(long)
	require.True(t, strings.HasSuffix(out, "..."))
	require.Len(t, out, 203)
}

func TestApplyThinkOff(t *testing.T) {
	tc := &thinkConfig{mode: "adaptive"}
	require.NoError(t, applyThink(tc, "off"))
	require.Equal(t, "off", tc.mode)
	require.Equal(t, "off", describeThink(*tc))
}

func TestApplyThinkAdaptive(t *testing.T) {
	tc := &thinkConfig{mode: "off"}
	require.NoError(t, applyThink(tc, "adaptive"))
	require.Equal(t, "adaptive", tc.mode)
	require.Equal(t, "adaptive", describeThink(*tc))
}

func TestApplyThinkFixedBudget(t *testing.T) {
	tc := &thinkConfig{}
	require.NoError(t, applyThink(tc, "4096"))
	require.Equal(t, "fixed", tc.mode)
	require.Equal(t, 4096, tc.budget)
	require.Contains(t, describeThink(*tc), "4096")
}

func TestApplyThinkRejectsBudgetBelowMinimum(t *testing.T) {
	tc := &thinkConfig{mode: "adaptive"}
	err := applyThink(tc, "512")
	require.Error(t, err)
	require.Equal(t, "adaptive", tc.mode)
}

func TestApplyThinkRejectsGarbage(t *testing.T) {
	tc := &thinkConfig{mode: "adaptive"}
	err := applyThink(tc, "banana")
	require.Error(t, err)
}

func TestHandleSlashQuitSignalsExit(t *testing.T) {
	loop := &session.Loop{}
	think := &thinkConfig{mode: "adaptive"}
	done, err := handleSlash(loop, think, "/quit")
	require.NoError(t, err)
	require.True(t, done)
}

func TestHandleSlashClearResetsLoop(t *testing.T) {
	loop := &session.Loop{}
	think := &thinkConfig{mode: "adaptive"}
	done, err := handleSlash(loop, think, "/clear")
	require.NoError(t, err)
	require.False(t, done)
}

func TestHandleSlashModelSwitchesModel(t *testing.T) {
	loop := &session.Loop{Model: "claude-old"}
	think := &thinkConfig{mode: "adaptive"}
	done, err := handleSlash(loop, think, "/model claude-new")
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, "claude-new", loop.Model)
}

func TestHandleSlashThinkUpdatesConfig(t *testing.T) {
	loop := &session.Loop{}
	think := &thinkConfig{mode: "adaptive"}
	done, err := handleSlash(loop, think, "/think 2048")
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, "fixed", think.mode)
	require.Equal(t, 2048, think.budget)
}

func TestHandleSlashUnknownCommandErrors(t *testing.T) {
	loop := &session.Loop{}
	think := &thinkConfig{mode: "adaptive"}
	_, err := handleSlash(loop, think, "/bogus")
	require.Error(t, err)
}
