package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmichie/greenie/internal/config"
	"github.com/mmichie/greenie/pkg/agent"
	"github.com/mmichie/greenie/pkg/store"
)

func TestReadInput(t *testing.T) {
	got, err := readInput([]string{" how ", "do", "bees fly "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "how  do bees fly", got)

	got, err = readInput(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	path := filepath.Join(t.TempDir(), "stdin")
	require.NoError(t, os.WriteFile(path, []byte("  piped question\n"), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	got, err = readInput(nil, f)
	require.NoError(t, err)
	assert.Equal(t, "piped question", got)

	assert.EqualError(t, checkEmptyInput(""), "no input provided")
	assert.NoError(t, checkEmptyInput("x"))
}

func TestLoadImage(t *testing.T) {
	img, err := loadImage("")
	require.NoError(t, err)
	assert.Nil(t, img)

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = loadImage(empty)
	assert.Error(t, err)

	_, err = loadImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestPrintSessions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSessions(&buf, nil))
	assert.Equal(t, "No sessions found.\n", buf.String())

	buf.Reset()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	require.NoError(t, printSessions(&buf, []store.Session{{ID: "s1", UserID: "u1", Title: "Bees", CreatedAt: created}}))
	assert.Contains(t, buf.String(), "ID")
	assert.Contains(t, buf.String(), "s1")
	assert.Contains(t, buf.String(), "2024-05-01 10:00:00")
	assert.Contains(t, buf.String(), "Bees")
}

func TestPrintMessages(t *testing.T) {
	var buf bytes.Buffer
	printMessages(&buf, nil)
	assert.Equal(t, "No messages found.\n", buf.String())

	buf.Reset()
	printMessages(&buf, []store.Message{
		{Role: store.RoleUser, Content: "What is this?", ImagePath: "uploads/fern.png"},
		{Role: store.RoleAssistant, Content: "A fern."},
	})
	assert.Contains(t, buf.String(), "user:\nWhat is this?\n(image: uploads/fern.png)")
	assert.Contains(t, buf.String(), "assistant:\nA fern.")
}

func TestPrintTrace(t *testing.T) {
	var buf bytes.Buffer
	printTrace(&buf, agent.Trace{
		Plan:  agent.PlanResult{Plan: agent.FallbackPlan(), Err: errors.New("model unavailable")},
		Draft: agent.ExecResult{Response: "draft"},
		Final: agent.EvalResult{Response: "final"},
	})

	out := buf.String()
	assert.Contains(t, out, "== Plan ==\n(degraded: model unavailable)\n"+agent.FallbackInstructions)
	assert.Contains(t, out, "== Draft ==\ndraft")
	assert.Contains(t, out, "== Answer ==\nfinal")
}

func TestModelsCommand(t *testing.T) {
	SetConfig(&config.Config{Gemini: config.GeminiConfig{Model: "gemini-1.5-pro"}})
	defer SetConfig(nil)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runModelsCommand(cmd, nil))
	assert.Equal(t, "  gemini-1.5-flash\n* gemini-1.5-pro\n", buf.String())
}

func TestNewAppRequiresConfig(t *testing.T) {
	SetConfig(nil)
	_, err := newApp(context.Background(), appOptions{})
	assert.EqualError(t, err, "configuration not loaded")
}

func TestNewApp(t *testing.T) {
	dir := t.TempDir()
	SetConfig(&config.Config{
		Gemini:   config.GeminiConfig{Model: "gemini-1.5-flash"},
		Search:   config.SearchConfig{ResultCount: 5},
		Database: config.DatabaseConfig{Path: filepath.Join(dir, "chat.db")},
		Log:      config.LogConfig{Dir: filepath.Join(dir, "logs"), Level: "info"},
	})
	defer SetConfig(nil)

	a, err := newApp(context.Background(), appOptions{})
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.gemini.Available())
	assert.True(t, a.history.Enabled())
	assert.Equal(t, agent.ApologyMessage, a.pipeline.Run(context.Background(), "hello", nil))
}
