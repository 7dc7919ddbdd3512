package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/onestep/internal/adapters/llm"
	"github.com/PabloGalante/onestep/internal/adapters/storage/memory"
	"github.com/PabloGalante/onestep/internal/app/journal"
	"github.com/PabloGalante/onestep/internal/app/session"
	"github.com/PabloGalante/onestep/internal/config"
	"github.com/PabloGalante/onestep/internal/domain"
)

func TestChatCompletesTaskIntoJournal(t *testing.T) {
	var out bytes.Buffer
	j := journal.NewService(memory.NewJournalStore(), memory.NewUsageStore())
	c := newChat(&out, j)

	sess := session.New(llm.NewGenerator(llm.NewMockLLM()), j, session.Options{OnChange: c.onChange})
	t.Cleanup(sess.Close)

	in := strings.NewReader(strings.Join([]string{
		"how do I even start?",
		"clean my room",
		"ok I'm done for today",
		"yep",
		"/journal",
		"/quit",
		"never read",
	}, "\n"))

	require.NoError(t, c.run(context.Background(), sess, in))

	got := out.String()
	assert.Contains(t, got, "sounds like a question")
	assert.Contains(t, got, "onestep> ok! first tiny step")
	assert.Contains(t, got, "feel like that's enough for today")
	assert.Contains(t, got, session.SavedNotice)
	assert.NotContains(t, got, "[SESSION_COMPLETE]")
	assert.Contains(t, got, "clean my room")

	entries, err := j.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, sess.Task())
}

func TestChatPrintsAsyncMessagesOnce(t *testing.T) {
	var out bytes.Buffer
	c := newChat(&out, journal.NewService(nil, nil))

	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "laundry"},
		{Role: domain.RoleAssistant, Content: "grab one sock"},
	}
	c.onChange(domain.View{Messages: msgs})
	c.onChange(domain.View{Messages: msgs})
	c.onChange(domain.View{Messages: append(msgs, domain.Message{Role: domain.RoleAssistant, Content: "how's it going?"})})

	assert.Equal(t, "onestep> grab one sock\nonestep> how's it going?\n", out.String())
}

func TestChatIgnoresStaleViews(t *testing.T) {
	var out bytes.Buffer
	c := newChat(&out, journal.NewService(nil, nil))

	older := []domain.Message{
		{Role: domain.RoleUser, Content: "laundry"},
		{Role: domain.RoleAssistant, Content: "grab one sock"},
	}
	newer := append(append([]domain.Message(nil), older...),
		domain.Message{Role: domain.RoleUser, Content: "got it"},
		domain.Message{Role: domain.RoleAssistant, Content: "now the shirts"},
	)

	c.onChange(domain.View{Messages: newer})
	c.onChange(domain.View{Messages: older})
	c.onChange(domain.View{Messages: newer})

	assert.Equal(t, "onestep> grab one sock\nonestep> now the shirts\n", out.String())
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		stepSmaller, stepTaskType, stepDone = "", "", nil
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStepCommand(t *testing.T) {
	t.Setenv("ONESTEP_LLM_BACKEND", "mock")

	out, err := runRoot(t, "step", "write", "my", "essay", "--type", "writing")
	require.NoError(t, err)
	assert.Contains(t, out, "👉 open the file and read the first line")
	assert.Contains(t, out, "why:")
}

func TestJournalCommandsAgainstSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ONESTEP_STORAGE_BACKEND", "sqlite")
	t.Setenv("ONESTEP_DATA_DIR", dir)

	cfg, err := config.Load("")
	require.NoError(t, err)
	st, err := openStores(context.Background(), cfg)
	require.NoError(t, err)
	e := &domain.JournalEntry{ID: "win-1", Task: "file taxes", MessageCount: 8, Date: "2026-03-02"}
	require.NoError(t, st.journalService().Record(context.Background(), e))
	require.NoError(t, st.close())

	out, err := runRoot(t, "journal", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "file taxes")
	assert.Contains(t, out, "win-1")

	out, err = runRoot(t, "journal", "rm", "win-1")
	require.NoError(t, err)
	assert.Contains(t, out, "removed win-1")

	out, err = runRoot(t, "journal", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no wins yet")
}

func TestStepRefusesRemoteBackend(t *testing.T) {
	t.Setenv("ONESTEP_LLM_BACKEND", "remote")
	t.Setenv("ONESTEP_REMOTE_URL", "http://127.0.0.1:1")

	_, err := runRoot(t, "step", "laundry")
	assert.ErrorIs(t, err, errNoDirectModel)
}
