package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sitka/services/datatypes"
)

func newTestLog(t *testing.T) (*FallbackLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fallback_events.json")
	return OpenFallbackLog(path, nil), path
}

func TestFallbackLog_AppendAndRecent(t *testing.T) {
	log, _ := newTestLog(t)

	log.Append(datatypes.KindOpenAI, datatypes.KindAnthropic, "AuthError: key rejected")
	log.Append(datatypes.KindAnthropic, datatypes.KindGemini, "TransientServer: overloaded")

	recent := log.Recent()
	require.Len(t, recent, 2)
	// Newest first.
	assert.Equal(t, datatypes.KindAnthropic, recent[0].FromBackend)
	assert.Equal(t, datatypes.KindGemini, recent[0].ToBackend)
	assert.Equal(t, datatypes.KindOpenAI, recent[1].FromBackend)
	assert.NotEmpty(t, recent[0].ID)
	assert.NotEqual(t, recent[0].ID, recent[1].ID)
	assert.False(t, recent[0].Timestamp.Before(recent[1].Timestamp))
}

func TestFallbackLog_StorageCap(t *testing.T) {
	log, _ := newTestLog(t)

	for i := 0; i < 75; i++ {
		log.Append(datatypes.KindOpenAI, datatypes.KindGemini, fmt.Sprintf("reason %d", i))
	}
	assert.Equal(t, maxStoredEvents, log.Len())

	recent := log.Recent()
	require.Len(t, recent, maxReportedEvents)
	// The newest append must be first, the oldest stored must be gone.
	assert.Equal(t, "reason 74", recent[0].Reason)
	assert.Equal(t, "reason 55", recent[maxReportedEvents-1].Reason)
}

func TestFallbackLog_PersistAndReload(t *testing.T) {
	log, path := newTestLog(t)
	log.Append(datatypes.KindGemini, datatypes.KindDeepSeek, "RegionRestricted: not available")

	reloaded := OpenFallbackLog(path, nil)
	recent := reloaded.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, datatypes.KindGemini, recent[0].FromBackend)
	assert.Equal(t, datatypes.KindDeepSeek, recent[0].ToBackend)
	assert.Equal(t, "RegionRestricted: not available", recent[0].Reason)
}

func TestFallbackLog_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback_events.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	log := OpenFallbackLog(path, nil)
	assert.Equal(t, 0, log.Len())

	// Appending must recover the file.
	log.Append(datatypes.KindOpenAI, datatypes.KindAnthropic, "AuthError: key rejected")
	reloaded := OpenFallbackLog(path, nil)
	assert.Equal(t, 1, reloaded.Len())
}

func TestFallbackLog_MissingFileStartsEmpty(t *testing.T) {
	log := OpenFallbackLog(filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.Equal(t, 0, log.Len())
	assert.Empty(t, log.Recent())
}
