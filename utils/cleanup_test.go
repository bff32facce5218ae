package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/yatube/models"
)

func TestPurgeExpiredMedia(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	expired := filepath.Join(dir, "old.gif")
	fresh := filepath.Join(dir, "new.gif")
	require.NoError(t, os.WriteFile(expired, smallGIF, 0o644))
	require.NoError(t, os.WriteFile(fresh, smallGIF, 0o644))

	require.NoError(t, ScheduleMediaDeletion(db, expired, "/media/posts/old.gif", -time.Minute))
	require.NoError(t, ScheduleMediaDeletion(db, fresh, "/media/posts/new.gif", time.Hour))
	require.NoError(t, ScheduleMediaDeletion(db, filepath.Join(dir, "gone.gif"), "/media/posts/gone.gif", -time.Minute))

	n, err := PurgeExpiredMedia(db, time.Now(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = os.Stat(expired)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)

	var left int64
	db.Model(&models.UploadedFile{}).Count(&left)
	assert.EqualValues(t, 1, left)
}
