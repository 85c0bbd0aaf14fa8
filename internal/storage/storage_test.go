package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/minbar/internal/config"
	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

func customSettings() model.Settings {
	s := config.Default()
	s.Mosque.Name = "Masjid Al-Ikhlas"
	s.Ihtiati = 2
	s.PrayerTimeOffsets[model.Maghrib] = 3
	cfg := s.Audio[model.Subuh]
	cfg.AdzanSrc = "media/adzan-subuh.mp3"
	s.Audio[model.Subuh] = cfg
	return s
}

func TestLocalStorage(t *testing.T) {
	for _, name := range []string{"settings.yaml", "settings.json"} {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			ls := NewLocalStorage(fs, filepath.Join("/etc/minbar", name))
			ctx := context.Background()

			_, err := ls.Load(ctx)
			require.ErrorIs(t, err, ErrNotFound)

			want := customSettings()
			require.NoError(t, ls.Save(ctx, want))

			got, err := ls.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want.Mosque.Name, got.Mosque.Name)
			assert.Equal(t, 3, got.PrayerTimeOffsets[model.Maghrib])
			assert.Equal(t, "media/adzan-subuh.mp3", got.Audio[model.Subuh].AdzanSrc)
			assert.Equal(t, want.Fullscreen.ScreenSaverStart, got.Fullscreen.ScreenSaverStart)

			exists, err := afero.Exists(fs, ls.Path()+".tmp")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestLocalStorageYAMLKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	raw := []byte(`
location:
  latitude: -6.2
  longitude: 106.8
  method: Kemenag
  timezone: Asia/Jakarta
ihtiati: 2
prayerTimeOffsets:
  Isya: 5
fullscreen:
  screenSaverStart: "21:30"
  screenSaverEnd: "03:30"
`)
	require.NoError(t, afero.WriteFile(fs, "/s.yaml", raw, 0o644))

	s, err := NewLocalStorage(fs, "/s.yaml").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Kemenag", s.Location.Method)
	assert.Equal(t, 5, s.PrayerTimeOffsets[model.Isya])
	assert.Equal(t, "21:30", s.Fullscreen.ScreenSaverStart)
}

func TestLoadOrDefault(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()

	s, err := LoadOrDefault(ctx, NewLocalStorage(fs, "/missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), s)

	require.NoError(t, afero.WriteFile(fs, "/broken.yaml", []byte("location: [unclosed"), 0o644))
	_, err = LoadOrDefault(ctx, NewLocalStorage(fs, "/broken.yaml"))
	assert.Error(t, err)

	// partial files are completed from defaults
	require.NoError(t, afero.WriteFile(fs, "/partial.yaml", []byte("ihtiati: 1\n"), 0o644))
	s, err = LoadOrDefault(ctx, NewLocalStorage(fs, "/partial.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Ihtiati)
	assert.Equal(t, "Asia/Jakarta", s.Location.Timezone)
	assert.Len(t, s.Audio, len(model.CanonicalPrayers))
}

type fakeS3 struct {
	s3iface.S3API
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(raw))}, nil
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[*in.Bucket+"/"+*in.Key] = raw
	return &s3.PutObjectOutput{}, nil
}

func TestSpacesStorage(t *testing.T) {
	fake := &fakeS3{}
	ss := &SpacesStorage{client: fake, bucket: "signage", key: "minbar/settings.json"}
	ctx := context.Background()

	_, err := ss.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, ss.Save(ctx, customSettings()))
	assert.Contains(t, fake.objects, "signage/minbar/settings.json")

	got, err := ss.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Ihtiati)
	assert.Equal(t, "Masjid Al-Ikhlas", got.Mosque.Name)
}

func TestWatcherReloadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	ls := NewLocalStorage(afero.NewOsFs(), path)
	ctx := context.Background()
	require.NoError(t, ls.Save(ctx, config.Default()))

	var (
		mu      sync.Mutex
		applied []model.Settings
	)
	current := config.Default()
	w, err := NewWatcher(ls, func(_ context.Context, s model.Settings) error {
		mu.Lock()
		defer mu.Unlock()
		applied = append(applied, s)
		return nil
	}, func() model.Settings { return current })
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop() })

	changed := config.Default()
	changed.Ihtiati = 4
	require.NoError(t, ls.Save(ctx, changed))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(applied) > 0
	}, 3*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, 4, applied[len(applied)-1].Ihtiati)
	mu.Unlock()
}

func TestWatcherSkipsUnchangedSettings(t *testing.T) {
	dir := t.TempDir()
	ls := NewLocalStorage(afero.NewOsFs(), filepath.Join(dir, "settings.yaml"))
	ctx := context.Background()
	require.NoError(t, ls.Save(ctx, config.Default()))

	calls := 0
	w, err := NewWatcher(ls, func(context.Context, model.Settings) error {
		calls++
		return errors.New("should not be called")
	}, config.Default)
	require.NoError(t, err)

	require.NoError(t, w.performReload(ctx))
	assert.Zero(t, calls)
	require.NoError(t, w.watcher.Close())
}

func TestWatcherRejectsMissingDirectory(t *testing.T) {
	ls := NewLocalStorage(afero.NewOsFs(), filepath.Join(os.TempDir(), "minbar-does-not-exist", "settings.yaml"))
	w, err := NewWatcher(ls, func(context.Context, model.Settings) error { return nil }, nil)
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	require.NoError(t, w.watcher.Close())
}
