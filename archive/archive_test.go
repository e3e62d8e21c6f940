package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovidgoyal/npspec"
	"github.com/kovidgoyal/npspec/colorimetry"
	"github.com/kovidgoyal/npspec/config"
)

func sample_run() *Run {
	c := config.Default()
	c.Particle.Materials = []string{"Au", "Ag"}
	c.Particle.Layers = 2
	c.Particle.RelativeRadii = []float64{0.4, 0.6}
	result := npspec.NewSpectrum()
	result.Status = npspec.SizeWarning
	result.Type = npspec.Molar
	for i := range result.Extinction {
		result.Extinction[i] = float64(i) * 1.5
		result.Scattering[i] = float64(i) / 2
		result.Absorption[i] = float64(i)
	}
	rgb := colorimetry.RGB{R: 1, G: 0.5, B: 0.25}
	return &Run{
		Created:  time.Unix(1700000000, 12345),
		Source:   "test",
		Particle: c.Particle,
		Spectrum: c.Spectrum,
		Status:   npspec.SizeWarning,
		RGB:      rgb,
		HSV:      rgb.HSV(),
		Result:   result,
	}
}

func open_store(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRoundTrip(t *testing.T) {
	s := open_store(t)
	run := sample_run()
	require.NoError(t, s.Save(run))
	require.NotEqual(t, uuid.Nil, run.ID)

	got, err := s.Get(run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Fatalf("archived run differs (-saved +loaded):\n%s", diff)
	}

	failed := &Run{Source: "test", Particle: run.Particle, Spectrum: run.Spectrum, Status: npspec.InvalidRadius, Error: "radius must be positive"}
	require.NoError(t, s.Save(failed))
	assert.False(t, failed.Created.IsZero())
	got, err = s.Get(failed.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Result)
	assert.Equal(t, npspec.InvalidRadius, got.Status)
	assert.Equal(t, "radius must be positive", got.Error)
}

func TestListAndDelete(t *testing.T) {
	s := open_store(t)
	var ids []uuid.UUID
	for i := range 3 {
		run := sample_run()
		run.Created = run.Created.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Save(run))
		ids = append(ids, run.ID)
	}
	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "#FF8040", all[0].Color)
	assert.Equal(t, npspec.SizeWarning, all[0].Status)

	recent, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	require.NoError(t, s.Delete(ids[1]))
	assert.ErrorIs(t, s.Delete(ids[1]), ErrNotFound)
	_, err = s.Get(ids[1])
	assert.ErrorIs(t, err, ErrNotFound)
	all, err = s.List(-1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	run := sample_run()
	require.NoError(t, s.Save(run))
	// saving again replaces
	run.Source = "again"
	require.NoError(t, s.Save(run))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "again", got.Source)
	all, err := s.List(0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemory(t *testing.T) {
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Save(sample_run()))
	all, err := s.List(10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
