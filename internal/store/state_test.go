package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DaanHessen/pointboard/internal/engine"
)

type failingKV struct{ getErr, setErr error }

func (f failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, f.getErr
}
func (f failingKV) Set(ctx context.Context, key, value string) error { return f.setErr }

var fixedNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

func repoFor(kv KV) *StateRepo {
	return NewStateRepo(kv, DefaultKey, WithRepoClock(func() time.Time { return fixedNow }))
}

func TestLoadMissingYieldsDefaults(t *testing.T) {
	st := repoFor(NewMemoryKV()).Load(context.Background())
	assert.Equal(t, engine.DefaultCounters(), st.Items)
	assert.True(t, st.Updated.IsZero())
}

func TestLoadCorruptYieldsDefaults(t *testing.T) {
	for _, raw := range []string{"{not json", "[1,2,3]", "42", `"items"`} {
		t.Run(raw, func(t *testing.T) {
			kv := NewMemoryKV()
			require.NoError(t, kv.Set(context.Background(), DefaultKey, raw))
			st := repoFor(kv).Load(context.Background())
			assert.Equal(t, engine.DefaultCounters(), st.Items)
		})
	}
}

func TestLoadStorageErrorYieldsDefaults(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewStateRepo(failingKV{getErr: errors.New("disk gone")}, DefaultKey, WithLogger(zap.New(core)))
	st := r.Load(context.Background())
	assert.Len(t, st.Items, 5)
	assert.Equal(t, 1, logs.FilterMessage("load error").Len())
}

func TestLoadWithoutItemsPopulatesDefaultsAndKeepsFields(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, DefaultKey, `{"owner":"office","updated":1700000000000}`))
	r := repoFor(kv)

	st := r.Load(ctx)
	assert.Equal(t, engine.DefaultCounters(), st.Items)
	assert.Equal(t, int64(1700000000000), st.Updated.UnixMilli())

	require.NoError(t, r.Save(ctx, &st))
	raw, _, _ := kv.Get(ctx, DefaultKey)
	assert.Equal(t, "office", gjson.Get(raw, "owner").String())
	assert.Equal(t, int64(5), gjson.Get(raw, "items.#").Int())
}

func TestLoadClampsNegativePoints(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, DefaultKey, `{"items":[{"id":"gradeA","name":"A","points":-4}]}`))
	st := repoFor(kv).Load(ctx)
	require.Len(t, st.Items, 1)
	assert.Equal(t, 0, st.Items[0].Points)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	r := repoFor(kv)

	sess := engine.NewSession(r.Load(ctx))
	_, _ = sess.Increment("gradeA", 12)
	_, _ = sess.Increment("gradeD", 3)
	st := sess.State()
	require.NoError(t, r.Save(ctx, &st))
	assert.Equal(t, fixedNow, st.Updated)

	again := repoFor(kv).Load(ctx)
	assert.Equal(t, st.Items, again.Items)
	assert.True(t, fixedNow.Equal(again.Updated))

	// a second save with nothing changed reads back the same list
	require.NoError(t, r.Save(ctx, &again))
	assert.Equal(t, again.Items, repoFor(kv).Load(ctx).Items)
}

func TestSavePreservesUnknownFields(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	doc := `{"theme":"dark","items":[{"id":"gradeA","name":"A","points":1,"color":"red"},{"id":"school","name":"All","points":1}],"updated":1,"meta":{"v":2}}`
	require.NoError(t, kv.Set(ctx, DefaultKey, doc))
	r := repoFor(kv)

	st := r.Load(ctx)
	st.Items[0].Points = 9
	require.NoError(t, r.Save(ctx, &st))

	raw, _, _ := kv.Get(ctx, DefaultKey)
	assert.Equal(t, "dark", gjson.Get(raw, "theme").String())
	assert.Equal(t, int64(2), gjson.Get(raw, "meta.v").Int())
	assert.Equal(t, "red", gjson.Get(raw, "items.0.color").String())
	assert.Equal(t, int64(9), gjson.Get(raw, "items.0.points").Int())
	assert.Equal(t, fixedNow.UnixMilli(), gjson.Get(raw, "updated").Int())
}

func TestSaveErrorIsLoggedAndReturned(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewStateRepo(failingKV{setErr: errors.New("quota exceeded")}, DefaultKey, WithLogger(zap.New(core)))
	st := engine.DefaultState()
	err := r.Save(context.Background(), &st)
	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("save error").Len())
	assert.True(t, st.Updated.IsZero(), "a failed write must not look saved")

	earlier := fixedNow.Add(-2 * time.Hour)
	st.Updated = earlier
	require.Error(t, r.Save(context.Background(), &st))
	assert.Equal(t, earlier, st.Updated)
}

func TestSaveStampsUpdatedOnSuccess(t *testing.T) {
	st := engine.DefaultState()
	require.NoError(t, repoFor(NewMemoryKV()).Save(context.Background(), &st))
	assert.Equal(t, fixedNow, st.Updated)
}

// flakyKV fails the next n reads.
type flakyKV struct {
	*MemoryKV
	failGets int
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGets > 0 {
		f.failGets--
		return "", false, errors.New("connection reset")
	}
	return f.MemoryKV.Get(ctx, key)
}

func TestLoadErrReportsReadFailure(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{MemoryKV: NewMemoryKV()}
	require.NoError(t, kv.Set(ctx, DefaultKey, `{"owner":"office","items":[{"id":"gradeA","name":"A","points":4}]}`))
	r := repoFor(kv)
	_, err := r.LoadErr(ctx)
	require.NoError(t, err)

	kv.failGets = 1
	st, err := r.LoadErr(ctx)
	assert.Error(t, err)
	assert.Equal(t, engine.DefaultCounters(), st.Items)

	// the document seen before the failure still backs the next write
	keep := engine.State{Items: []engine.Counter{{ID: "gradeA", Name: "A", Points: 5}}}
	require.NoError(t, r.Save(ctx, &keep))
	raw, _, _ := kv.Get(ctx, DefaultKey)
	assert.Equal(t, "office", gjson.Get(raw, "owner").String())
	assert.Equal(t, int64(5), gjson.Get(raw, "items.0.points").Int())
}

func TestLoadErrMissingIsNotAnError(t *testing.T) {
	st, err := repoFor(NewMemoryKV()).LoadErr(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultCounters(), st.Items)
}

func TestLoadErrCorruptIsAnError(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, DefaultKey, "{not json"))
	_, err := repoFor(kv).LoadErr(ctx)
	assert.Error(t, err)
}

func TestLoadWarnsOnDroppedOrCoercedItems(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, DefaultKey,
		`{"items":[{"id":"gradeA","name":"A","points":2.7},5,{"id":"gradeB","name":"B","points":"3"},{"id":"gradeC","name":"C","points":4}]}`))
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewStateRepo(kv, DefaultKey, WithLogger(zap.New(core)))

	st := r.Load(ctx)
	require.Len(t, st.Items, 3)
	assert.Equal(t, 2, st.Items[0].Points)
	assert.Equal(t, 3, st.Items[1].Points)
	assert.Equal(t, 4, st.Items[2].Points)
	assert.Equal(t, 1, logs.FilterMessage("dropped item").Len())
	assert.Equal(t, 2, logs.FilterMessage("coerced points").Len())
	assert.Zero(t, logs.FilterMessage("load error").Len())
}

func TestSaveAtZeroStillPersists(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	r := repoFor(kv)
	sess := engine.NewSession(r.Load(ctx))
	_, err := sess.Increment("gradeB", -1)
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, sess.StatePtr()))
	raw, ok, _ := kv.Get(ctx, DefaultKey)
	require.True(t, ok)
	assert.Equal(t, int64(0), gjson.Get(raw, "items.1.points").Int())
}
