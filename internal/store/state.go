package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/DaanHessen/pointboard/internal/engine"
)

// DefaultKey is the storage key of the board document.
const DefaultKey = "hst-data-v3"

var errCorrupt = errors.New("state document is not a JSON object")

type itemDoc struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// StateRepo reads and writes the board document. It remembers the last document it
// saw so fields it does not understand survive the next write.
type StateRepo struct {
	kv       KV
	key      string
	defaults []engine.Counter
	now      func() time.Time
	log      *zap.Logger
	raw      []byte
}

type RepoOption func(*StateRepo)

func WithDefaults(items []engine.Counter) RepoOption {
	return func(r *StateRepo) { r.defaults = items }
}
func WithRepoClock(now func() time.Time) RepoOption { return func(r *StateRepo) { r.now = now } }
func WithLogger(l *zap.Logger) RepoOption           { return func(r *StateRepo) { r.log = l } }

func NewStateRepo(kv KV, key string, opts ...RepoOption) *StateRepo {
	if key == "" {
		key = DefaultKey
	}
	r := &StateRepo{kv: kv, key: key, defaults: engine.DefaultCounters(), now: time.Now, log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *StateRepo) Key() string { return r.key }

// Load never fails: a missing or unreadable document yields the default counters.
func (r *StateRepo) Load(ctx context.Context) engine.State {
	st, err := r.LoadErr(ctx)
	if err != nil {
		r.log.Warn("load error", zap.String("key", r.key), zap.Error(err))
		r.raw = nil
	}
	return st
}

// LoadErr is Load that also reports why the defaults were returned. A missing
// document is not an error. On error the last seen document is kept.
func (r *StateRepo) LoadErr(ctx context.Context) (engine.State, error) {
	raw, ok, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return r.defaultState(), wrap(err, "load state")
	}
	if !ok || strings.TrimSpace(raw) == "" {
		r.raw = nil
		return r.defaultState(), nil
	}
	st, err := r.decode([]byte(raw))
	if err != nil {
		return r.defaultState(), err
	}
	r.raw = []byte(raw)
	return st, nil
}

// Save writes the document and stamps st.Updated once the write went through.
// Failures are logged and returned; callers are free to ignore them since the
// next autosave tries again.
func (r *StateRepo) Save(ctx context.Context, st *engine.State) error {
	next := *st
	next.Updated = r.now()
	doc, err := r.encode(next)
	if err != nil {
		r.log.Warn("save error", zap.String("key", r.key), zap.Error(err))
		return err
	}
	if err := r.kv.Set(ctx, r.key, string(doc)); err != nil {
		r.log.Warn("save error", zap.String("key", r.key), zap.Error(err))
		return wrap(err, "save state")
	}
	st.Updated = next.Updated
	r.raw = doc
	return nil
}

func (r *StateRepo) defaultState() engine.State {
	return engine.State{Items: cloneCounters(r.defaults)}
}

func (r *StateRepo) decode(raw []byte) (engine.State, error) {
	if !gjson.ValidBytes(raw) {
		return engine.State{}, errCorrupt
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return engine.State{}, errCorrupt
	}
	var st engine.State
	if items := doc.Get("items"); items.IsArray() {
		st.Items = []engine.Counter{}
		items.ForEach(func(i, v gjson.Result) bool {
			if !v.IsObject() {
				r.log.Warn("dropped item", zap.String("key", r.key), zap.Int64("index", i.Int()), zap.String("raw", v.Raw))
				return true
			}
			c := engine.Counter{ID: v.Get("id").String(), Name: v.Get("name").String()}
			if p := v.Get("points"); p.Exists() {
				c.Points = int(p.Int())
				if p.Type != gjson.Number || float64(c.Points) != p.Float() {
					r.log.Warn("coerced points", zap.String("key", r.key), zap.String("counter", c.ID), zap.String("raw", p.Raw), zap.Int("points", c.Points))
				}
			}
			if c.Points < 0 {
				c.Points = 0
			}
			st.Items = append(st.Items, c)
			return true
		})
	} else {
		st.Items = cloneCounters(r.defaults)
	}
	if u := doc.Get("updated"); u.Type == gjson.Number {
		st.Updated = time.UnixMilli(u.Int())
	}
	return st, nil
}

// encode patches the last seen document in place of re-marshalling it, so unknown
// top-level and per-item fields are written back verbatim.
func (r *StateRepo) encode(st engine.State) ([]byte, error) {
	doc := []byte("{}")
	if len(r.raw) > 0 {
		doc = append([]byte(nil), r.raw...)
	}
	var err error
	if prior := gjson.GetBytes(doc, "items"); sameShape(prior, st.Items) {
		for i, c := range st.Items {
			base := fmt.Sprintf("items.%d.", i)
			if doc, err = sjson.SetBytes(doc, base+"id", c.ID); err != nil {
				return nil, errors.Wrap(err, "encode id")
			}
			if doc, err = sjson.SetBytes(doc, base+"name", c.Name); err != nil {
				return nil, errors.Wrap(err, "encode name")
			}
			if doc, err = sjson.SetBytes(doc, base+"points", c.Points); err != nil {
				return nil, errors.Wrap(err, "encode points")
			}
		}
	} else {
		items := make([]itemDoc, len(st.Items))
		for i, c := range st.Items {
			items[i] = itemDoc{ID: c.ID, Name: c.Name, Points: c.Points}
		}
		if doc, err = sjson.SetBytes(doc, "items", items); err != nil {
			return nil, errors.Wrap(err, "encode items")
		}
	}
	if doc, err = sjson.SetBytes(doc, "updated", st.Updated.UnixMilli()); err != nil {
		return nil, errors.Wrap(err, "encode updated")
	}
	return doc, nil
}

// sameShape reports whether prior is an array of objects lined up with items.
func sameShape(prior gjson.Result, items []engine.Counter) bool {
	if !prior.IsArray() {
		return false
	}
	arr := prior.Array()
	if len(arr) != len(items) {
		return false
	}
	for _, v := range arr {
		if !v.IsObject() {
			return false
		}
	}
	return true
}

func cloneCounters(in []engine.Counter) []engine.Counter {
	out := make([]engine.Counter, len(in))
	copy(out, in)
	return out
}
