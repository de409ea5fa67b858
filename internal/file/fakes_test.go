package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abduss/storeit/internal/auth"
	"github.com/abduss/storeit/internal/bucket"
	"github.com/google/uuid"
)

var (
	alice = auth.Requester{ID: "user-a", Email: "a@x.com", AccountID: "acct-a"}
	bob   = auth.Requester{ID: "user-b", Email: "b@x.com", AccountID: "acct-b"}
	carol = auth.Requester{ID: "user-c", Email: "c@x.com", AccountID: "acct-c"}
)

type fakeRepo struct {
	mu        sync.Mutex
	records   map[uuid.UUID]Record
	now       time.Time
	createErr error
	listErr   error
	deleteErr error
	creates   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records: map[uuid.UUID]Record{},
		now:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *fakeRepo) tick() time.Time {
	r.now = r.now.Add(time.Second)
	return r.now
}

// seed stores rec as-is, assigning an id when missing.
func (r *fakeRepo) seed(rec Record) Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = r.tick()
	}
	if rec.Users == nil {
		rec.Users = []string{}
	}
	r.records[rec.ID] = rec
	return rec
}

func (r *fakeRepo) Create(_ context.Context, rec Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return Record{}, r.createErr
	}
	rec.ID = uuid.New()
	rec.CreatedAt = r.tick()
	rec.UpdatedAt = rec.CreatedAt
	r.records[rec.ID] = rec
	return rec, nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrFileNotFound
	}
	return rec, nil
}

func (r *fakeRepo) List(ctx context.Context, q Query) ([]Record, error) {
	records := []Record{}
	err := r.Each(ctx, q, func(rec Record) error {
		records = append(records, rec)
		return nil
	})
	return records, err
}

func (r *fakeRepo) Each(_ context.Context, q Query, fn func(Record) error) error {
	r.mu.Lock()
	if r.listErr != nil {
		r.mu.Unlock()
		return r.listErr
	}
	var matched []Record
	for _, rec := range r.records {
		if matchesAll(rec, q.Where) {
			matched = append(matched, rec)
		}
	}
	r.mu.Unlock()

	if q.Order.Field != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			c := compareField(matched[i], matched[j], q.Order.Field)
			if c == 0 {
				c = strings.Compare(matched[i].ID.String(), matched[j].ID.String())
			}
			if q.Order.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	for _, rec := range matched {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) UpdateName(_ context.Context, id uuid.UUID, name string) (Record, error) {
	return r.update(id, func(rec *Record) { rec.Name = name })
}

func (r *fakeRepo) UpdateUsers(_ context.Context, id uuid.UUID, users []string) (Record, error) {
	return r.update(id, func(rec *Record) { rec.Users = append([]string{}, users...) })
}

func (r *fakeRepo) update(id uuid.UUID, apply func(*Record)) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrFileNotFound
	}
	apply(&rec)
	rec.UpdatedAt = r.tick()
	r.records[id] = rec
	return rec, nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return Record{}, r.deleteErr
	}
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrFileNotFound
	}
	delete(r.records, id)
	return rec, nil
}

func matchesAll(rec Record, preds []Predicate) bool {
	for _, p := range preds {
		if !matches(rec, p) {
			return false
		}
	}
	return true
}

func matches(rec Record, p Predicate) bool {
	switch p := p.(type) {
	case EqualPredicate:
		v := textField(rec, p.Field)
		for _, want := range p.Values {
			if v == want {
				return true
			}
		}
		return false
	case ContainsPredicate:
		if p.Field == FieldUsers {
			for _, u := range rec.Users {
				if u == p.Value {
					return true
				}
			}
			return false
		}
		return strings.Contains(textField(rec, p.Field), p.Value)
	case OrPredicate:
		for _, child := range p.Preds {
			if matches(rec, child) {
				return true
			}
		}
		return false
	default:
		panic(fmt.Sprintf("unexpected predicate %T", p))
	}
}

func textField(rec Record, f Field) string {
	switch f {
	case FieldOwner:
		return rec.Owner
	case FieldType:
		return string(rec.Type)
	case FieldName:
		return rec.Name
	default:
		panic("not a text field: " + string(f))
	}
}

func compareField(a, b Record, f Field) int {
	switch f {
	case FieldName, FieldType:
		return strings.Compare(textField(a, f), textField(b, f))
	case FieldSize:
		return int(a.Size - b.Size)
	case FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
}

type fakeBucket struct {
	mu           sync.Mutex
	objects      map[string][]byte
	createErr    error
	sizeErr      error
	deleteErr    error
	reportedSize int64
	deleted      []string
	calls        []string
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, reportedSize: -1}
}

func (b *fakeBucket) CreateFile(_ context.Context, reader io.Reader, name string, _ int64, _ string) (bucket.StoredObject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "create")
	if b.createErr != nil {
		return bucket.StoredObject{}, b.createErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return bucket.StoredObject{}, err
	}
	id := bucket.NewObjectID()
	b.objects[id] = data
	if b.sizeErr != nil {
		return bucket.StoredObject{ID: id, Name: name}, b.sizeErr
	}
	size := int64(len(data))
	if b.reportedSize >= 0 {
		size = b.reportedSize
	}
	return bucket.StoredObject{ID: id, Name: name, Size: size}, nil
}

func (b *fakeBucket) DeleteFile(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "delete")
	if id == "" {
		return bucket.ErrEmptyObjectID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deleted = append(b.deleted, id)
	delete(b.objects, id)
	return nil
}

func (b *fakeBucket) OpenFile(_ context.Context, id string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[id]
	if !ok {
		return nil, bucket.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBucket) URL(id string) string {
	return bucket.DownloadURL("http://files.test", "storeit", id)
}

func (b *fakeBucket) has(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[id]
	return ok
}

var errBoom = errors.New("boom")
