package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/imagelinker/internal/domain"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/storage"
)

func jpegFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 30, G: 120, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)))
	return buf.Bytes()
}

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 10, B: 10, A: 128})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

type memStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	puts     int
	putErr   error
	signErr  error
	lastType string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: %d != %d", len(data), size)
	}
	s.objects[key] = data
	s.puts++
	s.lastType = contentType
	return nil
}

func (s *memStorage) Get(ctx context.Context, key string) (*storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	return &storage.Object{Body: io.NopCloser(bytes.NewReader(data)), Size: int64(len(data))}, nil
}

func (s *memStorage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return "https://cdn.test/files/" + key + "?sig=ok", nil
}

func (s *memStorage) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type fakeChecker struct {
	mu       sync.Mutex
	statuses map[string]domain.ValidationStatus
	batches  [][]string
	singles  []string
}

func (c *fakeChecker) CheckOne(ctx context.Context, url string) domain.ValidationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.singles = append(c.singles, url)
	if s, ok := c.statuses[url]; ok {
		return s
	}
	return domain.StatusBroken
}

func (c *fakeChecker) CheckBatch(ctx context.Context, urls []string) map[string]domain.ValidationStatus {
	c.mu.Lock()
	c.batches = append(c.batches, urls)
	c.mu.Unlock()

	out := make(map[string]domain.ValidationStatus, len(urls))
	for _, u := range urls {
		if s, ok := c.statuses[u]; ok {
			out[u] = s
		} else {
			out[u] = domain.StatusBroken
		}
	}
	return out
}

type fakeFetcher struct {
	mu      sync.Mutex
	sources map[string]*domain.FetchedSource
	calls   int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*domain.FetchedSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	src, ok := f.sources[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s returned status 404", domain.ErrFetch, url)
	}
	return src, nil
}

type memRepo struct {
	mu      sync.Mutex
	records map[string]*domain.ImageReference
	updates map[string]string
}

func newMemRepo(refs ...domain.ImageReference) *memRepo {
	r := &memRepo{records: map[string]*domain.ImageReference{}, updates: map[string]string{}}
	for i := range refs {
		ref := refs[i]
		r.records[ref.RecordID] = &ref
	}
	return r
}

func (r *memRepo) List(ctx context.Context) ([]domain.ImageReference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ImageReference, 0, len(r.records))
	for _, ref := range r.records {
		out = append(out, *ref)
	}
	return out, nil
}

func (r *memRepo) FindByID(ctx context.Context, id string) (*domain.ImageReference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	cp := *ref
	return &cp, nil
}

func (r *memRepo) UpdateImageURL(ctx context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	ref.URL = url
	r.updates[id] = url
	return nil
}

type fakeQueue struct {
	published []string
}

func (q *fakeQueue) PublishReoptimizeTask(ctx context.Context, recordID string) (string, error) {
	q.published = append(q.published, recordID)
	return fmt.Sprintf("task-%d", len(q.published)), nil
}

func (q *fakeQueue) Close() error { return nil }

type recordingObserver struct {
	mu    sync.Mutex
	kinds []string
	sizes [][2]int64
}

func (o *recordingObserver) ObserveReplace(kind string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kinds = append(o.kinds, kind)
}

func (o *recordingObserver) ObserveSizes(original, optimized int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sizes = append(o.sizes, [2]int64{original, optimized})
}
