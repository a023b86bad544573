package usecase

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/fetcher"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/processor"
)

type pipelineFixture struct {
	pipeline *Pipeline
	storage  *memStorage
	checker  *fakeChecker
	fetcher  *fakeFetcher
	observer *recordingObserver
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		storage:  newMemStorage(),
		checker:  &fakeChecker{statuses: map[string]domain.ValidationStatus{}},
		fetcher:  &fakeFetcher{sources: map[string]*domain.FetchedSource{}},
		observer: &recordingObserver{},
	}
	publisher := NewPublisher(f.storage, 3650*24*time.Hour)
	f.pipeline = NewPipeline(f.checker, f.fetcher, processor.NewImageProcessor(0), publisher).
		WithObserver(f.observer)
	return f
}

func TestValidateAllEmptyURLSkipsNetwork(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	got := f.pipeline.ValidateAll(context.Background(), []domain.ImageReference{{RecordID: "42", URL: ""}})

	require.Equal(t, map[string]domain.ValidationStatus{"42": domain.StatusBroken}, got)
	require.Empty(t, f.checker.batches)
	require.Empty(t, f.checker.singles)
}

func TestValidateAllMapsByRecord(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	f.checker.statuses["https://cdn.test/a.jpg"] = domain.StatusOK

	refs := []domain.ImageReference{
		{RecordID: "1", URL: "https://cdn.test/a.jpg"},
		{RecordID: "2", URL: "https://cdn.test/gone.jpg"},
		{RecordID: "3", URL: "https://cdn.test/a.jpg"},
		{RecordID: "4", URL: "   "},
	}
	got := f.pipeline.ValidateAll(context.Background(), refs)

	require.Equal(t, map[string]domain.ValidationStatus{
		"1": domain.StatusOK,
		"2": domain.StatusBroken,
		"3": domain.StatusOK,
		"4": domain.StatusBroken,
	}, got)
	require.Len(t, f.checker.batches, 1)
	require.Len(t, f.checker.batches[0], 3)
}

func TestCheckRecord(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	f.checker.statuses["https://cdn.test/a.jpg"] = domain.StatusOK

	require.Equal(t, domain.StatusOK, f.pipeline.CheckRecord(context.Background(), domain.ImageReference{RecordID: "1", URL: "https://cdn.test/a.jpg"}))
	require.Equal(t, domain.StatusBroken, f.pipeline.CheckRecord(context.Background(), domain.ImageReference{RecordID: "1"}))
	require.Len(t, f.checker.singles, 1)
}

func TestReplaceImageFromUpload(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	in := domain.RawImageInput{Data: pngFixture(t, 600, 800), Filename: "shot.PNG"}

	res, err := f.pipeline.ReplaceImage(context.Background(), "7", "My Listing!!", in, config.DefaultProcessing())
	require.NoError(t, err)

	require.Equal(t, "7-my-listing.jpg", res.Link.Key)
	require.Equal(t, "https://cdn.test/files/7-my-listing.jpg?sig=ok", res.Link.URL)
	require.WithinDuration(t, time.Now().Add(3650*24*time.Hour), res.Link.ExpiresAt, time.Minute)
	require.Nil(t, res.Thumbnail)
	require.True(t, res.Image.Optimized)
	require.Equal(t, 600, res.Image.Width)
	require.Equal(t, 800, res.Image.Height)

	require.Equal(t, []string{"7-my-listing.jpg"}, f.storage.keys())
	require.Equal(t, "image/jpeg", f.storage.lastType)
	require.Equal(t, []string{""}, f.observer.kinds)
	require.Len(t, f.observer.sizes, 1)
}

func TestReplaceImageTwiceOverwritesSameKey(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	ctx := context.Background()
	cfg := config.DefaultProcessing()

	_, err := f.pipeline.ReplaceImage(ctx, "7", "My Listing", domain.RawImageInput{Data: pngFixture(t, 100, 100), Filename: "a.png"}, cfg)
	require.NoError(t, err)
	first := f.storage.objects["7-my-listing.jpg"]

	_, err = f.pipeline.ReplaceImage(ctx, "7", "My Listing", domain.RawImageInput{Data: pngFixture(t, 300, 200), Filename: "b.png"}, cfg)
	require.NoError(t, err)

	require.Equal(t, []string{"7-my-listing.jpg"}, f.storage.keys())
	require.Equal(t, 2, f.storage.puts)
	require.False(t, bytes.Equal(first, f.storage.objects["7-my-listing.jpg"]))

	img, err := imaging.Decode(bytes.NewReader(f.storage.objects["7-my-listing.jpg"]))
	require.NoError(t, err)
	require.Equal(t, 300, img.Bounds().Dx())
}

func TestReplaceImageWithThumbnail(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	cfg := config.DefaultProcessing()
	cfg.ThumbnailEnabled = true

	res, err := f.pipeline.ReplaceImage(context.Background(), "12", "Sea View",
		domain.RawImageInput{Data: jpegFixture(t, 800, 600), Filename: "sea.jpeg"}, cfg)
	require.NoError(t, err)
	require.NotNil(t, res.Thumbnail)
	require.Equal(t, "12-sea-view-thumb.jpg", res.Thumbnail.Key)
	require.Equal(t, []string{"12-sea-view-thumb.jpg", "12-sea-view.jpg"}, f.storage.keys())

	thumb, err := imaging.Decode(bytes.NewReader(f.storage.objects["12-sea-view-thumb.jpg"]))
	require.NoError(t, err)
	require.Equal(t, 400, thumb.Bounds().Dx())
	require.Equal(t, 300, thumb.Bounds().Dy())
}

func TestReplaceImageFromURL(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	f.fetcher.sources["https://origin.test/images/123"] = &domain.FetchedSource{
		Data:        pngFixture(t, 50, 40),
		ContentType: "image/png",
		Extension:   "png",
	}

	res, err := f.pipeline.ReplaceImage(context.Background(), "5", "",
		domain.RawImageInput{SourceURL: "https://origin.test/images/123"}, config.DefaultProcessing())
	require.NoError(t, err)
	require.Equal(t, "5.jpg", res.Link.Key)
	require.Equal(t, 1, f.fetcher.calls)
}

func TestReplaceImageFetch404WritesNothing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	st := newMemStorage()
	obs := &recordingObserver{}
	p := NewPipeline(
		&fakeChecker{},
		fetcher.New(config.DefaultFetch(), nil),
		processor.NewImageProcessor(0),
		NewPublisher(st, time.Hour),
	).WithObserver(obs)

	_, err := p.ReplaceImage(context.Background(), "7", "Listing",
		domain.RawImageInput{SourceURL: srv.URL + "/photo.jpg"}, config.DefaultProcessing())
	require.ErrorIs(t, err, domain.ErrFetch)
	require.Equal(t, "fetch_error", domain.ErrorKind(err))
	require.Zero(t, st.puts)
	require.Equal(t, []string{"fetch_error"}, obs.kinds)
}

func TestReplaceImageRejectsBadInput(t *testing.T) {
	t.Parallel()

	png := pngFixture(t, 10, 10)
	cfg := config.DefaultProcessing()
	onlyJPEG := config.DefaultProcessing()
	onlyJPEG.AcceptedExtensions = []string{".jpg"}
	badQuality := config.DefaultProcessing()
	badQuality.Quality = 0

	cases := []struct {
		name     string
		recordID string
		in       domain.RawImageInput
		cfg      config.ProcessingConfig
		want     error
	}{
		{"both forms", "7", domain.RawImageInput{Data: png, Filename: "a.png", SourceURL: "https://x.test/a.png"}, cfg, domain.ErrInvalidInput},
		{"neither form", "7", domain.RawImageInput{}, cfg, domain.ErrInvalidInput},
		{"empty file", "7", domain.RawImageInput{Filename: "a.png"}, cfg, domain.ErrInvalidInput},
		{"gif upload", "7", domain.RawImageInput{Data: png, Filename: "a.gif"}, cfg, domain.ErrUnsupportedFormat},
		{"gif url", "7", domain.RawImageInput{SourceURL: "https://x.test/a.gif"}, cfg, domain.ErrUnsupportedFormat},
		{"png not accepted", "7", domain.RawImageInput{Data: png, Filename: "a.png"}, onlyJPEG, domain.ErrUnsupportedFormat},
		{"bad record id", "!!!", domain.RawImageInput{Data: png, Filename: "a.png"}, cfg, domain.ErrInvalidInput},
		{"bad quality", "7", domain.RawImageInput{Data: png, Filename: "a.png"}, badQuality, domain.ErrInvalidInput},
		{"not an image", "7", domain.RawImageInput{Data: []byte("hello"), Filename: "a.jpg"}, cfg, domain.ErrDecode},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newPipelineFixture(t)
			_, err := f.pipeline.ReplaceImage(context.Background(), tc.recordID, "t", tc.in, tc.cfg)
			require.ErrorIs(t, err, tc.want)
			require.Zero(t, f.storage.puts)
			require.Zero(t, f.fetcher.calls)
		})
	}
}

func TestReplaceImageRejectsDownloadedFormat(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	f.fetcher.sources["https://origin.test/img"] = &domain.FetchedSource{
		Data:        pngFixture(t, 10, 10),
		ContentType: "image/png",
		Extension:   "png",
	}
	cfg := config.DefaultProcessing()
	cfg.AcceptedExtensions = []string{".jpeg"}

	_, err := f.pipeline.ReplaceImage(context.Background(), "7", "", domain.RawImageInput{SourceURL: "https://origin.test/img"}, cfg)
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	require.Zero(t, f.storage.puts)
}

func TestReplaceImageStorageFailures(t *testing.T) {
	t.Parallel()

	in := domain.RawImageInput{Data: pngFixture(t, 20, 20), Filename: "a.png"}

	f := newPipelineFixture(t)
	f.storage.putErr = errors.New("disk full")
	_, err := f.pipeline.ReplaceImage(context.Background(), "7", "x", in, config.DefaultProcessing())
	require.ErrorIs(t, err, domain.ErrStorageWrite)
	require.Equal(t, "storage_write_error", domain.ErrorKind(err))

	f = newPipelineFixture(t)
	f.storage.signErr = errors.New("kms unavailable")
	_, err = f.pipeline.ReplaceImage(context.Background(), "7", "x", in, config.DefaultProcessing())
	require.ErrorIs(t, err, domain.ErrSigning)
	require.Equal(t, []string{"7-x.jpg"}, f.storage.keys(), "object stays in place after signing fails")
}

func TestPreviewDoesNotPublish(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	f.fetcher.sources["https://origin.test/a.png"] = &domain.FetchedSource{Data: pngFixture(t, 30, 30), Extension: "png"}

	img, err := f.pipeline.Preview(context.Background(), "https://origin.test/a.png", config.DefaultProcessing())
	require.NoError(t, err)
	require.Equal(t, "jpg", img.Extension)
	require.Zero(t, f.storage.puts)
}

func TestPreviewRejectsOutOfRangeQuality(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	f.fetcher.sources["https://origin.test/a.png"] = &domain.FetchedSource{Data: pngFixture(t, 30, 30), Extension: "png"}

	cfg := config.DefaultProcessing()
	cfg.Quality = 100
	_, err := f.pipeline.Preview(context.Background(), "https://origin.test/a.png", cfg)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	require.Zero(t, f.fetcher.calls)
}
