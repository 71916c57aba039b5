package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "resume-chat-go/internal/errors"
)

type fakeObject struct {
	data        []byte
	contentType string
	meta        map[string]string
	modified    time.Time
}

// fakeAPI 在内存中模拟 MinIO，Stat 返回的元数据 key 形如 "Userid"，与真实服务一致。
type fakeAPI struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	clock   time.Time
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{objects: map[string]fakeObject{}, clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func noSuchKey() error {
	return minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound, Message: "The specified key does not exist."}
}

func (f *fakeAPI) PutObject(_ context.Context, _, object string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Minute)
	meta := map[string]string{}
	for k, v := range opts.UserMetadata {
		lower := strings.ToLower(k)
		meta[strings.ToUpper(lower[:1])+lower[1:]] = v
	}
	f.objects[object] = fakeObject{data: data, contentType: opts.ContentType, meta: meta, modified: f.clock}
	return minio.UploadInfo{Key: object, Size: int64(len(data)), LastModified: f.clock}, nil
}

func (f *fakeAPI) StatObject(_ context.Context, _, object string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[object]
	if !ok {
		return minio.ObjectInfo{}, noSuchKey()
	}
	return f.info(object, obj), nil
}

func (f *fakeAPI) ListObjects(_ context.Context, _ string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan minio.ObjectInfo, len(f.objects))
	for key, obj := range f.objects {
		if strings.HasPrefix(key, opts.Prefix) {
			info := f.info(key, obj)
			listed := map[string]string{}
			for k, v := range info.UserMetadata {
				listed["X-Amz-Meta-"+k] = v
			}
			info.UserMetadata = listed
			ch <- info
		}
	}
	close(ch)
	return ch
}

func (f *fakeAPI) RemoveObject(_ context.Context, _, object string, _ minio.RemoveObjectOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, object)
	return nil
}

func (f *fakeAPI) info(key string, obj fakeObject) minio.ObjectInfo {
	return minio.ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.modified,
		UserMetadata: obj.meta,
	}
}

func (f *fakeAPI) open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	if !ok {
		return nil, noSuchKey()
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func newFakeStore() (*MinioStore, *fakeAPI) {
	api := newFakeAPI()
	store := newMinioStore(api, "test")
	store.open = api.open
	return store, api
}

func TestMinioStore_PutAndHead(t *testing.T) {
	store, _ := newFakeStore()
	ctx := context.Background()

	obj, err := store.Put(ctx, "resumes/u1/cv.pdf", strings.NewReader("pdf"), 3, "application/pdf", map[string]string{"userid": "u1"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, int64(3), obj.Size)

	head, err := store.Head(ctx, "resumes/u1/cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, "u1", head.Metadata["userid"])
}

func TestMinioStore_HeadMissing(t *testing.T) {
	store, _ := newFakeStore()

	_, err := store.Head(context.Background(), "resumes/u1/none.pdf")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMinioStore_ListSortedNewestFirst(t *testing.T) {
	store, _ := newFakeStore()
	ctx := context.Background()
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		_, err := store.Put(ctx, "resumes/u1/"+name, strings.NewReader("x"), 1, "application/pdf", map[string]string{"userid": "u1"})
		require.NoError(t, err)
	}
	_, err := store.Put(ctx, "resumes/u2/other.pdf", strings.NewReader("x"), 1, "application/pdf", map[string]string{"userid": "u2"})
	require.NoError(t, err)

	objects, err := store.List(ctx, "resumes/u1/")
	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.Equal(t, "resumes/u1/c.pdf", objects[0].Key)
	assert.Equal(t, "resumes/u1/a.pdf", objects[2].Key)
	assert.Equal(t, "u1", objects[0].Metadata["userid"])
}

func TestMinioStore_OpenAndDelete(t *testing.T) {
	store, _ := newFakeStore()
	ctx := context.Background()
	_, err := store.Put(ctx, "resumes/u1/cv.pdf", strings.NewReader("body"), 4, "application/pdf", nil)
	require.NoError(t, err)

	rc, err := store.Open(ctx, "resumes/u1/cv.pdf")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "body", string(data))

	require.NoError(t, store.Delete(ctx, "resumes/u1/cv.pdf"))
	_, err = store.Open(ctx, "resumes/u1/cv.pdf")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
