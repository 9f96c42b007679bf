package s3_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/delaneyj/trackstate/pkg/store"
	"github.com/delaneyj/trackstate/pkg/store/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket is an in-memory stand-in for one S3 bucket.
type fakeBucket struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	// page size for ListObjectsV2
	pageSize int
	failGet  error
}

func newFakeBucket(bucket string) *fakeBucket {
	return &fakeBucket{bucket: bucket, objects: map[string][]byte{}, pageSize: 2}
}

func (f *fakeBucket) check(bucket *string) error {
	if aws.ToString(bucket) != f.bucket {
		return &types.NoSuchBucket{}
	}
	return nil
}

func (f *fakeBucket) PutObject(ctx context.Context, in *awss3.PutObjectInput, opts ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if err := f.check(in.Bucket); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeBucket) GetObject(ctx context.Context, in *awss3.GetObjectInput, opts ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	if err := f.check(in.Bucket); err != nil {
		return nil, err
	}
	if f.failGet != nil {
		return nil, f.failGet
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(bytes.Clone(data)))}, nil
}

func (f *fakeBucket) DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, opts ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	if err := f.check(in.Bucket); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &awss3.DeleteObjectOutput{}, nil
}

func (f *fakeBucket) ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, opts ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	if err := f.check(in.Bucket); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var names []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			names = append(names, k)
		}
	}
	slices.Sort(names)

	start := 0
	if in.ContinuationToken != nil {
		start, _ = slices.BinarySearch(names, aws.ToString(in.ContinuationToken))
	}
	end := min(start+f.pageSize, len(names))

	out := &awss3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(names))}
	for _, k := range names[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(names) {
		out.NextContinuationToken = aws.String(names[end])
	}
	return out, nil
}

func TestS3Store_Contract(t *testing.T) {
	store.RunContract(t, s3.New(newFakeBucket("state"), "state", "app/"))
}

func TestS3Store_PrefixAndPaging(t *testing.T) {
	bucket := newFakeBucket("state")
	s := s3.New(bucket, "state", "app/")
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, s.Save(ctx, k, []byte(`1`)))
	}
	bucket.objects["other/x"] = []byte(`1`)

	_, ok := bucket.objects["app/a"]
	assert.True(t, ok)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, keys)
}

func TestS3Store_Errors(t *testing.T) {
	bucket := newFakeBucket("state")
	ctx := context.Background()

	_, err := s3.New(bucket, "missing", "").Load(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)

	bucket.failGet = errors.New("throttled")
	_, err = s3.New(bucket, "state", "").Load(ctx, "k")
	assert.ErrorContains(t, err, "throttled")
}
