package fsxs3_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/fsx"
	"github.com/Abraxas-365/rewardwallet/pkg/fsx/fsxs3"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// memS3 is an in-memory bucket.
type memS3 struct {
	objects map[string][]byte
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	m.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := m.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *memS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	prefix := aws.ToString(in.Prefix)
	for k, v := range m.objects {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(v)))})
		}
	}
	return out, nil
}

func TestS3FileSystem_RoundTrip(t *testing.T) {
	api := &memS3{objects: map[string][]byte{}}
	fs := fsxs3.NewS3FileSystem(api, "bucket", "/wallet/")
	ctx := context.Background()

	if err := fs.WriteFile(ctx, fs.Join("dead-letters", "job-1.json"), []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if _, ok := api.objects["wallet/dead-letters/job-1.json"]; !ok {
		t.Fatalf("unexpected keys: %v", api.objects)
	}

	data, err := fs.ReadFile(ctx, "dead-letters/job-1.json")
	if err != nil || string(data) != "{}" {
		t.Fatalf("unexpected read: %q, %v", data, err)
	}

	infos, err := fs.List(ctx, "dead-letters")
	if err != nil || len(infos) != 1 || infos[0].Name != "job-1.json" {
		t.Fatalf("unexpected listing: %+v, %v", infos, err)
	}
}

func TestS3FileSystem_Missing(t *testing.T) {
	fs := fsxs3.NewS3FileSystem(&memS3{objects: map[string][]byte{}}, "bucket", "")

	_, err := fs.ReadFile(context.Background(), "nope.json")
	if !errx.HasCode(err, fsx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	ok, err := fs.Exists(context.Background(), "nope.json")
	if err != nil || ok {
		t.Fatalf("expected missing, got %v, %v", ok, err)
	}
}
