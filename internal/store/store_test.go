package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/golang/mock/gomock"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dossier-engine/internal/model"
	mock_store "dossier-engine/internal/store/mocks"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Load(ctx, "CIS-1")
	assert.ErrorIs(t, err, ErrNotFound)

	blob := []byte(`{"cisCode":"CIS-1"}`)
	require.NoError(t, m.Save(ctx, "CIS-1", blob))
	blob[0] = 'X'

	got, err := m.Load(ctx, "CIS-1")
	require.NoError(t, err)
	assert.Equal(t, `{"cisCode":"CIS-1"}`, string(got))
	assert.Equal(t, []string{"CIS-1"}, m.Keys())
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	r := NewRedis(rdb, "")
	defer r.Close()

	_, err := r.Load(ctx, "CIS-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Save(ctx, "CIS-1", []byte("v1")))
	require.NoError(t, r.Save(ctx, "CIS-1", []byte("v2")))
	got, err := r.Load(ctx, "CIS-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	raw, err := srv.Get("dossier:CIS-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", raw)
}

func TestDialRedis(t *testing.T) {
	srv := miniredis.RunT(t)
	r, err := DialRedis(context.Background(), srv.Addr(), "test:")
	require.NoError(t, err)
	defer r.Close()

	_, err = DialRedis(context.Background(), "", "")
	assert.Error(t, err)
}

type fakeObjects struct {
	objects map[string][]byte
	putErr  error
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	v, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(v))}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	raw, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = raw
	return &s3.PutObjectOutput{}, nil
}

func TestS3(t *testing.T) {
	ctx := context.Background()
	fake := &fakeObjects{objects: map[string][]byte{}}
	s := newS3WithClient(fake, "agency", "")

	_, err := s.Load(ctx, "CIS-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "CIS-1", []byte("blob")))
	assert.Contains(t, fake.objects, "agency/dossiers/CIS-1.json")

	got, err := s.Load(ctx, "CIS-1")
	require.NoError(t, err)
	assert.Equal(t, "blob", string(got))

	fake.putErr = errors.New("access denied")
	assert.ErrorContains(t, s.Save(ctx, "CIS-1", []byte("x")), "access denied")
}

func TestMirror(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	t.Run("save fans out to both sides", func(t *testing.T) {
		local, remote := NewMemory(), NewMemory()
		m := NewMirror(local, remote)
		require.NoError(t, m.Save(ctx, "k", []byte("v")))
		for _, g := range []Gateway{local, remote} {
			got, err := g.Load(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", string(got))
		}
	})

	t.Run("remote failure fails the save", func(t *testing.T) {
		remote := mock_store.NewMockGateway(ctrl)
		remote.EXPECT().Save(gomock.Any(), "k", []byte("v")).Return(errors.New("timeout"))
		m := NewMirror(NewMemory(), remote)
		err := m.Save(ctx, "k", []byte("v"))
		assert.ErrorContains(t, err, "remote: timeout")
	})

	t.Run("load falls back to remote", func(t *testing.T) {
		remote := mock_store.NewMockGateway(ctrl)
		remote.EXPECT().Load(gomock.Any(), "k").Return([]byte("from-remote"), nil)
		m := NewMirror(NewMemory(), remote)
		got, err := m.Load(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "from-remote", string(got))
	})

	t.Run("missing on both sides", func(t *testing.T) {
		m := NewMirror(NewMemory(), NewMemory())
		_, err := m.Load(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCodec(t *testing.T) {
	_, err := Decode([]byte(`{"status":"Offer"}`))
	assert.Error(t, err)

	old := []byte(`{"cisCode":"CIS-OLD","status":"Offer","finance":{"currency":"EUR","payments":[{"id":"p1","amount":10}]}}`)
	d, err := Decode(old)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffer, d.Status)
	assert.Len(t, d.DocumentTracker, len(model.DocumentTypes))
	assert.Equal(t, model.PaymentActive, d.Finance.Payments[0].Status)
	assert.Nil(t, d.ResCode)

	raw, err := Encode(d)
	require.NoError(t, err)
	again, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, d, again)
}

func TestTraced(t *testing.T) {
	ctx := context.Background()
	g := Traced(NewMemory(), "memory")
	require.NoError(t, g.Save(ctx, "k", []byte("v")))
	got, err := g.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
	_, err = g.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
