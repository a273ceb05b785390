package kontext

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/labelkit/pkg/types"
	"github.com/menta2k/labelkit/pkg/vision"
)

type fakeVision struct {
	mu       sync.Mutex
	requests []vision.Request
	fail     map[string]bool
}

func (f *fakeVision) Describe(_ context.Context, req vision.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.fail[req.Images[0].Name] {
		return "", errors.New("rate limited")
	}
	return "removed the cup from " + req.Images[0].Name, nil
}

func factoryFor(v vision.Client) ClientFactory {
	return func(types.LabelSettings) (vision.Client, error) { return v, nil }
}

func img(name string) types.Upload {
	return types.Upload{Name: name, ContentType: "image/png", Data: []byte(name)}
}

func settings() types.LabelSettings {
	return types.LabelSettings{APIKey: "sk", Model: "gpt-4-vision-preview"}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		suffix Suffix
		ok     bool
	}{
		{"shoe_R.png", "shoe", Reference, true},
		{"shoe_T.jpg", "shoe", Target, true},
		{"a_b_R.webp", "a_b", Reference, true},
		{"shoe.png", "", "", false},
		{"shoe_r.png", "", "", false},
	}
	for _, tt := range tests {
		base, suffix, ok := splitName(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.base, base, tt.name)
		assert.Equal(t, tt.suffix, suffix, tt.name)
	}
}

func TestClassify(t *testing.T) {
	images, err := Classify([]types.Upload{
		img("a_R.png"),
		img("a_T.png"),
		img("plain.png"),
		{Name: "notes_R.txt", ContentType: "text/plain"},
	})
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "a_R", images[0].ID)
	assert.Equal(t, Target, images[1].Suffix)

	_, err = Classify([]types.Upload{img("plain.png")})
	assert.ErrorIs(t, err, ErrNoPairImages)
}

func TestMergeReplacesSameID(t *testing.T) {
	first, err := Classify([]types.Upload{img("a_R.png"), img("b_R.png")})
	require.NoError(t, err)

	replacement := img("a_R.png")
	replacement.Data = []byte("new")
	second, err := Classify([]types.Upload{replacement, img("a_T.png")})
	require.NoError(t, err)

	merged := Merge(first, second)
	require.Len(t, merged, 3)
	assert.Equal(t, "a_R", merged[0].ID)
	assert.Equal(t, []byte("new"), merged[0].Data)
	assert.Equal(t, "a_T", merged[2].ID)
	assert.Len(t, first, 2, "input set is not modified")

	assert.Len(t, Remove(merged, "b_R"), 2)
}

func TestGroup(t *testing.T) {
	images, err := Classify([]types.Upload{img("z_T.png"), img("z_R.png"), img("a_R.png"), img("m_R.png"), img("m_T.png")})
	require.NoError(t, err)

	pairs, incomplete := Group(images)
	require.Len(t, pairs, 2)
	assert.Equal(t, "m", pairs[0].BaseName)
	assert.Equal(t, "z_R.png", pairs[1].Reference.Name)
	assert.Equal(t, "z_T.png", pairs[1].Target.Name)
	assert.Equal(t, []string{"a"}, incomplete)
}

func TestValidate(t *testing.T) {
	pair, err := Classify([]types.Upload{img("a_R.png"), img("a_T.png")})
	require.NoError(t, err)
	half, err := Classify([]types.Upload{img("a_R.png"), img("b_T.png")})
	require.NoError(t, err)

	noKey := settings()
	noKey.APIKey = ""
	noModel := settings()
	noModel.Model = ""

	assert.ErrorIs(t, Validate(nil, settings()), ErrNoImages)
	assert.ErrorIs(t, Validate(pair, noKey), ErrNoAPIKey)
	assert.ErrorIs(t, Validate(pair, noModel), ErrNoModel)
	assert.ErrorIs(t, Validate(half, settings()), ErrNoPair)
	assert.NoError(t, Validate(pair, settings()))

	keyless := NewLabeler(factoryFor(&fakeVision{}), Options{}, nil)
	assert.NoError(t, keyless.Validate(pair, noKey))
}

func TestLabelSequentialWithPerPairErrors(t *testing.T) {
	fake := &fakeVision{fail: map[string]bool{"b_R.png": true}}
	l := NewLabeler(factoryFor(fake), Options{RequireAPIKey: true}, nil)

	images, err := Classify([]types.Upload{img("b_R.png"), img("b_T.png"), img("a_T.png"), img("a_R.png"), img("c_R.png")})
	require.NoError(t, err)

	resp, err := l.Label(context.Background(), images, settings())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 2)

	a, b := resp.Results[0], resp.Results[1]
	assert.Equal(t, "a", a.BaseName)
	assert.Equal(t, "removed the cup from a_R.png", a.Description)
	assert.Empty(t, a.Error)
	assert.Equal(t, "a_R.png", a.RImage.Name)
	assert.Equal(t, "YV9SLnBuZw==", a.RImage.Preview)

	assert.Equal(t, "b", b.BaseName)
	assert.Empty(t, b.Description)
	assert.Equal(t, "rate limited", b.Error)

	require.Len(t, fake.requests, 2)
	first := fake.requests[0]
	assert.Equal(t, DefaultSystemPrompt, first.SystemPrompt)
	assert.Equal(t, "gpt-4-vision-preview", first.Model)
	assert.Equal(t, "a_R.png", first.Images[0].Name)
	assert.Equal(t, "a_T.png", first.Images[1].Name)
}

func TestLabelRejectsBeforeCallingModel(t *testing.T) {
	fake := &fakeVision{}
	l := NewLabeler(factoryFor(fake), Options{RequireAPIKey: true}, nil)
	images, err := Classify([]types.Upload{img("a_R.png")})
	require.NoError(t, err)

	_, err = l.Label(context.Background(), images, settings())
	assert.ErrorIs(t, err, ErrNoPair)
	assert.Empty(t, fake.requests)
}

func TestLabelShrinksImages(t *testing.T) {
	big := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for i := range big.Pix {
		big.Pix[i] = 0xff
	}
	big.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, big))

	fake := &fakeVision{}
	l := NewLabeler(factoryFor(fake), Options{SendMax: 100}, nil)
	images := []Image{
		{ID: "x_R", BaseName: "x", Suffix: Reference, Name: "x_R.png", Data: buf.Bytes()},
		{ID: "x_T", BaseName: "x", Suffix: Target, Name: "x_T.png", Data: buf.Bytes()},
	}

	_, err := l.Label(context.Background(), images, settings())
	require.NoError(t, err)
	require.Len(t, fake.requests, 1)

	sent := fake.requests[0].Images[0]
	assert.Equal(t, "image/jpeg", sent.ContentType)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(sent.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestExportZip(t *testing.T) {
	results := []types.LabelResult{
		{
			BaseName:    "a",
			Description: "remove the cup",
			RImage:      &types.ImagePreview{Name: "a_R.png", Preview: "UkVG"},
			TImage:      &types.ImagePreview{Name: "a_T.png", Preview: "VEdU"},
		},
		{
			BaseName: "b",
			Error:    "rate limited",
			RImage:   &types.ImagePreview{Name: "b_R.png", Preview: "UkVG"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportZip(&buf, results))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	got := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		got[f.Name] = string(b)
	}
	assert.Equal(t, map[string]string{
		"a_T.txt": "remove the cup",
		"a_R.png": "REF",
		"a_T.png": "TGT",
		"b_R.png": "REF",
	}, got)

	assert.ErrorIs(t, ExportZip(&buf, nil), ErrNoResults)
}

func TestArchiveName(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, "kontext_results_2024-05-06T07-08-09.zip", ArchiveName(ts))
}
