// Package kontext describes the difference between reference (_R) and target (_T) image pairs.
package kontext

import (
	"errors"
	"sort"
	"strings"

	"github.com/menta2k/labelkit/internal/utils"
	"github.com/menta2k/labelkit/pkg/types"
)

// Suffix marks the role of an image in a pair
type Suffix string

const (
	Reference Suffix = "R"
	Target    Suffix = "T"
)

var (
	ErrNoPairImages = errors.New("请上传带有_R或_T后缀的图片文件")
	ErrNoImages     = errors.New("请先上传图片")
	ErrNoAPIKey     = errors.New("请输入OpenAI API Key")
	ErrNoModel      = errors.New("请输入模型名称")
	ErrNoPair       = errors.New("请确保至少有一组完整的_R和_T后缀图片对")
)

// Image is one uploaded half of a pair
type Image struct {
	ID          string `json:"id"`
	BaseName    string `json:"base_name"`
	Suffix      Suffix `json:"suffix"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Pair is a reference image with its target
type Pair struct {
	BaseName  string
	Reference Image
	Target    Image
}

// splitName returns the base name and suffix of "<base>_R.<ext>" or "<base>_T.<ext>"
func splitName(name string) (string, Suffix, bool) {
	iR := strings.Index(name, "_R.")
	iT := strings.Index(name, "_T.")
	switch {
	case iR < 0 && iT < 0:
		return "", "", false
	case iT < 0 || (iR >= 0 && iR < iT):
		return name[:iR], Reference, true
	default:
		return name[:iT], Target, true
	}
}

// Classify keeps the image uploads whose name contains _R. or _T.
func Classify(uploads []types.Upload) ([]Image, error) {
	var out []Image
	for _, u := range uploads {
		if !utils.IsImageUpload(u.Name, u.ContentType) {
			continue
		}
		base, suffix, ok := splitName(u.Name)
		if !ok {
			continue
		}
		out = append(out, Image{
			ID:          base + "_" + string(suffix),
			BaseName:    base,
			Suffix:      suffix,
			Name:        u.Name,
			ContentType: u.ContentType,
			Data:        u.Data,
		})
	}
	if len(out) == 0 {
		return nil, ErrNoPairImages
	}
	return out, nil
}

// Merge adds images to set; an image with the same base name and suffix replaces the old one in place
func Merge(set, images []Image) []Image {
	merged := append([]Image(nil), set...)
	for _, img := range images {
		replaced := false
		for i := range merged {
			if merged[i].ID == img.ID {
				merged[i] = img
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, img)
		}
	}
	return merged
}

// Remove drops the image with id from set
func Remove(set []Image, id string) []Image {
	out := set[:0:0]
	for _, img := range set {
		if img.ID != id {
			out = append(out, img)
		}
	}
	return out
}

// Group returns the complete pairs sorted by base name and the base names missing a half
func Group(images []Image) ([]Pair, []string) {
	halves := make(map[string]*Pair)
	for _, img := range images {
		p, ok := halves[img.BaseName]
		if !ok {
			p = &Pair{BaseName: img.BaseName}
			halves[img.BaseName] = p
		}
		if img.Suffix == Reference {
			p.Reference = img
		} else {
			p.Target = img
		}
	}

	var pairs []Pair
	var incomplete []string
	for base, p := range halves {
		if p.Reference.Name != "" && p.Target.Name != "" {
			pairs = append(pairs, *p)
		} else {
			incomplete = append(incomplete, base)
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].BaseName < pairs[j].BaseName })
	sort.Strings(incomplete)
	return pairs, incomplete
}

// Validate checks a labeling request before any model call
func Validate(images []Image, settings types.LabelSettings) error {
	if len(images) == 0 {
		return ErrNoImages
	}
	if settings.APIKey == "" {
		return ErrNoAPIKey
	}
	if settings.Model == "" {
		return ErrNoModel
	}
	if pairs, _ := Group(images); len(pairs) == 0 {
		return ErrNoPair
	}
	return nil
}
