// Package labels pairs training images with caption files and edits the captions in batches.
package labels

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/menta2k/labelkit/internal/utils"
	"github.com/menta2k/labelkit/pkg/types"
)

var (
	ErrNoImages   = errors.New("请上传图片文件或ZIP压缩包")
	ErrNoFiles    = errors.New("没有可下载的文件")
	ErrNotFound   = errors.New("file not found")
	ErrBadArchive = errors.New("invalid zip archive")
)

// maxArchiveEntry bounds a single decompressed archive member
const maxArchiveEntry = 64 << 20

// Pair matches every image upload with "<base>.txt" or "<base>.TXT" from the same batch.
// ZIP uploads are expanded first. Images without a caption get empty text.
func Pair(uploads []types.Upload) ([]types.LabeledFile, error) {
	all, err := expand(uploads)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]types.Upload, len(all))
	for _, u := range all {
		byName[u.Name] = u
	}

	var files []types.LabeledFile
	seen := make(map[string]int)
	for _, u := range all {
		if !utils.IsImageUpload(u.Name, u.ContentType) {
			continue
		}

		f := types.LabeledFile{
			OriginalName: u.Name,
			BaseName:     utils.BaseName(u.Name),
			ImageData:    u.Data,
			ContentType:  contentType(u),
			Status:       types.StatusPending,
		}
		for _, name := range utils.CaptionNames(u.Name) {
			if txt, ok := byName[name]; ok {
				f.HasCaption = true
				f.TextContent = decodeText(txt.Data)
				break
			}
		}

		if i, dup := seen[u.Name]; dup {
			files[i] = f
			continue
		}
		seen[u.Name] = len(files)
		files = append(files, f)
	}

	if len(files) == 0 {
		return nil, ErrNoImages
	}
	return files, nil
}

func expand(uploads []types.Upload) ([]types.Upload, error) {
	var out []types.Upload
	for _, u := range uploads {
		if !utils.IsZipUpload(u.Name, u.ContentType) {
			out = append(out, u)
			continue
		}
		members, err := unzip(u.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", u.Name, err)
		}
		out = append(out, members...)
	}
	return out, nil
}

func unzip(data []byte) ([]types.Upload, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}

	var out []types.Upload
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || skipMember(zf.Name) {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadArchive, zf.Name, err)
		}
		b, err := io.ReadAll(io.LimitReader(rc, maxArchiveEntry+1))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadArchive, zf.Name, err)
		}
		if len(b) > maxArchiveEntry {
			return nil, fmt.Errorf("%w: %s exceeds %s", ErrBadArchive, zf.Name, utils.FormatFileSize(maxArchiveEntry))
		}
		out = append(out, types.Upload{
			Name:        zf.Name,
			ContentType: mime.TypeByExtension(path.Ext(zf.Name)),
			Data:        b,
		})
	}
	return out, nil
}

// skipMember drops macOS resource forks and dotfiles
func skipMember(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(name), ".")
}

func contentType(u types.Upload) string {
	if u.ContentType != "" {
		return u.ContentType
	}
	if ct := mime.TypeByExtension(path.Ext(u.Name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func decodeText(b []byte) string {
	return string(bytes.TrimPrefix(b, []byte("\xef\xbb\xbf")))
}
