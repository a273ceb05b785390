package labels

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/menta2k/labelkit/internal/utils"
	"github.com/menta2k/labelkit/pkg/translate"
	"github.com/menta2k/labelkit/pkg/types"
)

// ExportName is the download name of the caption archive
const ExportName = "marked_files.zip"

// Options selects the languages and provider used for captions
type Options struct {
	Source  string `json:"source_lang"`
	Target  string `json:"target_lang"`
	Service string `json:"service"`
}

// DefaultOptions translates English to Simplified Chinese with google
func DefaultOptions() Options {
	return Options{Source: "en", Target: "zh-CN", Service: "google"}
}

// Progress is reported after each item of a sequential run
type Progress struct {
	Action string       `json:"action"`
	Index  int          `json:"index"`
	Total  int          `json:"total"`
	File   string       `json:"file"`
	Status types.Status `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// ProgressFunc receives progress; it must not call back into the workspace
type ProgressFunc func(Progress)

// Report summarizes a sequential run
type Report struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Workspace holds the paired files of one labeling session.
// Operations run one at a time; reads never wait for a running batch.
type Workspace struct {
	translator translate.Translator
	logger     *zap.Logger

	op sync.Mutex

	mu    sync.RWMutex
	opts  Options
	files []types.LabeledFile
}

// NewWorkspace creates an empty workspace. A nil logger disables logging.
func NewWorkspace(tr translate.Translator, opts Options, logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workspace{translator: tr, opts: opts, logger: logger}
}

// Options returns the current language and provider selection
func (w *Workspace) Options() Options {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.opts
}

// SetLanguages changes the language pair; an invalid pair leaves the selection unchanged
func (w *Workspace) SetLanguages(source, target string) error {
	if err := translate.ValidateLanguages(source, target); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts.Source, w.opts.Target = source, target
	return nil
}

// SetService switches the provider and reports whether it changed
func (w *Workspace) SetService(service string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if service == "" || service == w.opts.Service {
		return false
	}
	w.opts.Service = service
	return true
}

// Files returns a copy of the file list in upload order
func (w *Workspace) Files() []types.LabeledFile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]types.LabeledFile, len(w.files))
	copy(out, w.files)
	return out
}

// File returns one file by its original name
func (w *Workspace) File(name string) (types.LabeledFile, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	i := w.index(name)
	if i < 0 {
		return types.LabeledFile{}, false
	}
	return w.files[i], true
}

func (w *Workspace) index(name string) int {
	for i := range w.files {
		if w.files[i].OriginalName == name {
			return i
		}
	}
	return -1
}

// Load pairs the uploads, replaces the file list and translates every caption in order.
// A failed translation marks that file and the run continues.
func (w *Workspace) Load(ctx context.Context, uploads []types.Upload, progress ProgressFunc) (Report, error) {
	w.op.Lock()
	defer w.op.Unlock()

	files, err := Pair(uploads)
	if err != nil {
		return Report{}, types.WrapAction("处理文件", err)
	}

	w.mu.Lock()
	w.files = files
	w.mu.Unlock()

	w.logger.Info("files paired", zap.Int("count", len(files)))
	return w.run(ctx, "load", progress, func(f types.LabeledFile) (string, bool) {
		return f.TextContent, true
	})
}

// UpdateText replaces one caption and translates it. On failure nothing changes.
func (w *Workspace) UpdateText(ctx context.Context, name, content string) (types.LabeledFile, error) {
	w.op.Lock()
	defer w.op.Unlock()

	if _, ok := w.File(name); !ok {
		return types.LabeledFile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	opts := w.Options()
	translated, err := w.translator.Translate(ctx, content, opts.Source, opts.Target, opts.Service)
	if err != nil {
		return types.LabeledFile{}, types.WrapAction("更新文本", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.index(name)
	if i < 0 {
		return types.LabeledFile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	f := &w.files[i]
	f.TextContent = content
	f.TranslatedContent = translated
	f.Status = types.StatusTranslated
	f.Error = ""
	return *f, nil
}

// Batch applies op to every caption in order. Captions an edit leaves unchanged are
// skipped; translate-all retranslates everything.
func (w *Workspace) Batch(ctx context.Context, op BatchOp, progress ProgressFunc) (Report, error) {
	c, err := op.compile()
	if err != nil {
		return Report{}, err
	}

	w.op.Lock()
	defer w.op.Unlock()

	if len(w.Files()) == 0 {
		return Report{}, ErrNoFiles
	}
	return w.run(ctx, string(op.Action), progress, func(f types.LabeledFile) (string, bool) {
		if op.Action == ActionTranslateAll {
			return f.TextContent, true
		}
		next := c.apply(f.TextContent)
		return next, next != f.TextContent
	})
}

// TranslateAll retranslates every caption
func (w *Workspace) TranslateAll(ctx context.Context, progress ProgressFunc) (Report, error) {
	return w.Batch(ctx, BatchOp{Action: ActionTranslateAll}, progress)
}

// run visits files one at a time. edit returns the new caption and whether the file
// needs translating.
func (w *Workspace) run(ctx context.Context, action string, progress ProgressFunc, edit func(types.LabeledFile) (string, bool)) (Report, error) {
	files := w.Files()
	opts := w.Options()
	report := Report{Total: len(files)}

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return report, types.WrapAction("批量更新", err)
		}

		next, touch := edit(f)
		if !touch {
			continue
		}

		translated, err := w.translator.Translate(ctx, next, opts.Source, opts.Target, opts.Service)

		w.mu.Lock()
		j := w.index(f.OriginalName)
		if j >= 0 {
			cur := &w.files[j]
			cur.TextContent = next
			if err != nil {
				cur.Status = types.StatusFailed
				cur.Error = types.WrapAction("翻译", err).Error()
			} else {
				cur.TranslatedContent = translated
				cur.Status = types.StatusTranslated
				cur.Error = ""
			}
			f = *cur
		}
		w.mu.Unlock()

		if err != nil {
			report.Failed++
			w.logger.Warn("caption translation failed",
				zap.String("action", action),
				zap.String("file", f.OriginalName),
				zap.Error(err))
		} else {
			report.Updated++
		}

		if progress != nil {
			progress(Progress{
				Action: action,
				Index:  i + 1,
				Total:  len(files),
				File:   f.OriginalName,
				Status: f.Status,
				Error:  f.Error,
			})
		}
	}
	return report, nil
}

// Export writes a ZIP holding every image and "<base>.txt" with its current caption
func (w *Workspace) Export(out io.Writer) error {
	files := w.Files()
	if len(files) == 0 {
		return types.WrapAction("下载文件", ErrNoFiles)
	}

	zw := zip.NewWriter(out)
	written := make(map[string]bool)
	for _, f := range files {
		if err := addZipFile(zw, written, f.OriginalName, f.ImageData); err != nil {
			return types.WrapAction("下载文件", err)
		}
		caption := strings.TrimSuffix(f.OriginalName, path.Ext(f.OriginalName)) + ".txt"
		if err := addZipFile(zw, written, caption, []byte(f.TextContent)); err != nil {
			return types.WrapAction("下载文件", err)
		}
	}
	if err := zw.Close(); err != nil {
		return types.WrapAction("下载文件", err)
	}
	return nil
}

func addZipFile(zw *zip.Writer, written map[string]bool, name string, data []byte) error {
	if written[name] {
		return nil
	}
	written[name] = true

	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("zip %s: %w", name, err)
	}
	_, err = fw.Write(data)
	return err
}

// Summary is a short human description of the workspace
func (w *Workspace) Summary() string {
	files := w.Files()
	var size int64
	for _, f := range files {
		size += int64(len(f.ImageData))
	}
	return fmt.Sprintf("%d files, %s", len(files), utils.FormatFileSize(size))
}
