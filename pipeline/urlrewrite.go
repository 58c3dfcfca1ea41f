package pipeline

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"github.com/gstvribs/ng-packagr/common"
	"github.com/gstvribs/ng-packagr/css"
)

// urlRewriter rewrites url() references: inline mode embeds assets as data
// URIs, rebase mode rewrites relative references against the output
// location. Absolute, protocol and data references are never touched.
type urlRewriter struct {
	mode     common.CSSURLMode
	rewriter *css.Rewriter
	log      *zap.Logger
}

func newURLRewriter(rw *css.Rewriter, mode common.CSSURLMode, log *zap.Logger) *urlRewriter {
	return &urlRewriter{mode: mode, rewriter: rw, log: log.Named("url")}
}

func (u *urlRewriter) Name() string {
	return "url-rewrite"
}

func (u *urlRewriter) Transform(_ context.Context, job *TransformJob) error {
	fromDir := filepath.Dir(job.From)
	toDir := filepath.Dir(job.To)

	out, err := u.rewriter.Rewrite(job.CSS, css.Hooks{
		URL: func(target string) (string, bool) {
			if !rewritable(target) {
				return "", false
			}
			switch u.mode {
			case common.CSSURLModeInline:
				return u.inline(fromDir, target, job)
			case common.CSSURLModeRebase:
				return u.rebase(fromDir, toDir, target)
			default:
				return "", false
			}
		},
	})
	if err != nil {
		return err
	}
	job.CSS = out
	return nil
}

// inline embeds the referenced asset as a base64 data URI. An unreadable
// asset produces a warning and leaves the reference alone rather than
// failing the job.
func (u *urlRewriter) inline(fromDir, target string, job *TransformJob) (string, bool) {
	ref, suffix := splitRef(target)
	path := filepath.Join(fromDir, filepath.FromSlash(ref))

	data, err := os.ReadFile(path)
	if err != nil {
		job.Warn("unable to inline " + target + ": " + err.Error())
		return "", false
	}

	u.log.Debug("Inlining asset", zap.String("ref", target), zap.Int("bytes", len(data)))
	_ = suffix // query and fragment are meaningless once the asset is embedded
	return "data:" + sniffMIME(path, data) + ";base64," + base64.StdEncoding.EncodeToString(data), true
}

func (u *urlRewriter) rebase(fromDir, toDir, target string) (string, bool) {
	ref, suffix := splitRef(target)

	rel, err := filepath.Rel(toDir, filepath.Join(fromDir, filepath.FromSlash(ref)))
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel) + suffix, true
}

// rewritable reports whether the reference points at a relative local asset.
func rewritable(target string) bool {
	if len(target) == 0 ||
		strings.HasPrefix(target, "#") ||
		strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "data:") ||
		strings.Contains(target, "://") {
		return false
	}
	return true
}

// splitRef separates the file part of a reference from its query/fragment
// suffix (fonts are commonly referenced as font.woff2?v=1#iefix).
func splitRef(target string) (ref, suffix string) {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		return target[:i], target[i:]
	}
	return target, ""
}

// extension fallbacks for text formats magic-number sniffing cannot identify
var mimeByExt = map[string]string{
	".css":   "text/css",
	".svg":   "image/svg+xml",
	".eot":   "application/vnd.ms-fontobject",
	".otf":   "font/otf",
	".ttf":   "font/ttf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

func sniffMIME(path string, data []byte) string {
	if t, err := filetype.Match(data); err == nil && t != filetype.Unknown {
		return t.MIME.Value
	}
	if m, ok := mimeByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	return "application/octet-stream"
}
