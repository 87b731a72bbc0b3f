package report

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/formcollector/api/internal/fault"
	"github.com/google/uuid"
)

// Spool は r を dir 配下の一時ファイルへ書き出し、先頭に戻したファイルを serve に渡す。
// 一時ファイルはどの経路でも削除する。エンコーダーのエラーと panic は serve を呼ぶ前に
// RenderFailure（入力起因なら Invalid）として返すため、途中までの文書は送られない。
func Spool(dir string, enc Encoder, r *Report, serve func(f *os.File, size int64) error) (err error) {
	if dir == "" {
		dir = os.TempDir()
	}
	name := filepath.Join(dir, fmt.Sprintf("report-%s.%s", uuid.NewString(), enc.Extension()))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return fault.Internal("create export artifact", err)
	}
	defer func() {
		f.Close()
		if rmErr := os.Remove(name); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) && err == nil {
			err = fault.Internal("remove export artifact", rmErr)
		}
	}()

	if err := encodeSafely(enc, f, r); err != nil {
		if fault.KindOf(err) == fault.KindInvalid {
			return err
		}
		return fault.RenderFailure("failed to render "+enc.Extension()+" report", err)
	}

	info, err := f.Stat()
	if err != nil {
		return fault.Internal("stat export artifact", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fault.Internal("rewind export artifact", err)
	}
	return serve(f, info.Size())
}

func encodeSafely(enc Encoder, w io.Writer, r *Report) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("エンコーダーが panic: %v", p)
		}
	}()
	return enc.Encode(w, r)
}
