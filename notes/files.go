package notes

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"math"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrBadDataURL = errors.New("malformed data URL")

// Upload is one selected file waiting to be embedded into a note.
type Upload interface {
	Name() string
	Type() string
	Size() int64
	Open() (io.ReadCloser, error)
}

type multipartUpload struct {
	fh *multipart.FileHeader
}

// FromMultipart adapts a form file.
func FromMultipart(fh *multipart.FileHeader) Upload {
	return multipartUpload{fh: fh}
}

func (u multipartUpload) Name() string { return u.fh.Filename }
func (u multipartUpload) Type() string { return u.fh.Header.Get("Content-Type") }
func (u multipartUpload) Size() int64  { return u.fh.Size }

func (u multipartUpload) Open() (io.ReadCloser, error) {
	return u.fh.Open()
}

// BytesUpload is an in-memory Upload.
type BytesUpload struct {
	FileName string
	MIME     string
	Data     []byte
}

func (u BytesUpload) Name() string { return u.FileName }
func (u BytesUpload) Type() string { return u.MIME }
func (u BytesUpload) Size() int64  { return int64(len(u.Data)) }

func (u BytesUpload) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(u.Data)), nil
}

// EncodeDataURL builds "data:<type>;base64,<payload>".
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL returns the MIME type and bytes of a base64 data URL.
func DecodeDataURL(url string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, ErrBadDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrBadDataURL
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}
	return mimeType, data, nil
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize prints bytes in 1024 steps with at most two decimals.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// FileIcon picks an icon from the file extension.
func FileIcon(name string) string {
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".") {
	case "pdf":
		return "📚"
	case "doc", "docx":
		return "📝"
	case "jpg", "jpeg", "png", "gif", "bmp":
		return "🖼️"
	case "zip", "rar", "7z":
		return "📦"
	}
	return "📄"
}
