package form

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// Payload is the multipart/form-data encoding of a Form. Its size is
// computed up front so the transfer total is known before streaming.
type Payload struct {
	form     *Form
	boundary string
	sizes    []int64
	size     int64
}

type countWriter struct{ n int64 }

func (c *countWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// NewPayload stats every file of f and measures the encoded body.
func NewPayload(f *Form) (*Payload, error) {
	cw := &countWriter{}
	mw := multipart.NewWriter(cw)
	p := &Payload{form: f, boundary: mw.Boundary()}

	for _, fld := range f.Fields {
		if err := mw.WriteField(fld.Name, fld.Value); err != nil {
			return nil, err
		}
	}

	var fileBytes int64
	for _, file := range f.Files {
		info, err := os.Stat(file.Path)
		if err != nil {
			return nil, fmt.Errorf("file %s: %w", file.Name, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("file %s: %s is a directory", file.Name, file.Path)
		}
		if _, err := mw.CreatePart(fileHeader(file)); err != nil {
			return nil, err
		}
		p.sizes = append(p.sizes, info.Size())
		fileBytes += info.Size()
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	p.size = cw.n + fileBytes
	return p, nil
}

func (p *Payload) Size() int64 { return p.size }

func (p *Payload) ContentType() string {
	return "multipart/form-data; boundary=" + p.boundary
}

// WriteTo streams the encoded form to w. Each file contributes exactly the
// number of bytes measured by NewPayload.
func (p *Payload) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	mw := multipart.NewWriter(cw)
	if err := mw.SetBoundary(p.boundary); err != nil {
		return cw.n, err
	}

	for _, fld := range p.form.Fields {
		if err := mw.WriteField(fld.Name, fld.Value); err != nil {
			return cw.n, err
		}
	}
	for i, file := range p.form.Files {
		part, err := mw.CreatePart(fileHeader(file))
		if err != nil {
			return cw.n, err
		}
		if err := copyFile(part, file, p.sizes[i]); err != nil {
			return cw.n, err
		}
	}
	err := mw.Close()
	return cw.n, err
}

func copyFile(dst io.Writer, file File, size int64) error {
	f, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("file %s: %w", file.Name, err)
	}
	defer f.Close()

	if _, err := io.CopyN(dst, f, size); err != nil {
		if err == io.EOF {
			return fmt.Errorf("file %s: shrank while uploading", file.Name)
		}
		return fmt.Errorf("file %s: %w", file.Name, err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func fileHeader(file File) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(file.Name), quoteEscaper.Replace(filepath.Base(file.Path))))
	h.Set("Content-Type", ContentTypeFor(file.Path))
	return h
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".zip":  "application/zip",
	".txt":  "text/plain; charset=utf-8",
}

// ContentTypeFor picks the part Content-Type from the file extension.
func ContentTypeFor(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}
