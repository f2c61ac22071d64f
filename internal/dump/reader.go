package dump

import (
	"bufio"
	"compress/bzip2"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/wikienrich/internal/model"
)

// readBufferSize is the read buffer in front of the XML decoder.
const readBufferSize = 1 << 20

// xmlPage mirrors the parts of a <page> element the engine needs.
type xmlPage struct {
	Title     string        `xml:"title"`
	Namespace int           `xml:"ns"`
	Redirect  *xmlRedirect  `xml:"redirect"`
	Revisions []xmlRevision `xml:"revision"`
}

type xmlRedirect struct {
	Title string `xml:"title,attr"`
}

type xmlRevision struct {
	Text string `xml:"text"`
}

// Reader yields the pages of an XML export in document order.
// A Reader is not safe for concurrent use.
type Reader struct {
	dec    *xml.Decoder
	closer io.Closer
	pages  int
}

// NewReader returns a Reader decoding an uncompressed export from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: xml.NewDecoder(bufio.NewReaderSize(r, readBufferSize))}
}

// Open opens the export at path. Paths ending in ".bz2" are decompressed.
// The caller must Close the Reader.
func Open(path string) (*Reader, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	f, err := os.Open(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open dump: %w", err)
	}

	var src io.Reader = f
	if strings.HasSuffix(path, ".bz2") {
		src = bzip2.NewReader(bufio.NewReaderSize(f, readBufferSize))
	}

	r := NewReader(src)
	r.closer = f
	return r, nil
}

// Next returns the next page. It returns io.EOF after the last page and an
// error wrapping ErrMalformedDump when the stream cannot be decoded.
//
// The page body is the text of the last <revision> in the element, which is
// the latest revision in both current and history exports.
func (r *Reader) Next() (*model.RawPage, error) {
	for {
		tok, err := r.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDump, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "page" {
			continue
		}

		var p xmlPage
		if err := r.dec.DecodeElement(&p, &start); err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrMalformedDump, r.pages+1, err)
		}
		r.pages++

		page := &model.RawPage{
			Title:      p.Title,
			Namespace:  p.Namespace,
			IsRedirect: p.Redirect != nil,
		}
		if n := len(p.Revisions); n > 0 {
			page.MarkupText = p.Revisions[n-1].Text
		}
		return page, nil
	}
}

// Pages returns the number of pages read so far.
func (r *Reader) Pages() int {
	return r.pages
}

// Close releases the underlying file, if the Reader opened one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
