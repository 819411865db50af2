package pager

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrCorruptFile is returned by Open when the file length is not a
// whole multiple of PageSize.
var ErrCorruptFile = errors.New("pager: corrupt file: length is not a multiple of page size")

// ErrPageOutOfBounds is returned by GetPage when the requested page
// number is at or beyond MaxPages. This is treated as fatal by every
// caller in this repository (the source this format follows only
// printed a warning here; that bug is not reproduced).
var ErrPageOutOfBounds = errors.New("pager: page number out of bounds")

// Pager owns the file descriptor and the page cache. It is the sole
// owner of both; callers never touch the file directly.
type Pager struct {
	file       *os.File
	fileLength int64
	numPages   uint32
	cache      [MaxPages]*Page
	log        *zap.SugaredLogger
}

// Open opens path for read/write, creating it (mode 0600) if it does
// not exist, and computes the resident page count from the file
// length. It fails with ErrCorruptFile if the length is not a whole
// multiple of PageSize.
func Open(path string, log *zap.SugaredLogger) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "pager: open %q", path)
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "pager: stat %q", path)
	}
	length := fi.Size()
	if length%PageSize != 0 {
		return nil, errors.Wrapf(ErrCorruptFile, "file length %d", length)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pager{
		file:       f,
		fileLength: length,
		numPages:   uint32(length / PageSize),
		log:        log,
	}, nil
}

// NumPages returns the number of pages the pager currently knows
// about, the high-water mark for page numbers ever handed out.
func (p *Pager) NumPages() uint32 { return p.numPages }

// GetPage returns the cached buffer for pageNum, reading it through
// from disk on first access. Reads that run past EOF (a page entirely
// beyond the current file length) are zero-filled, matching a fresh
// allocation.
func (p *Pager) GetPage(pageNum uint32) (*Page, error) {
	if pageNum >= MaxPages {
		p.log.Errorw("page number out of bounds", "page", pageNum, "max", MaxPages)
		return nil, errors.Wrapf(ErrPageOutOfBounds, "page %d >= %d", pageNum, MaxPages)
	}
	if p.cache[pageNum] == nil {
		page := &Page{}
		numPagesInFile := uint32((p.fileLength + PageSize - 1) / PageSize)
		if pageNum < numPagesInFile {
			off := int64(pageNum) * PageSize
			if _, err := p.file.Seek(off, io.SeekStart); err != nil {
				return nil, errors.Wrapf(err, "pager: seek page %d", pageNum)
			}
			if _, err := io.ReadFull(p.file, page.Data[:]); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
				return nil, errors.Wrapf(err, "pager: read page %d", pageNum)
			}
		}
		p.cache[pageNum] = page
		if pageNum >= p.numPages {
			p.numPages = pageNum + 1
		}
	}
	return p.cache[pageNum], nil
}

// AllocatePage returns the page number for a fresh page at the current
// end of the file. The caller is expected to immediately materialize
// it via GetPage and initialize its header.
func (p *Pager) AllocatePage() uint32 {
	return p.numPages
}

// Flush writes page pageNum back to disk. The page must already be
// resident.
func (p *Pager) Flush(pageNum uint32) error {
	page := p.cache[pageNum]
	if page == nil {
		return errors.Errorf("pager: flush of non-resident page %d", pageNum)
	}
	off := int64(pageNum) * PageSize
	if _, err := p.file.Seek(off, io.SeekStart); err != nil {
		return errors.Wrapf(err, "pager: seek for flush of page %d", pageNum)
	}
	if _, err := p.file.Write(page.Data[:]); err != nil {
		return errors.Wrapf(err, "pager: write page %d", pageNum)
	}
	page.Dirty = false
	if pageNum >= uint32(p.fileLength/PageSize) {
		p.fileLength = int64(pageNum+1) * PageSize
	}
	return nil
}

// Close flushes every resident page and closes the file descriptor.
// Every resident page is flushed regardless of its Dirty flag: the
// working set is small enough (bounded by MaxPages) that this
// conservative write-everything-on-close policy is simpler than
// tracking which pages actually changed, at the cost of some
// write amplification on a close that did no mutations.
func (p *Pager) Close() error {
	for i := uint32(0); i < MaxPages; i++ {
		if p.cache[i] == nil {
			continue
		}
		if err := p.Flush(i); err != nil {
			return err
		}
		p.cache[i] = nil
	}
	return p.file.Close()
}
