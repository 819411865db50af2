// Package btree implements the on-disk B+tree: leaf and internal node
// layouts, find/insert, leaf splitting, root promotion, and an ordered
// cursor.
package btree

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

// Fixed schema, per the single row shape this table ever stores.
const (
	UsernameMaxLen = 32
	EmailMaxLen    = 255

	idSize       = 4
	usernameSize = UsernameMaxLen + 1 // + null terminator
	emailSize    = EmailMaxLen + 1

	idOffset       = 0
	usernameOffset = idOffset + idSize
	emailOffset    = usernameOffset + usernameSize

	// RowSize is the fixed serialized width of a row.
	RowSize = idOffset + idSize + usernameSize + emailSize // idSize+usernameSize+emailSize = 293
)

// ErrStringTooLong is returned by SerializeRow when username or email
// exceeds its fixed slot. The statement parser checks the same limits
// itself (against UsernameMaxLen/EmailMaxLen) and does not use it.
var ErrStringTooLong = errors.New("string is too long")

// Row is the one fixed record type this table stores.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// SerializeRow writes row into dst, which must be exactly RowSize
// bytes. Bytes beyond each string's null terminator are left at
// whatever dst already contained; callers that need a clean slate
// should zero dst first (the B+tree does not: it serializes straight
// into a page cell in place).
func SerializeRow(row Row, dst []byte) error {
	if len(dst) != RowSize {
		return errors.Errorf("btree: row buffer is %d bytes, want %d", len(dst), RowSize)
	}
	if len(row.Username) > UsernameMaxLen {
		return ErrStringTooLong
	}
	if len(row.Email) > EmailMaxLen {
		return ErrStringTooLong
	}

	binary.LittleEndian.PutUint32(dst[idOffset:idOffset+idSize], row.ID)
	copy(dst[usernameOffset:usernameOffset+usernameSize], row.Username)
	dst[usernameOffset+len(row.Username)] = 0
	copy(dst[emailOffset:emailOffset+emailSize], row.Email)
	dst[emailOffset+len(row.Email)] = 0
	return nil
}

// DeserializeRow reads a Row out of src, which must be exactly RowSize
// bytes. Bytes past each field's null terminator are ignored, per
// spec: they are unspecified on write and must not be interpreted.
func DeserializeRow(src []byte) (Row, error) {
	if len(src) != RowSize {
		return Row{}, errors.Errorf("btree: row buffer is %d bytes, want %d", len(src), RowSize)
	}
	id := binary.LittleEndian.Uint32(src[idOffset : idOffset+idSize])
	username := cStringField(src[usernameOffset : usernameOffset+usernameSize])
	email := cStringField(src[emailOffset : emailOffset+emailSize])
	return Row{ID: id, Username: username, Email: email}, nil
}

// cStringField trims a fixed-width null-terminated field down to its
// logical string content.
func cStringField(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
