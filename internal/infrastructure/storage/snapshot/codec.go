// Package snapshot encodes model DTOs for the snapshot stores and the archive.
//
// Stores keep the plain JSON document. The archive keeps the xz-compressed
// form under a key derived from the BLAKE3 digest of the JSON, so identical
// models share one object.
package snapshot

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/turtacn/molgraph/pkg/errors"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// ContentType of an archived snapshot object.
const ContentType = "application/x-xz"

// Encoded is one archived snapshot.
type Encoded struct {
	// Digest is the hex BLAKE3-256 of the uncompressed JSON.
	Digest string
	// Data is the xz stream.
	Data    []byte
	RawSize int
}

// Marshal renders dto as JSON.
func Marshal(dto *stypes.ModelDTO) ([]byte, error) {
	if dto == nil {
		return nil, errors.InvalidParam("nil model document")
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "encoding model document")
	}
	return data, nil
}

// Unmarshal parses a JSON model document. Numbers inside untyped fields are
// kept as json.Number so integer checks see the exact literal.
func Unmarshal(data []byte) (*stypes.ModelDTO, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var dto stypes.ModelDTO
	if err := dec.Decode(&dto); err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "decoding model document")
	}
	return &dto, nil
}

// Digest returns the hex BLAKE3-256 of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Encode marshals, digests and compresses dto.
func Encode(dto *stypes.ModelDTO) (*Encoded, error) {
	raw, err := Marshal(dto)
	if err != nil {
		return nil, err
	}
	packed, err := Compress(raw)
	if err != nil {
		return nil, err
	}
	return &Encoded{Digest: Digest(raw), Data: packed, RawSize: len(raw)}, nil
}

// Decode reverses Encode. When wantDigest is non-empty the decompressed JSON
// must hash to it.
func Decode(data []byte, wantDigest string) (*stypes.ModelDTO, error) {
	raw, err := Decompress(data)
	if err != nil {
		return nil, err
	}
	if wantDigest != "" {
		if got := Digest(raw); got != wantDigest {
			return nil, errors.New(errors.CodeSerialization, "snapshot digest mismatch").
				WithDetail("want=" + wantDigest + " got=" + got)
		}
	}
	return Unmarshal(raw)
}

// Compress returns data as an xz stream.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "creating xz writer")
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, errors.Wrap(err, errors.CodeSerialization, "compressing snapshot")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "compressing snapshot")
	}
	return buf.Bytes(), nil
}

// Decompress reads a whole xz stream.
func Decompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "opening xz stream")
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "decompressing snapshot")
	}
	return raw, nil
}

// ObjectKey is where an archive stores a snapshot with the given digest.
func ObjectKey(digest string) string {
	if len(digest) < 2 {
		return "snapshots/" + digest + ".json.xz"
	}
	return "snapshots/" + digest[:2] + "/" + digest + ".json.xz"
}

//Personal.AI order the ending
