package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/edsrzf/mmap-go"

	"github.com/turtacn/molgraph/internal/infrastructure/storage/snapshot"
	"github.com/turtacn/molgraph/pkg/errors"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// xzMagic opens every .xz stream.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// readModelFile maps path read-only and decodes the model document in it.
// xz-compressed documents (as written by `export --format xz`) are
// recognised by their magic bytes.
func readModelFile(path string) (*stypes.ModelDTO, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "cannot open model file").WithDetail(path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "cannot stat model file").WithDetail(path)
	}
	if info.Size() == 0 {
		return nil, errors.InvalidParam("model file is empty").WithDetail(path)
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "cannot map model file").WithDetail(path)
	}
	defer mm.Unmap()

	return decodeModel(mm, path)
}

// decodeModel never retains data, so callers may unmap it afterwards.
func decodeModel(data []byte, name string) (*stypes.ModelDTO, error) {
	if bytes.HasPrefix(data, xzMagic) {
		raw, err := snapshot.Decompress(data)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidParam, "cannot decompress model file").WithDetail(name)
		}
		data = raw
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var dto stypes.ModelDTO
	if err := dec.Decode(&dto); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "invalid model document").
			WithDetail(fmt.Sprintf("%s: %v", name, err))
	}
	if dto.Title == "" {
		dto.Title = baseName(name)
	}
	return &dto, nil
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	for _, ext := range []string{".xz", ".json"} {
		path = strings.TrimSuffix(path, ext)
	}
	return path
}

//Personal.AI order the ending
