package pdf

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Inspector reads a document's structure with pdfcpu, independently of the
// content-stream parser. It catches truncated or corrupt files early.
type Inspector struct {
	validator *Validator
}

// NewInspector creates an inspector with the specified size limit
func NewInspector(maxFileSize int64) *Inspector {
	return &Inspector{validator: NewValidator(maxFileSize)}
}

// Inspect returns page count, version and encryption state of a report
func (i *Inspector) Inspect(path string) (insp *Inspection, err error) {
	if err := i.validator.ValidateFile(path); err != nil {
		return nil, &DocumentError{Kind: ErrorKindValidate, Path: path, Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			insp, err = nil, &DocumentError{Kind: ErrorKindInspect, Path: path, Err: fmt.Errorf("panic reading PDF context: %v", r)}
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return nil, &DocumentError{Kind: ErrorKindOpen, Path: path, Err: fmt.Errorf("failed to open file: %w", err)}
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return nil, &DocumentError{Kind: ErrorKindInspect, Path: path, Err: fmt.Errorf("failed to read PDF context: %w", err)}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &DocumentError{Kind: ErrorKindInspect, Path: path, Err: fmt.Errorf("failed to ensure page count: %w", err)}
	}

	return &Inspection{
		Path:      path,
		PageCount: ctx.PageCount,
		Version:   ctx.VersionString(),
		Encrypted: ctx.Encrypt != nil,
	}, nil
}
