package deck

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// FileInfo is the result of sniffing a deck file's real type.
type FileInfo struct {
	MIMEType    string
	Extension   string
	IsPDF       bool
	NeedConvert bool
}

// office MIME types LibreOffice can turn into a PDF for us.
var convertible = map[string]string{
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
	"application/vnd.ms-powerpoint":                                             "ppt",
	"application/vnd.oasis.opendocument.presentation":                           "odp",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/msword": "doc",
}

// Detect sniffs the file content (never trusts the filename) and reports
// whether the deck is usable directly, needs conversion, or is unsupported.
func Detect(path string) (FileInfo, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("detect deck type: %w", err)
	}

	info := FileInfo{MIMEType: mt.String(), Extension: mt.Extension()}
	if mt.Is("application/pdf") {
		info.IsPDF = true
		return info, nil
	}
	if ext, ok := convertible[mt.String()]; ok {
		info.Extension = ext
		info.NeedConvert = true
		return info, nil
	}
	return info, fmt.Errorf("unsupported deck type: %s", mt.String())
}
