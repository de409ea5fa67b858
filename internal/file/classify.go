package file

import "strings"

var extensionTypes = map[string]Type{}

func init() {
	table := map[Type][]string{
		TypeImage: {"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp"},
		TypeVideo: {"mp4", "avi", "mov", "mkv", "webm"},
		TypeAudio: {"mp3", "wav", "ogg", "flac"},
		TypeDocument: {
			"pdf", "doc", "docx", "txt", "xls", "xlsx", "csv", "rtf", "ods", "ppt", "odp", "md",
			"html", "htm", "epub", "pages", "fig", "psd", "ai", "indd", "xd", "sketch",
			"afdesign", "afphoto",
		},
	}
	for typ, exts := range table {
		for _, ext := range exts {
			extensionTypes[ext] = typ
		}
	}
}

// Extension returns the lower-cased text after the last dot of name, or "" when there is none.
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// TypeForExtension maps an extension to its category. Unknown extensions are TypeOther.
func TypeForExtension(ext string) Type {
	if typ, ok := extensionTypes[strings.ToLower(ext)]; ok {
		return typ
	}
	return TypeOther
}

// Classify derives the category and extension of a stored file name.
func Classify(name string) (Type, string) {
	ext := Extension(name)
	return TypeForExtension(ext), ext
}
