package core

import (
	"path/filepath"
	"strings"
)

var kindByExt = map[string]AttachmentKind{
	".png": KindImage, ".jpg": KindImage, ".jpeg": KindImage, ".gif": KindImage,
	".bmp": KindImage, ".svg": KindImage, ".webp": KindImage, ".tiff": KindImage, ".tif": KindImage,

	".pdf": KindDocument, ".doc": KindDocument, ".docx": KindDocument,
	".txt": KindDocument, ".rtf": KindDocument, ".odt": KindDocument,

	".mp3": KindAudio, ".wav": KindAudio, ".ogg": KindAudio,
	".m4a": KindAudio, ".aac": KindAudio, ".flac": KindAudio,

	".mp4": KindVideo, ".avi": KindVideo, ".mov": KindVideo,
	".mkv": KindVideo, ".webm": KindVideo, ".flv": KindVideo,
}

// KindOf classifies a filename by extension.
func KindOf(name string) AttachmentKind {
	ext := strings.ToLower(filepath.Ext(name))
	if k, ok := kindByExt[ext]; ok {
		return k
	}
	return KindUnknown
}
