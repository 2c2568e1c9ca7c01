package mp4

import "strings"

// handler types from the hdlr box
const (
	handlerSound = "soun"
	handlerVideo = "vide"
	handlerText  = "text"
	handlerSubt  = "subt"
)

// sampleEntryTypes maps sample entry codes to the media type names used by platform media frameworks
var sampleEntryTypes = map[string]string{
	"mp4a": "audio/mp4a-latm",
	".mp3": "audio/mpeg",
	"ac-3": "audio/ac3",
	"ec-3": "audio/eac3",
	"ac-4": "audio/ac4",
	"Opus": "audio/opus",
	"fLaC": "audio/flac",
	"alac": "audio/alac",
	"samr": "audio/3gpp",
	"sawb": "audio/amr-wb",
	"sowt": "audio/raw",
	"twos": "audio/raw",
	"lpcm": "audio/raw",
	"avc1": "video/avc",
	"avc3": "video/avc",
	"hvc1": "video/hevc",
	"hev1": "video/hevc",
	"av01": "video/av01",
	"vp08": "video/x-vnd.on2.vp8",
	"vp09": "video/x-vnd.on2.vp9",
	"mp4v": "video/mp4v-es",
	"s263": "video/3gpp",
	"tx3g": "text/3gpp-tt",
	"wvtt": "text/vtt",
	"stpp": "application/ttml+xml",
}

// mediaType derives a media type from a track's handler type and sample entry code
func mediaType(handler, entry string) string {
	if mt, ok := sampleEntryTypes[entry]; ok {
		// the handler wins over an entry code registered for another media kind
		if handler == handlerSound && !strings.HasPrefix(mt, "audio/") {
			return "audio/" + entryName(entry)
		}
		return mt
	}

	switch handler {
	case handlerSound:
		return "audio/" + entryName(entry)
	case handlerVideo:
		return "video/" + entryName(entry)
	case handlerText, handlerSubt:
		return "text/" + entryName(entry)
	default:
		return "application/" + entryName(entry)
	}
}

// handlerFor returns the hdlr type and name an output track of the given media type needs
func handlerFor(mediaType string) (handler, name string, ok bool) {
	switch {
	case strings.HasPrefix(mediaType, "audio/"):
		return handlerSound, "SoundHandler", true
	case strings.HasPrefix(mediaType, "video/"):
		return handlerVideo, "VideoHandler", true
	default:
		return "", "", false
	}
}

func entryName(entry string) string {
	name := strings.ToLower(strings.TrimSpace(entry))
	if name == "" {
		return "unknown"
	}
	return name
}
