package normalize

// ReferenceKind is the outcome of classifying a caller-supplied reference.
type ReferenceKind int

const (
	KindBlank ReferenceKind = iota
	KindDirectAudio
	KindSharingPage
	KindUnsupported
)

func (k ReferenceKind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindDirectAudio:
		return "direct_audio"
	case KindSharingPage:
		return "sharing_page"
	default:
		return "unsupported"
	}
}

// extensions accepted as directly fetchable audio
var directAudioExtensions = []string{
	".mp3",
	".wav",
	".ogg",
	".m4a",
	".mp4",
	".aac",
	".webm",
	".flac",
}

const (
	mediaSoundsMarker = "media/sounds/"
	dataAudioPrefix   = "data:audio/"
)
